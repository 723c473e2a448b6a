package gxt

import (
	"bufio"
	"fmt"
	"io"
)

// BlockInfo describes a located block.
type BlockInfo struct {
	Tag    Tag
	Offset int // offset of the tag
	Len    int // payload length
}

func newBlockInfo(b Block) BlockInfo {
	return BlockInfo{Tag: b.Tag, Offset: b.Offset, Len: b.Len()}
}

// TableLayout describes where a table is stored.
type TableLayout struct {
	Name    string
	Offset  uint32 // directory offset
	Keys    BlockInfo
	Values  BlockInfo
	Entries int
}

// Layout is the structure of a binary stream.
type Layout struct {
	Variant   Variant
	Size      int
	Header    []byte
	Directory *BlockInfo // nil for variants without one
	Tables    []TableLayout
}

// Inspect maps the blocks of buf without decoding any value.
func Inspect(buf []byte) (*Layout, error) {
	r, err := NewReader(buf, nil)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Variant: r.variant,
		Size:    len(buf),
		Header:  append([]byte(nil), buf[:len(r.f.header)]...),
	}
	if r.tabl != nil {
		info := newBlockInfo(*r.tabl)
		l.Directory = &info
	}

	for i, ent := range r.dir {
		keys, values, err := r.locateTable(i)
		if err != nil {
			return nil, err
		}
		l.Tables = append(l.Tables, TableLayout{
			Name:    ent.Name,
			Offset:  ent.Offset,
			Keys:    newBlockInfo(keys),
			Values:  newBlockInfo(values),
			Entries: keys.Len() / r.f.keySize,
		})
	}
	return l, nil
}

// WriteTo writes a human readable dump of the layout.
func (l *Layout) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	printf := func(format string, args ...interface{}) {
		m, _ := fmt.Fprintf(bw, format, args...)
		n += int64(m)
	}

	printf("variant %s, %d bytes\n", l.Variant, l.Size)
	if len(l.Header) != 0 {
		printf("header  % X\n", l.Header)
	}
	if d := l.Directory; d != nil {
		printf("%s    @%08X len %d, %d tables\n", d.Tag, d.Offset, d.Len, len(l.Tables))
	}
	for _, t := range l.Tables {
		printf("table %-8s @%08X %d entries\n", t.Name, t.Offset, t.Entries)
		printf("  %s  @%08X len %d\n", t.Keys.Tag, t.Keys.Offset, t.Keys.Len)
		printf("  %s  @%08X len %d\n", t.Values.Tag, t.Values.Offset, t.Values.Len)
	}
	return n, bw.Flush()
}
