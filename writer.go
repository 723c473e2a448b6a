package gxt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// Variant selects the output layout.
	// Default: the variant of the written document.
	Variant Variant

	// Charset overrides the value charset. Its code unit width must match
	// the variant's terminator width.
	// Default: the variant charset.
	Charset *Charset

	// TableOrder controls the order of non-MAIN tables.
	// Default: insertion order for decoded documents and VariantD, name
	// order otherwise.
	TableOrder TableOrder

	// TableLess, when set, orders non-MAIN tables and takes precedence
	// over TableOrder.
	TableLess func(a, b string) bool

	// SortKeys sorts the entries of each table by key.
	SortKeys bool

	// CodeTable, when set, maps characters to code points before encoding.
	CodeTable *CodeTable

	// Logger receives per-table diagnostics.
	// Default: discard.
	Logger *slog.Logger
}

func (o *WriterOptions) norm(doc *Document) (*WriterOptions, error) {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if oo.Variant == VariantUnknown {
		oo.Variant = doc.Variant()
	}
	if !oo.Variant.isValid() {
		return nil, fmt.Errorf("gxt: cannot write %s variant", oo.Variant)
	}

	f := oo.Variant.format()
	if oo.Charset == nil {
		oo.Charset = f.charset
	}
	if oo.Charset.unit != f.unit {
		return nil, fmt.Errorf("gxt: charset %s has %d-byte code units, variant needs %d", oo.Charset, oo.Charset.unit, f.unit)
	}
	if !oo.TableOrder.isValid() {
		return nil, fmt.Errorf("gxt: unknown table order %d", oo.TableOrder)
	}
	if oo.TableOrder == DefaultOrder {
		oo.TableOrder = f.order
		if doc.ordered {
			oo.TableOrder = InsertionOrder
		}
	}
	if oo.Logger == nil {
		oo.Logger = discardLogger
	}
	return &oo, nil
}

// Writer emits documents in a binary variant.
type Writer struct {
	w      io.Writer
	o      *WriterOptions
	offset int64
	tmp    []byte
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	var oo *WriterOptions
	if o != nil {
		x := *o
		oo = &x
	}
	return &Writer{w: w, o: oo, tmp: make([]byte, blockHeaderSize)}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.offset }

// Write encodes doc in three phases: every table is sized and its value
// block encoded, absolute offsets are assigned with MAIN first, then the
// header, directory and tables are written sequentially.
func (w *Writer) Write(doc *Document) error {
	o, err := w.o.norm(doc)
	if err != nil {
		return err
	}
	f := o.Variant.format()

	if doc.KeyKind() != f.keys {
		return fmt.Errorf("%w: cannot write %s keys as variant %s", ErrInvalidKey, doc.KeyKind(), o.Variant)
	}

	plans, err := w.sizeTables(doc, o, f)
	defer func() {
		for _, p := range plans {
			releaseBuffer(p.values.buf)
		}
	}()
	if err != nil {
		return err
	}

	base := w.offset
	dir, err := w.layout(plans, f)
	if err != nil {
		return err
	}
	return w.emit(base, plans, dir, o, f)
}

// tablePlan carries a table through the three phases.
type tablePlan struct {
	name    string
	entries []Entry
	values  valueBlock
	prefix  bool   // 8-byte name before the key block
	offset  uint32 // absolute, assigned by layout
}

func (p *tablePlan) size(f *format) int {
	n := 2*blockHeaderSize + len(p.entries)*f.keySize + len(p.values.buf)
	if p.prefix {
		n += nameSize
	}
	return n
}

// sizeTables orders the tables and encodes their values.
func (w *Writer) sizeTables(doc *Document, o *WriterOptions, f *format) ([]*tablePlan, error) {
	tables := orderTables(doc.tables, o)
	if !f.directory && len(tables) > 1 {
		return nil, fmt.Errorf("%w: variant %s stores a single table, document has %d", ErrInvalidTable, o.Variant, len(tables))
	}
	if !f.directory && len(tables) == 0 {
		tables = []*Table{newTable(MainTable, f.keys)}
	}

	plans := make([]*tablePlan, 0, len(tables))
	for _, t := range tables {
		if len(t.name) == 0 || len(t.name) > nameSize {
			return plans, fmt.Errorf("%w: name %q does not fit %d bytes", ErrInvalidTable, t.name, nameSize)
		}

		entries := t.entries
		if o.SortKeys {
			entries = append([]Entry(nil), entries...)
			sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key.Less(entries[j].Key) })
		}

		values := make([]string, len(entries))
		sz := 0
		for i, e := range entries {
			if e.Key.kind == NamedKeys && (len(e.Key.name) == 0 || len(e.Key.name) > nameSize) {
				return plans, &KeyError{Table: t.name, Key: e.Key, Err: ErrInvalidKey}
			}

			v := e.Value
			if o.CodeTable != nil {
				v = o.CodeTable.Encode(v)
			}
			n, err := o.Charset.encodedLen(v)
			if err != nil {
				return plans, &KeyError{Table: t.name, Key: e.Key, Err: err}
			}
			values[i] = v
			sz += n + f.unit
		}

		vb, err := encodeValues(fetchBuffer(sz), values, o.Charset, f.unit)
		if err != nil {
			releaseBuffer(vb.buf)
			return plans, fmt.Errorf("gxt: table %s: %w", t.name, err)
		}

		plans = append(plans, &tablePlan{
			name:    t.name,
			entries: entries,
			values:  vb,
			prefix:  f.directory && !strings.EqualFold(t.name, MainTable),
		})
	}
	return plans, nil
}

// layout assigns file offsets and fills the directory.
func (w *Writer) layout(plans []*tablePlan, f *format) (*directory, error) {
	pos := int64(len(f.header))

	var dir *directory
	if f.directory {
		dir = newDirectory(len(plans))
		pos += int64(blockHeaderSize + len(dir.bytes()))
	}

	for i, p := range plans {
		if pos > math.MaxUint32 {
			return nil, fmt.Errorf("gxt: table %s starts beyond 4GiB", p.name)
		}
		p.offset = uint32(pos)
		if dir != nil {
			dir.patch(i, p.name, p.offset)
		}
		pos += int64(p.size(f))
	}
	if pos > math.MaxUint32 {
		return nil, fmt.Errorf("gxt: encoded size %d exceeds 4GiB", pos)
	}
	return dir, nil
}

func (w *Writer) emit(base int64, plans []*tablePlan, dir *directory, o *WriterOptions, f *format) error {
	if err := w.writeRaw(f.header); err != nil {
		return err
	}
	if dir != nil {
		if err := w.writeBlock(TagTABL, dir.bytes()); err != nil {
			return err
		}
	}

	var keys []byte
	for _, p := range plans {
		if pos := w.offset - base; pos != int64(p.offset) {
			return fmt.Errorf("gxt: table %s laid out at %d, written at %d", p.name, p.offset, pos)
		}
		if p.prefix {
			var name [nameSize]byte
			putName(name[:], p.name)
			if err := w.writeRaw(name[:]); err != nil {
				return err
			}
		}

		ks := make([]Key, len(p.entries))
		for i, e := range p.entries {
			ks[i] = e.Key
		}
		keys = appendKeyBlock(keys[:0], ks, p.values.offsets, f)

		if err := w.writeBlock(TagTKEY, keys); err != nil {
			return err
		}
		if err := w.writeBlock(TagTDAT, p.values.buf); err != nil {
			return err
		}
		o.Logger.Debug("wrote table", "table", p.name, "entries", len(p.entries), "offset", p.offset)
	}
	return nil
}

func (w *Writer) writeBlock(tag Tag, payload []byte) error {
	copy(w.tmp[0:4], tag[:])
	binary.LittleEndian.PutUint32(w.tmp[4:], uint32(len(payload)))
	if err := w.writeRaw(w.tmp[:blockHeaderSize]); err != nil {
		return err
	}
	return w.writeRaw(payload)
}

func (w *Writer) writeRaw(p []byte) error {
	n, err := w.w.Write(p)
	w.offset += int64(n)
	return err
}

// orderTables puts MAIN first, followed by the remaining tables in the
// configured order.
func orderTables(tables []*Table, o *WriterOptions) []*Table {
	res := make([]*Table, 0, len(tables))
	rest := make([]*Table, 0, len(tables))
	for _, t := range tables {
		if strings.EqualFold(t.name, MainTable) {
			res = append(res, t)
		} else {
			rest = append(rest, t)
		}
	}

	switch {
	case o.TableLess != nil:
		sort.SliceStable(rest, func(i, j int) bool { return o.TableLess(rest[i].name, rest[j].name) })
	case o.TableOrder == SortByName:
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].name < rest[j].name })
	}
	return append(res, rest...)
}

// Encode returns the binary encoding of doc.
func Encode(doc *Document, o *WriterOptions) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := NewWriter(buf, o).Write(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes doc into a temporary file next to path and renames it
// into place once complete.
func WriteFile(path string, doc *Document, o *WriterOptions) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := NewWriter(f, o).Write(doc); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p[:0])
	}
}
