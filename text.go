package gxt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// TextOptions define options for the textual source format.
type TextOptions struct {
	// Variant of parsed documents. Required by ParseText and ReadText.
	Variant Variant

	// Compression applied by WriteText. ReadText detects it.
	// Default: NoCompression.
	Compression Compression

	// Dictionary names hashed keys on render. A name is used only when
	// it hashes back to the key.
	Dictionary Dictionary
}

func (o *TextOptions) norm() *TextOptions {
	var oo TextOptions
	if o != nil {
		oo = *o
	}
	if !oo.Compression.isValid() {
		oo.Compression = NoCompression
	}
	return &oo
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseText parses textual source into a document of o.Variant.
//
// Sections open with a [NAME] line and re-opening a section appends to
// it. Entries are KEY=VALUE lines split at the first '='; the value is
// kept verbatim. Blank lines and lines starting with ';' are ignored.
// For hashed-key variants a key of exactly 8 hexadecimal digits is a
// literal hash, any other key is hashed by the variant hasher.
func ParseText(src []byte, o *TextOptions) (*Document, error) {
	o = o.norm()
	if !o.Variant.isValid() {
		return nil, fmt.Errorf("gxt: cannot parse text for %s variant", o.Variant)
	}

	p := &textParser{doc: NewDocument(o.Variant)}
	src = bytes.TrimPrefix(src, utf8BOM)
	for n := 1; len(src) != 0; n++ {
		var line []byte
		if i := bytes.IndexByte(src, '\n'); i < 0 {
			line, src = src, nil
		} else {
			line, src = src[:i], src[i+1:]
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if err := p.parseLine(string(line)); err != nil {
			return nil, &ParseError{Line: n, Text: string(line), Err: err}
		}
	}
	return p.doc, nil
}

type textParser struct {
	doc *Document
	cur *Table
}

func (p *textParser) parseLine(line string) error {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "", trimmed[0] == ';':
		return nil
	case trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']':
		name := trimmed[1 : len(trimmed)-1]
		if err := validateTableName(name); err != nil {
			return err
		}
		t, err := p.doc.tableOrAdd(name)
		if err != nil {
			return err
		}
		p.cur = t
		return nil
	}

	i := strings.IndexByte(line, '=')
	if i < 0 {
		return ErrSyntax
	}
	k, err := p.parseKey(strings.TrimSpace(line[:i]))
	if err != nil {
		return err
	}
	value := line[i+1:]
	if strings.Count(value, "~")%2 != 0 {
		return ErrUnbalancedTilde
	}

	if p.cur == nil {
		if p.doc.variant.HasDirectory() {
			return ErrKeyWithoutTable
		}
		if p.cur, err = p.doc.tableOrAdd(MainTable); err != nil {
			return err
		}
	}
	return p.cur.Add(k, value)
}

func (p *textParser) parseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return Key{}, fmt.Errorf("%w: %q contains %q", ErrInvalidKey, s, s[i])
		}
	}

	if p.doc.KeyKind() == NamedKeys {
		return NamedKey(s), nil
	}
	if k, ok := parseHashKey(s); ok {
		return k, nil
	}
	return HashKey(p.doc.variant.Hash(s)), nil
}

// ReadText reads textual source from r, transparently decompressing
// snappy, zstd and lz4 framed streams.
func ReadText(r io.Reader, o *TextOptions) (*Document, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(snappyMagic))

	var src io.Reader = br
	switch sniffCompression(magic) {
	case SnappyCompression:
		src = snappy.NewReader(br)
	case ZstdCompression:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		src = zr
	case LZ4Compression:
		src = lz4.NewReader(br)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return ParseText(data, o)
}

var (
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
	zstdMagic   = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic    = []byte{0x04, 0x22, 0x4D, 0x18}
)

func sniffCompression(p []byte) Compression {
	switch {
	case bytes.HasPrefix(p, snappyMagic):
		return SnappyCompression
	case bytes.HasPrefix(p, zstdMagic):
		return ZstdCompression
	case bytes.HasPrefix(p, lz4Magic):
		return LZ4Compression
	}
	return NoCompression
}

// --------------------------------------------------------------------

// RenderText renders doc as textual source: MAIN first, then the other
// tables in document order, one [NAME] section each.
func RenderText(doc *Document, o *TextOptions) string {
	var sb strings.Builder
	_ = renderText(&sb, doc, o.norm())
	return sb.String()
}

// WriteText renders doc to w, compressed with o.Compression.
func WriteText(w io.Writer, doc *Document, o *TextOptions) error {
	o = o.norm()

	var cw io.WriteCloser
	switch o.Compression {
	case SnappyCompression:
		cw = snappy.NewBufferedWriter(w)
	case ZstdCompression:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		cw = zw
	case LZ4Compression:
		cw = lz4.NewWriter(w)
	}

	if cw == nil {
		bw := bufio.NewWriter(w)
		if err := renderText(bw, doc, o); err != nil {
			return err
		}
		return bw.Flush()
	}

	bw := bufio.NewWriter(cw)
	if err := renderText(bw, doc, o); err != nil {
		_ = cw.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

func renderText(w io.Writer, doc *Document, o *TextOptions) error {
	tables := orderTables(doc.tables, &WriterOptions{TableOrder: InsertionOrder})
	for i, t := range tables {
		if i != 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%s]\n", t.name); err != nil {
			return err
		}
		for _, e := range t.entries {
			if _, err := fmt.Fprintf(w, "%s=%s\n", keyText(doc.variant, e.Key, o.Dictionary), e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// keyText renders a key, resolving hashes through dict where the name
// hashes back to the same value and would not parse as a literal hash.
func keyText(v Variant, k Key, dict Dictionary) string {
	if k.kind != HashedKeys || dict == nil {
		return k.String()
	}
	name, ok := dict.Lookup(k.hash)
	if !ok || name == "" || v.Hash(name) != k.hash {
		return k.String()
	}
	if _, literal := parseHashKey(name); literal {
		return k.String()
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return k.String()
		}
	}
	return name
}
