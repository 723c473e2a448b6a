package gxt

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// ReaderOptions define reader specific options.
type ReaderOptions struct {
	// Charset overrides the primary value charset of the variant. Its code
	// unit width must match the variant's terminator width.
	// Default: the variant charset.
	Charset *Charset

	// Fallback overrides the chain of charsets tried when the primary
	// charset fails to decode a value.
	// Default: the variant chain (GBK, Windows-1252 for VariantC).
	Fallback []*Charset

	// CodeTable, when set, remaps decoded values.
	CodeTable *CodeTable

	// Logger receives per-entry diagnostics.
	// Default: discard.
	Logger *slog.Logger
}

func (o *ReaderOptions) norm(f *format) (*ReaderOptions, error) {
	var oo ReaderOptions
	if o != nil {
		oo = *o
	}

	if oo.Charset == nil {
		oo.Charset = f.charset
	}
	if oo.Fallback == nil {
		oo.Fallback = f.fallback
	}
	if oo.Logger == nil {
		oo.Logger = discardLogger
	}

	for _, c := range append([]*Charset{oo.Charset}, oo.Fallback...) {
		if c.unit != f.unit {
			return nil, fmt.Errorf("gxt: charset %s has %d-byte code units, variant needs %d", c, c.unit, f.unit)
		}
	}
	return &oo, nil
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Reader decodes the tables of an in-memory GXT stream. The buffer is
// never copied; decoded strings do not alias it.
type Reader struct {
	buf     []byte
	variant Variant
	f       *format
	o       *ReaderOptions

	tabl     *Block
	dir      []DirEntry
	warnings []error
}

// NewReader detects the variant of buf and reads its table directory.
func NewReader(buf []byte, o *ReaderOptions) (*Reader, error) {
	variant, err := Detect(buf)
	if err != nil {
		return nil, err
	}

	f := variant.format()
	oo, err := o.norm(f)
	if err != nil {
		return nil, err
	}

	r := &Reader{buf: buf, variant: variant, f: f, o: oo}
	if !f.directory {
		r.dir = []DirEntry{{Name: MainTable}}
		return r, nil
	}

	s := NewScanner(buf)
	if err := s.Skip(len(f.header)); err != nil {
		return nil, err
	}
	tabl, err := s.Locate(TagTABL)
	if err != nil {
		return nil, err
	}
	r.tabl = &tabl
	r.dir = parseDirectory(tabl.Payload)

	oo.Logger.Debug("read directory", "variant", variant, "tables", len(r.dir))
	return r, nil
}

// Variant returns the detected variant.
func (r *Reader) Variant() Variant { return r.variant }

// NumTables returns the number of tables.
func (r *Reader) NumTables() int { return len(r.dir) }

// Directory returns the decoded directory entries. Variants without a
// directory report a single MAIN entry at offset 0.
func (r *Reader) Directory() []DirEntry {
	return append([]DirEntry(nil), r.dir...)
}

// Warnings returns the non-fatal problems met so far, each an
// *EncodingError.
func (r *Reader) Warnings() []error { return r.warnings }

// ReadTable decodes the n-th table.
func (r *Reader) ReadTable(n int) (*Table, error) {
	keys, values, err := r.locateTable(n)
	if err != nil {
		return nil, err
	}
	return r.decodeTable(r.dir[n].Name, keys.Payload, values.Payload)
}

// locateTable finds the key and value blocks of the n-th table.
func (r *Reader) locateTable(n int) (keys, values Block, err error) {
	if r.buf == nil {
		return keys, values, errClosed
	}
	if n < 0 || n >= len(r.dir) {
		return keys, values, fmt.Errorf("gxt: table %d out of range [0,%d)", n, len(r.dir))
	}
	ent := r.dir[n]

	s := NewScanner(r.buf)
	if err = s.Seek(int(ent.Offset)); err != nil {
		return
	}
	if r.f.directory && !strings.EqualFold(ent.Name, MainTable) {
		if err = r.skipNamePrefix(s, ent); err != nil {
			return
		}
		keys, err = s.Expect(TagTKEY)
	} else {
		keys, err = s.Locate(TagTKEY)
	}
	if err != nil {
		return
	}
	if err = s.Skip(keys.Len()); err != nil {
		return
	}
	values, err = s.Locate(TagTDAT)
	return
}

// Document decodes every table.
func (r *Reader) Document() (*Document, error) {
	if r.buf == nil {
		return nil, errClosed
	}

	doc := NewDocument(r.variant)
	doc.ordered = true
	for i := range r.dir {
		t, err := r.ReadTable(i)
		if err != nil {
			return nil, err
		}
		if err := doc.attach(t); err != nil {
			return nil, &FormatError{Offset: int(r.dir[i].Offset), Err: err}
		}
	}
	return doc, nil
}

// skipNamePrefix consumes the 8-byte name stored before the key block of
// a non-MAIN table. A key block tag at the cursor means there is none.
func (r *Reader) skipNamePrefix(s *Scanner, ent DirEntry) error {
	if bytes.Equal(s.Peek(4), TagTKEY[:]) {
		return nil
	}

	prefix := s.Peek(nameSize)
	if len(prefix) < nameSize {
		return &FormatError{Offset: s.Pos(), Reason: fmt.Sprintf("truncated name prefix of table %s", ent.Name)}
	}
	if name := decodeName(prefix); !strings.EqualFold(name, ent.Name) {
		return &FormatError{Offset: s.Pos(), Reason: fmt.Sprintf("table name prefix %q does not match directory entry %q", name, ent.Name)}
	}
	return s.Skip(nameSize)
}

func (r *Reader) decodeTable(name string, keys, values []byte) (*Table, error) {
	kb := parseKeyBlock(keys, r.f)
	idx := newTerminatorIndex(values, r.f.unit)

	t := newTable(name, r.f.keys)
	t.entries = make([]Entry, 0, kb.Len())

	for i, off := range kb.offsets {
		k := kb.keys[i]

		raw, ok := idx.span(off)
		if !ok {
			return nil, &KeyError{
				Table: name,
				Key:   k,
				Err:   fmt.Errorf("%w: offset %d beyond %d-byte value block", ErrUnterminatedValue, off, len(values)),
			}
		}

		s, cs, ok := decodeValue(raw, r.o.Charset, r.o.Fallback)
		if !ok {
			r.warnings = append(r.warnings, &EncodingError{Table: name, Key: k, Charset: cs.name})
			r.o.Logger.Warn("lossy value", "table", name, "key", k.String(), "charset", cs.name)
		} else if cs != r.o.Charset {
			r.o.Logger.Debug("fallback charset", "table", name, "key", k.String(), "charset", cs.name)
		}
		if r.o.CodeTable != nil {
			s = r.o.CodeTable.Decode(s)
		}

		if err := t.load(k, s); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Decode is a shortcut for NewReader(buf, o) followed by Document.
func Decode(buf []byte, o *ReaderOptions) (*Document, error) {
	r, err := NewReader(buf, o)
	if err != nil {
		return nil, err
	}
	return r.Document()
}

// --------------------------------------------------------------------

// File is a Reader over a read-only memory mapping of a file.
type File struct {
	*Reader

	file *os.File
	mm   mmap.MMap
}

// Open maps the file at path and prepares a reader for it.
func Open(path string, o *ReaderOptions) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		_ = f.Close()
		return nil, &FormatError{Reason: "empty file", Err: ErrUnrecognized}
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r, err := NewReader(mm, o)
	if err != nil {
		_ = mm.Unmap()
		_ = f.Close()
		return nil, err
	}
	return &File{Reader: r, file: f, mm: mm}, nil
}

// Close unmaps and closes the file. Tables and documents decoded before
// Close stay valid.
func (f *File) Close() error {
	if f.mm == nil {
		return errClosed
	}
	err := f.mm.Unmap()
	if e := f.file.Close(); err == nil {
		err = e
	}
	f.mm = nil
	f.buf, f.dir = nil, nil
	return err
}

// ReadFile decodes the file at path.
func ReadFile(path string, o *ReaderOptions) (*Document, error) {
	f, err := Open(path, o)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Document()
}
