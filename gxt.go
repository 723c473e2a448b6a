package gxt

import (
	"errors"
	"fmt"
	"strings"
)

// Tag is a 4-byte ASCII block identifier.
type Tag [4]byte

// String returns the tag as text.
func (t Tag) String() string { return string(t[:]) }

// Block tags.
var (
	TagTABL = Tag{'T', 'A', 'B', 'L'}
	TagTKEY = Tag{'T', 'K', 'E', 'Y'}
	TagTDAT = Tag{'T', 'D', 'A', 'T'}
)

const (
	blockHeaderSize = 8  // tag + length
	dirEntrySize    = 12 // name + offset
	nameSize        = 8  // null-padded ASCII name
	maxNameLen      = nameSize - 1
	fileHeaderSize  = 4 // version + bits per char

	headerVersion = 4
)

// MainTable is the name of the table which is always stored first.
const MainTable = "MAIN"

var (
	// ErrUnrecognized is returned when the stream header matches no variant.
	ErrUnrecognized = errors.New("gxt: unrecognized header")
	// ErrMalformed is the default cause of a FormatError.
	ErrMalformed = errors.New("gxt: malformed stream")
	// ErrBlockNotFound is returned when a block tag is missing.
	ErrBlockNotFound = errors.New("gxt: block not found")
	// ErrTruncatedHeader is returned when a block header is cut short.
	ErrTruncatedHeader = errors.New("gxt: truncated block header")
	// ErrTruncatedBlock is returned when a block payload exceeds the stream.
	ErrTruncatedBlock = errors.New("gxt: truncated block payload")
	// ErrDuplicateKey is returned when a key occurs twice in a table.
	ErrDuplicateKey = errors.New("gxt: duplicate key")
	// ErrDuplicateTable is returned when a table name occurs twice.
	ErrDuplicateTable = errors.New("gxt: duplicate table")
	// ErrKeyWithoutTable is returned when a textual entry precedes every section.
	ErrKeyWithoutTable = errors.New("gxt: key without table")
	// ErrUnterminatedValue is returned when a value offset points past its block.
	ErrUnterminatedValue = errors.New("gxt: unterminated value")
	// ErrFallbackExhausted marks a value that no charset could decode cleanly.
	ErrFallbackExhausted = errors.New("gxt: encoding fallback exhausted")
	// ErrInvalidKey is returned for keys which cannot be stored by a variant.
	ErrInvalidKey = errors.New("gxt: invalid key")
	// ErrInvalidValue is returned for values containing a null code unit.
	ErrInvalidValue = errors.New("gxt: invalid value")
	// ErrInvalidTable is returned for bad table names or layouts.
	ErrInvalidTable = errors.New("gxt: invalid table")
	// ErrUnbalancedTilde is returned for textual values with an odd number of '~'.
	ErrUnbalancedTilde = errors.New("gxt: unbalanced token markers")
	// ErrSyntax is returned for textual lines that are neither a section,
	// an entry nor a comment.
	ErrSyntax = errors.New("gxt: syntax error")
)

var (
	errClosed = errors.New("gxt: is closed")
	errBadTag = errors.New("gxt: unexpected block tag")
)

// FormatError reports an unrecognized or malformed stream.
type FormatError struct {
	Offset int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("gxt: bad format at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("gxt: bad format at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error {
	if e.Err == nil {
		return ErrMalformed
	}
	return e.Err
}

// BlockError reports a structural problem with a tagged block.
type BlockError struct {
	Tag    Tag
	Offset int
	Err    error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d", e.Err, e.Tag, e.Offset)
}

func (e *BlockError) Unwrap() error { return e.Err }

// KeyError identifies the table and key an error refers to.
type KeyError struct {
	Table string
	Key   Key
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v: %s in table %s", e.Err, e.Key, e.Table)
}

func (e *KeyError) Unwrap() error { return e.Err }

// EncodingError reports a value that was degraded to lossy text.
type EncodingError struct {
	Table   string
	Key     Key
	Charset string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v: %s in table %s (lossy %s)", ErrFallbackExhausted, e.Key, e.Table, e.Charset)
}

func (e *EncodingError) Unwrap() error { return ErrFallbackExhausted }

// ParseError reports a problem with a line of textual source.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gxt: line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// --------------------------------------------------------------------

// Variant identifies one of the supported on-disk layouts.
type Variant uint8

// Supported variants.
const (
	// VariantUnknown is the zero value.
	VariantUnknown Variant = iota
	// VariantA has no directory, named keys and UTF-16 values.
	VariantA
	// VariantB adds a table directory to VariantA.
	VariantB
	// VariantC has a header, a directory, hashed keys and 8-bit values.
	VariantC
	// VariantD has a header, a directory, hashed keys and UTF-16 values.
	VariantD
)

func (v Variant) String() string {
	switch v {
	case VariantA:
		return "A"
	case VariantB:
		return "B"
	case VariantC:
		return "C"
	case VariantD:
		return "D"
	}
	return "unknown"
}

// ParseVariant accepts a variant letter or the game lineage it is known
// by (iii, vc, sa, iv).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "iii", "lc":
		return VariantA, nil
	case "b", "vc":
		return VariantB, nil
	case "c", "sa":
		return VariantC, nil
	case "d", "iv":
		return VariantD, nil
	}
	return VariantUnknown, fmt.Errorf("gxt: unknown variant %q", s)
}

// HasDirectory reports whether the variant stores a TABL block.
func (v Variant) HasDirectory() bool { return v.format().directory }

// KeyKind returns the key representation used by the variant.
func (v Variant) KeyKind() KeyKind { return v.format().keys }

// Hash computes the key hash the variant uses for named keys. It returns
// 0 for named-key variants.
func (v Variant) Hash(name string) uint32 {
	if h := v.format().hasher; h != nil {
		return h(name)
	}
	return 0
}

func (v Variant) isValid() bool { return v >= VariantA && v <= VariantD }

// format is the per-variant configuration driving the shared codec.
type format struct {
	header    []byte // file header, nil when absent
	directory bool
	keys      KeyKind
	keySize   int // key block record size
	unit      int // null terminator width
	charset   *Charset
	fallback  []*Charset
	order     TableOrder
	hasher    func(string) uint32
}

var formats = [...]format{
	VariantA: {
		keys:    NamedKeys,
		keySize: 12,
		unit:    2,
		charset: UTF16LE,
	},
	VariantB: {
		directory: true,
		keys:      NamedKeys,
		keySize:   12,
		unit:      2,
		charset:   UTF16LE,
		order:     SortByName,
	},
	VariantC: {
		header:    []byte{headerVersion, 0, 8, 0},
		directory: true,
		keys:      HashedKeys,
		keySize:   8,
		unit:      1,
		charset:   UTF8,
		fallback:  []*Charset{GBK, Windows1252},
		order:     SortByName,
		hasher:    CRCHash,
	},
	VariantD: {
		header:    []byte{headerVersion, 0, 16, 0},
		directory: true,
		keys:      HashedKeys,
		keySize:   8,
		unit:      2,
		charset:   UTF16LE,
		order:     InsertionOrder,
		hasher:    JoaatHash,
	},
}

func (v Variant) format() *format {
	if !v.isValid() {
		return &formats[VariantUnknown]
	}
	return &formats[v]
}

// --------------------------------------------------------------------

// TableOrder controls how non-MAIN tables are ordered on encode.
type TableOrder uint8

// Supported table orders.
const (
	// DefaultOrder keeps the order of decoded documents and otherwise
	// uses the order the variant's reference builder uses.
	DefaultOrder TableOrder = iota
	// InsertionOrder keeps document order.
	InsertionOrder
	// SortByName sorts tables by byte-wise name.
	SortByName
	unknownOrder
)

func (o TableOrder) isValid() bool { return o < unknownOrder }

// ParseTableOrder parses "default", "insertion" or "name".
func ParseTableOrder(s string) (TableOrder, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return DefaultOrder, nil
	case "insertion":
		return InsertionOrder, nil
	case "name":
		return SortByName, nil
	}
	return DefaultOrder, fmt.Errorf("gxt: unknown table order %q", s)
}

// Compression is the compression codec applied to textual streams.
type Compression byte

func (c Compression) isValid() bool {
	return c >= NoCompression && c < unknownCompression
}

// Supported compression codecs
const (
	NoCompression Compression = iota
	SnappyCompression
	ZstdCompression
	LZ4Compression
	unknownCompression
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZstdCompression:
		return "zstd"
	case LZ4Compression:
		return "lz4"
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

// ParseCompression parses a codec name.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoCompression, nil
	case "snappy":
		return SnappyCompression, nil
	case "zstd":
		return ZstdCompression, nil
	case "lz4":
		return LZ4Compression, nil
	}
	return NoCompression, fmt.Errorf("gxt: unknown compression %q", s)
}
