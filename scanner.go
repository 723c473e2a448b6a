package gxt

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Block is a tagged block located inside a stream. Payload aliases the
// scanned buffer.
type Block struct {
	Tag     Tag
	Offset  int // offset of the tag
	Payload []byte
}

// Len returns the declared payload length.
func (b Block) Len() int { return len(b.Payload) }

// End returns the offset just past the payload.
func (b Block) End() int { return b.Offset + blockHeaderSize + len(b.Payload) }

// Scanner locates tagged blocks in a byte slice without copying it.
type Scanner struct {
	buf []byte
	pos int
}

// NewScanner returns a scanner positioned at the start of buf.
func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Pos returns the cursor position.
func (s *Scanner) Pos() int { return s.pos }

// Len returns the size of the underlying buffer.
func (s *Scanner) Len() int { return len(s.buf) }

// Seek moves the cursor to an absolute position.
func (s *Scanner) Seek(pos int) error {
	if pos < 0 || pos > len(s.buf) {
		return &FormatError{Offset: pos, Reason: fmt.Sprintf("seek outside stream of %d bytes", len(s.buf))}
	}
	s.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (s *Scanner) Skip(n int) error { return s.Seek(s.pos + n) }

// Peek returns up to n bytes at the cursor without advancing.
func (s *Scanner) Peek(n int) []byte {
	if rem := len(s.buf) - s.pos; n > rem {
		n = rem
	}
	return s.buf[s.pos : s.pos+n]
}

// Locate scans forward from the cursor for the first occurrence of tag.
// On success the cursor is left at the start of the payload.
func (s *Scanner) Locate(tag Tag) (Block, error) {
	i := bytes.Index(s.buf[s.pos:], tag[:])
	if i < 0 {
		return Block{}, &BlockError{Tag: tag, Offset: s.pos, Err: ErrBlockNotFound}
	}

	off := s.pos + i
	if len(s.buf)-off < blockHeaderSize {
		return Block{}, &BlockError{Tag: tag, Offset: off, Err: ErrTruncatedHeader}
	}

	size := int64(binary.LittleEndian.Uint32(s.buf[off+4:]))
	start := off + blockHeaderSize
	if size > int64(len(s.buf)-start) {
		return Block{}, &BlockError{Tag: tag, Offset: off, Err: ErrTruncatedBlock}
	}

	s.pos = start
	return Block{Tag: tag, Offset: off, Payload: s.buf[start : start+int(size)]}, nil
}

// Expect reads the block at the cursor, which must carry tag. Unlike
// Locate it does not scan.
func (s *Scanner) Expect(tag Tag) (Block, error) {
	if len(s.buf)-s.pos < blockHeaderSize {
		return Block{}, &BlockError{Tag: tag, Offset: s.pos, Err: ErrTruncatedHeader}
	}
	if !bytes.Equal(s.buf[s.pos:s.pos+4], tag[:]) {
		return Block{}, &BlockError{Tag: tag, Offset: s.pos, Err: errBadTag}
	}
	return s.Locate(tag)
}
