package gxt

import (
	"bytes"
	"encoding/binary"
)

// DirEntry is a decoded TABL record.
type DirEntry struct {
	Name   string
	Offset uint32 // absolute offset of the table, name prefix included
}

// parseDirectory decodes len(payload)/12 records; a trailing partial
// record is ignored.
func parseDirectory(payload []byte) []DirEntry {
	n := len(payload) / dirEntrySize
	entries := make([]DirEntry, n)
	for i := range entries {
		rec := payload[i*dirEntrySize : (i+1)*dirEntrySize]
		entries[i] = DirEntry{
			Name:   decodeName(rec[:nameSize]),
			Offset: binary.LittleEndian.Uint32(rec[nameSize:]),
		}
	}
	return entries
}

// directory is a reserved TABL payload whose records are patched once the
// table layout is known.
type directory struct {
	buf []byte
}

func newDirectory(n int) *directory {
	return &directory{buf: make([]byte, n*dirEntrySize)}
}

// patch fills record i.
func (d *directory) patch(i int, name string, offset uint32) {
	rec := d.buf[i*dirEntrySize : (i+1)*dirEntrySize]
	putName(rec[:nameSize], name)
	binary.LittleEndian.PutUint32(rec[nameSize:], offset)
}

func (d *directory) bytes() []byte { return d.buf }

// decodeName returns the bytes before the first null.
func decodeName(p []byte) string {
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p)
}

// putName writes a null-padded name into dst.
func putName(dst []byte, name string) {
	n := copy(dst, name)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}
