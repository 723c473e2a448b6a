package gxt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/colinmarc/cdb"
)

// Dictionary resolves key hashes back to the names they were made from.
type Dictionary interface {
	Lookup(hash uint32) (string, bool)
}

// NameList is an in-memory Dictionary.
type NameList map[uint32]string

// Lookup implements Dictionary.
func (l NameList) Lookup(hash uint32) (string, bool) {
	name, ok := l[hash]
	return name, ok
}

// Add hashes name with the variant hasher and records it. The first name
// recorded for a hash wins; Add reports whether name was stored.
func (l NameList) Add(v Variant, name string) bool {
	h := v.Hash(name)
	if _, ok := l[h]; ok {
		return false
	}
	l[h] = name
	return true
}

// LoadNameList reads one key name per line and hashes each with the
// variant hasher. Blank lines and lines starting with ';' are skipped.
func LoadNameList(r io.Reader, v Variant) (NameList, error) {
	if v.KeyKind() != HashedKeys {
		return nil, fmt.Errorf("gxt: variant %s has no key hashes", v)
	}

	l := make(NameList)
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		name := strings.TrimSpace(s.Text())
		if line == 1 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if name == "" || name[0] == ';' {
			continue
		}
		for i := 0; i < len(name); i++ {
			if !isNameChar(name[i]) {
				return nil, fmt.Errorf("gxt: name list line %d: %w: %q", line, ErrInvalidKey, name)
			}
		}
		l.Add(v, name)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// CollectNames builds a NameList from the keys of a named-key document,
// hashed as variant v would hash them.
func CollectNames(doc *Document, v Variant) NameList {
	l := make(NameList)
	for _, t := range doc.tables {
		for _, e := range t.entries {
			if e.Key.kind == NamedKeys {
				l.Add(v, e.Key.name)
			}
		}
	}
	return l
}

// --------------------------------------------------------------------

// CDBDictionary is a Dictionary backed by a constant database file,
// keyed by the little-endian hash.
type CDBDictionary struct {
	db *cdb.CDB
}

// OpenDictionary opens a dictionary written by WriteDictionary.
func OpenDictionary(path string) (*CDBDictionary, error) {
	db, err := cdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &CDBDictionary{db: db}, nil
}

// Lookup implements Dictionary.
func (d *CDBDictionary) Lookup(hash uint32) (string, bool) {
	var key [4]byte
	binary.LittleEndian.PutUint32(key[:], hash)

	val, err := d.db.Get(key[:])
	if err != nil || val == nil {
		return "", false
	}
	return string(val), true
}

// Close closes the underlying database.
func (d *CDBDictionary) Close() error { return d.db.Close() }

// WriteDictionary stores names as a constant database at path, in hash
// order.
func WriteDictionary(path string, names NameList) error {
	w, err := cdb.Create(path)
	if err != nil {
		return err
	}

	hashes := make([]uint32, 0, len(names))
	for h := range names {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	var key [4]byte
	for _, h := range hashes {
		binary.LittleEndian.PutUint32(key[:], h)
		if err := w.Put(key[:], []byte(names[h])); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}
