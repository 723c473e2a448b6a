package gxt

import (
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// KeyKind distinguishes named keys from hashed keys.
type KeyKind uint8

// Supported key kinds.
const (
	NamedKeys KeyKind = iota
	HashedKeys
)

func (k KeyKind) String() string {
	if k == HashedKeys {
		return "hashed"
	}
	return "named"
}

// Key identifies an entry within a table. It is either a short ASCII
// name or a 32-bit hash.
type Key struct {
	kind KeyKind
	name string
	hash uint32
}

// NamedKey returns a name key.
func NamedKey(name string) Key { return Key{kind: NamedKeys, name: name} }

// HashKey returns a hash key.
func HashKey(hash uint32) Key { return Key{kind: HashedKeys, hash: hash} }

// Kind returns the key kind.
func (k Key) Kind() KeyKind { return k.kind }

// Name returns the name of a named key.
func (k Key) Name() string { return k.name }

// Hash returns the hash of a hashed key.
func (k Key) Hash() uint32 { return k.hash }

// String renders the key the way the textual format does.
func (k Key) String() string {
	if k.kind == HashedKeys {
		return fmt.Sprintf("%08X", k.hash)
	}
	return k.name
}

// Less orders names byte-wise and hashes numerically.
func (k Key) Less(o Key) bool {
	if k.kind != o.kind {
		return k.kind < o.kind
	}
	if k.kind == HashedKeys {
		return k.hash < o.hash
	}
	return k.name < o.name
}

// id is the uniqueness identity of a key within a table. Names compare
// case-insensitively.
func (k Key) id() Key {
	if k.kind == NamedKeys {
		return Key{name: strings.ToUpper(k.name)}
	}
	return Key{kind: HashedKeys, hash: k.hash}
}

// validate checks that k can be stored by a variant using kind.
func (k Key) validate(kind KeyKind) error {
	if k.kind != kind {
		return fmt.Errorf("%w: %s key %s in a %s-key document", ErrInvalidKey, k.kind, k, kind)
	}
	if k.kind == NamedKeys {
		if len(k.name) == 0 || len(k.name) > maxNameLen {
			return fmt.Errorf("%w: name %q must be 1-%d bytes", ErrInvalidKey, k.name, maxNameLen)
		}
		if strings.IndexByte(k.name, 0) >= 0 {
			return fmt.Errorf("%w: name %q contains a null byte", ErrInvalidKey, k.name)
		}
	}
	return nil
}

// parseHashKey parses an 8-digit hexadecimal hash.
func parseHashKey(s string) (Key, bool) {
	if len(s) != 8 {
		return Key{}, false
	}
	h, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Key{}, false
	}
	return HashKey(uint32(h)), true
}

// --------------------------------------------------------------------

// CRCHash is the key hash of the 8-bit hashed-key lineage: a CRC-32 of
// the upper-cased name, without the final inversion.
func CRCHash(name string) uint32 {
	return ^crc32.ChecksumIEEE([]byte(strings.ToUpper(name)))
}

// JoaatHash is the key hash of the UTF-16 hashed-key lineage: Jenkins'
// one-at-a-time hash of the lower-cased name.
func JoaatHash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		h += uint32(c)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}
