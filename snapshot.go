package gxt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// snapshot is the CBOR form of a document.
type snapshot struct {
	Variant string          `cbor:"variant"`
	Tables  []snapshotTable `cbor:"tables"`
}

type snapshotTable struct {
	Name    string          `cbor:"name"`
	Entries []snapshotEntry `cbor:"entries"`
}

// snapshotEntry holds either Name or Hash, depending on the variant.
type snapshotEntry struct {
	Name  string `cbor:"name,omitempty"`
	Hash  uint32 `cbor:"hash,omitempty"`
	Value string `cbor:"value"`
}

var (
	snapEncMode cbor.EncMode
	snapDecMode cbor.DecMode
)

func init() {
	var err error
	if snapEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic("gxt: CBOR encoder initialization failed: " + err.Error())
	}
	if snapDecMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("gxt: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalSnapshot encodes doc as deterministic CBOR. Equal documents
// produce identical bytes.
func MarshalSnapshot(doc *Document) ([]byte, error) {
	return snapEncMode.Marshal(newSnapshot(doc))
}

// UnmarshalSnapshot decodes a snapshot produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Document, error) {
	var snap snapshot
	if err := snapDecMode.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	v, err := ParseVariant(snap.Variant)
	if err != nil {
		return nil, err
	}

	doc := NewDocument(v)
	doc.ordered = true
	for _, st := range snap.Tables {
		t, err := doc.AddTable(st.Name)
		if err != nil {
			return nil, fmt.Errorf("gxt: snapshot: %w", err)
		}
		for _, se := range st.Entries {
			k := NamedKey(se.Name)
			if v.KeyKind() == HashedKeys {
				k = HashKey(se.Hash)
			}
			if err := k.validate(t.kind); err != nil {
				return nil, fmt.Errorf("gxt: snapshot: %w", err)
			}
			if err := validateValue(se.Value); err != nil {
				return nil, fmt.Errorf("gxt: snapshot: %w", err)
			}
			if err := t.load(k, se.Value); err != nil {
				return nil, fmt.Errorf("gxt: snapshot: %w", err)
			}
		}
	}
	return doc, nil
}

// Fingerprint returns the BLAKE3 digest of the document snapshot.
func (d *Document) Fingerprint() [32]byte {
	h := blake3.New()
	if err := snapEncMode.NewEncoder(h).Encode(newSnapshot(d)); err != nil {
		panic("gxt: snapshot encoding failed: " + err.Error())
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func newSnapshot(doc *Document) *snapshot {
	snap := &snapshot{
		Variant: doc.variant.String(),
		Tables:  make([]snapshotTable, 0, len(doc.tables)),
	}
	for _, t := range doc.tables {
		st := snapshotTable{Name: t.name, Entries: make([]snapshotEntry, 0, len(t.entries))}
		for _, e := range t.entries {
			st.Entries = append(st.Entries, snapshotEntry{Name: e.Key.name, Hash: e.Key.hash, Value: e.Value})
		}
		snap.Tables = append(snap.Tables, st)
	}
	return snap
}
