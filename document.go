package gxt

import (
	"fmt"
	"strings"
)

// Entry is a single key/value pair.
type Entry struct {
	Key   Key
	Value string
}

// Table is a named, ordered list of entries with unique keys. Only a
// decoded hashed-key table may repeat a hash.
type Table struct {
	name    string
	kind    KeyKind
	entries []Entry
	index   map[Key]int // by Key.id()
}

func newTable(name string, kind KeyKind) *Table {
	return &Table{name: name, kind: kind, index: make(map[Key]int)}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// KeyKind returns the kind of keys the table holds.
func (t *Table) KeyKind() KeyKind { return t.kind }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entry returns the i-th entry.
func (t *Table) Entry(i int) Entry { return t.entries[i] }

// Entries returns a copy of all entries in order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Get looks up a value by key. Named keys match case-insensitively.
func (t *Table) Get(k Key) (string, bool) {
	if i, ok := t.index[k.id()]; ok {
		return t.entries[i].Value, true
	}
	return "", false
}

// Add appends an entry. It fails with ErrDuplicateKey when the key exists.
func (t *Table) Add(k Key, value string) error {
	if err := k.validate(t.kind); err != nil {
		return err
	}
	if err := validateText(value); err != nil {
		return err
	}
	return t.add(k, value)
}

// Set updates the value of an existing key or appends a new entry.
func (t *Table) Set(k Key, value string) error {
	if err := k.validate(t.kind); err != nil {
		return err
	}
	if err := validateText(value); err != nil {
		return err
	}
	if i, ok := t.index[k.id()]; ok {
		t.entries[i].Value = value
		return nil
	}
	return t.add(k, value)
}

// Delete removes an entry and reports whether it existed.
func (t *Table) Delete(k Key) bool {
	i, ok := t.index[k.id()]
	if !ok {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	t.reindex()
	return true
}

func (t *Table) add(k Key, value string) error {
	id := k.id()
	if _, ok := t.index[id]; ok {
		return &KeyError{Table: t.name, Key: k, Err: ErrDuplicateKey}
	}
	t.index[id] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: k, Value: value})
	return nil
}

// load appends a decoded entry. Named keys must be unique; repeated
// hashes are kept in stream order and lookups resolve to the first one.
func (t *Table) load(k Key, value string) error {
	if k.kind != HashedKeys {
		return t.add(k, value)
	}
	if _, ok := t.index[k.id()]; !ok {
		t.index[k.id()] = len(t.entries)
	}
	t.entries = append(t.entries, Entry{Key: k, Value: value})
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[Key]int, len(t.entries))
	for i, e := range t.entries {
		if _, ok := t.index[e.Key.id()]; !ok {
			t.index[e.Key.id()] = i
		}
	}
}

func validateValue(v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return fmt.Errorf("%w: value %q contains a null character", ErrInvalidValue, v)
	}
	return nil
}

// validateText additionally rejects line breaks, which the textual source
// format cannot carry.
func validateText(v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("%w: value %q contains a line break", ErrInvalidValue, v)
	}
	return validateValue(v)
}

// --------------------------------------------------------------------

// Document is an ordered set of tables decoded from or destined for one
// variant.
type Document struct {
	variant Variant
	tables  []*Table
	index   map[string]int // by upper-cased name
	ordered bool           // table order fixed by a decoded stream
}

// NewDocument creates an empty document for variant v.
func NewDocument(v Variant) *Document {
	return &Document{variant: v, index: make(map[string]int)}
}

// Variant returns the document variant.
func (d *Document) Variant() Variant { return d.variant }

// KeyKind returns the key kind of the document's variant.
func (d *Document) KeyKind() KeyKind { return d.variant.KeyKind() }

// NumTables returns the number of tables.
func (d *Document) NumTables() int { return len(d.tables) }

// Tables returns the tables in document order.
func (d *Document) Tables() []*Table {
	return append([]*Table(nil), d.tables...)
}

// Table returns the named table or nil. Names match case-insensitively.
func (d *Document) Table(name string) *Table {
	if i, ok := d.index[strings.ToUpper(name)]; ok {
		return d.tables[i]
	}
	return nil
}

// Main returns the MAIN table or nil.
func (d *Document) Main() *Table { return d.Table(MainTable) }

// Len returns the number of entries across all tables.
func (d *Document) Len() int {
	n := 0
	for _, t := range d.tables {
		n += t.Len()
	}
	return n
}

// AddTable appends a new empty table. Names are 1-7 characters of
// [0-9A-Za-z_].
func (d *Document) AddTable(name string) (*Table, error) {
	if err := validateTableName(name); err != nil {
		return nil, err
	}
	return d.addTable(name)
}

// RemoveTable drops the named table and reports whether it existed.
func (d *Document) RemoveTable(name string) bool {
	i, ok := d.index[strings.ToUpper(name)]
	if !ok {
		return false
	}
	d.tables = append(d.tables[:i], d.tables[i+1:]...)
	d.index = make(map[string]int, len(d.tables))
	for j, t := range d.tables {
		d.index[strings.ToUpper(t.name)] = j
	}
	return true
}

// Equal reports whether both documents hold the same tables and entries
// in the same order.
func (d *Document) Equal(o *Document) bool {
	if d.variant != o.variant || len(d.tables) != len(o.tables) {
		return false
	}
	for i, t := range d.tables {
		u := o.tables[i]
		if t.name != u.name || len(t.entries) != len(u.entries) {
			return false
		}
		for j, e := range t.entries {
			if e != u.entries[j] {
				return false
			}
		}
	}
	return true
}

func (d *Document) addTable(name string) (*Table, error) {
	id := strings.ToUpper(name)
	if _, ok := d.index[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, name)
	}
	t := newTable(name, d.KeyKind())
	d.index[id] = len(d.tables)
	d.tables = append(d.tables, t)
	return t, nil
}

// tableOrAdd returns the named table, creating it when missing.
func (d *Document) tableOrAdd(name string) (*Table, error) {
	if t := d.Table(name); t != nil {
		return t, nil
	}
	return d.addTable(name)
}

func validateTableName(name string) error {
	if len(name) == 0 || len(name) > maxNameLen {
		return fmt.Errorf("%w: name %q must be 1-%d characters", ErrInvalidTable, name, maxNameLen)
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return fmt.Errorf("%w: name %q contains %q", ErrInvalidTable, name, name[i])
		}
	}
	return nil
}

func isNameChar(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

// attach appends a decoded table.
func (d *Document) attach(t *Table) error {
	id := strings.ToUpper(t.name)
	if _, ok := d.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTable, t.name)
	}
	d.index[id] = len(d.tables)
	d.tables = append(d.tables, t)
	return nil
}
