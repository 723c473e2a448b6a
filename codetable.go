package gxt

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CodeTable remaps the private code points a localized font uses back to
// the characters they display. Only runes above U+007F are remapped.
//
// The textual form has one mapping per line: the displayed character, a
// tab, and the code point in hexadecimal.
type CodeTable struct {
	toChar map[rune]rune
	toCode map[rune]rune
}

// NewCodeTable returns an empty table.
func NewCodeTable() *CodeTable {
	return &CodeTable{toChar: make(map[rune]rune), toCode: make(map[rune]rune)}
}

// LoadCodeTable reads a table in textual form.
func LoadCodeTable(r io.Reader) (*CodeTable, error) {
	t := NewCodeTable()
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		text := strings.TrimRight(s.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 2 || utf8.RuneCountInString(fields[0]) != 1 {
			return nil, fmt.Errorf("gxt: code table line %d: want CHAR<TAB>HEX, got %q", line, text)
		}
		code, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 16, 32)
		if err != nil || code > utf8.MaxRune {
			return nil, fmt.Errorf("gxt: code table line %d: bad code point %q", line, fields[1])
		}
		ch, _ := utf8.DecodeRuneInString(fields[0])
		t.Map(rune(code), ch)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Map records that code displays as char.
func (t *CodeTable) Map(code, char rune) {
	t.toChar[code] = char
	t.toCode[char] = code
}

// Len returns the number of mappings.
func (t *CodeTable) Len() int { return len(t.toChar) }

// Decode replaces code points with the characters they display.
func (t *CodeTable) Decode(s string) string { return remap(s, t.toChar) }

// Encode replaces characters with their code points.
func (t *CodeTable) Encode(s string) string { return remap(s, t.toCode) }

// WriteTo writes the table in textual form, ordered by code point.
func (t *CodeTable) WriteTo(w io.Writer) (int64, error) {
	codes := make([]rune, 0, len(t.toChar))
	for c := range t.toChar {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	bw := bufio.NewWriter(w)
	var n int64
	for _, c := range codes {
		m, err := fmt.Fprintf(bw, "%c\t%04x\n", t.toChar[c], c)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

func remap(s string, m map[rune]rune) string {
	if len(m) == 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r > 0x7F {
			if x, ok := m[r]; ok {
				return x
			}
		}
		return r
	}, s)
}
