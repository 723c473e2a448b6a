package gxt

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// GlyphsPerRow is the number of characters per row of a font atlas.
const GlyphsPerRow = 64

// unmappedGlyph is the row and column stored for characters missing from
// the atlas.
const unmappedGlyph = 63

// GlyphSet is the ascending set of non-ASCII characters a document uses.
// The i-th glyph sits at row i/GlyphsPerRow, column i%GlyphsPerRow.
type GlyphSet []rune

// CollectGlyphs returns the glyphs used by the values of docs.
func CollectGlyphs(docs ...*Document) GlyphSet {
	seen := make(map[rune]struct{})
	for _, doc := range docs {
		for _, t := range doc.tables {
			for _, e := range t.entries {
				for _, r := range e.Value {
					if r > 0x7F {
						seen[r] = struct{}{}
					}
				}
			}
		}
	}

	g := make(GlyphSet, 0, len(seen))
	for r := range seen {
		g = append(g, r)
	}
	sort.Slice(g, func(i, j int) bool { return g[i] < g[j] })
	return g
}

// Position returns the atlas cell of the i-th glyph.
func (g GlyphSet) Position(i int) (row, col int) {
	return i / GlyphsPerRow, i % GlyphsPerRow
}

// WriteGrid writes the glyphs as UTF-16LE text with a byte order mark,
// GlyphsPerRow characters per line.
func (g GlyphSet) WriteGrid(w io.Writer) error {
	bw := bufio.NewWriter(w)
	buf := []byte{0xFF, 0xFE}
	for i, r := range g {
		buf = appendUTF16(buf, string(r))
		if _, col := g.Position(i); col == GlyphsPerRow-1 {
			buf = append(buf, '\n', 0)
		}
		if len(buf) >= 4096 {
			if _, err := bw.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if _, err := bw.Write(buf); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteTable writes one "m_Table[0xCODE] = {row,col};" line per glyph.
func (g GlyphSet) WriteTable(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, r := range g {
		row, col := g.Position(i)
		if _, err := fmt.Fprintf(bw, "m_Table[0x%04X] = {%d,%d};\n", r, row, col); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteMap writes the 65536-entry lookup of row and column bytes indexed
// by code point. Code points without a glyph map to row and column 63.
// Glyphs outside the basic multilingual plane are skipped.
func (g GlyphSet) WriteMap(w io.Writer) error {
	m := make([]byte, 2*0x10000)
	for i := range m {
		m[i] = unmappedGlyph
	}
	for i, r := range g {
		if r >= 0x10000 {
			continue
		}
		row, col := g.Position(i)
		if row > 0xFF {
			return fmt.Errorf("gxt: glyph %U at row %d does not fit the map", r, row)
		}
		m[2*r], m[2*r+1] = byte(row), byte(col)
	}
	_, err := w.Write(m)
	return err
}
