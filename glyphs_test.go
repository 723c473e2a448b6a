package gxt_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Lzh102938/gxt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("GlyphSet", func() {
	var subject gxt.GlyphSet

	BeforeEach(func() {
		subject = gxt.CollectGlyphs(seedDocument(gxt.VariantB), seedDocument(gxt.VariantD))
	})

	It("should collect sorted non-ASCII glyphs", func() {
		Expect(string(subject)).To(Equal("世你好界，"))
	})

	It("should position glyphs", func() {
		row, col := subject.Position(65)
		Expect(row).To(Equal(1))
		Expect(col).To(Equal(1))
	})

	It("should write grids", func() {
		buf := new(bytes.Buffer)
		Expect(subject.WriteGrid(buf)).To(Succeed())
		Expect(buf.Bytes()).To(Equal([]byte{
			0xFF, 0xFE,
			0x16, 0x4E, 0x60, 0x4F, 0x7D, 0x59, 0x4C, 0x75, 0x0C, 0xFF,
		}))
	})

	It("should break grid rows", func() {
		var sb strings.Builder
		for r := rune(0x4E00); r < 0x4E00+65; r++ {
			sb.WriteRune(r)
		}
		doc := gxt.NewDocument(gxt.VariantB)
		main, err := doc.AddTable("MAIN")
		Expect(err).NotTo(HaveOccurred())
		Expect(main.Add(gxt.NamedKey("K"), sb.String())).To(Succeed())

		buf := new(bytes.Buffer)
		Expect(gxt.CollectGlyphs(doc).WriteGrid(buf)).To(Succeed())
		Expect(buf.Len()).To(Equal(2 + 65*2 + 2))
		Expect(buf.Bytes()[2+64*2 : 2+64*2+2]).To(Equal([]byte{'\n', 0}))
	})

	It("should write tables", func() {
		buf := new(bytes.Buffer)
		Expect(subject.WriteTable(buf)).To(Succeed())
		Expect(strings.Split(strings.TrimSpace(buf.String()), "\n")).To(Equal([]string{
			"m_Table[0x4E16] = {0,0};",
			"m_Table[0x4F60] = {0,1};",
			"m_Table[0x597D] = {0,2};",
			"m_Table[0x754C] = {0,3};",
			"m_Table[0xFF0C] = {0,4};",
		}))
	})

	It("should write maps", func() {
		buf := new(bytes.Buffer)
		Expect(subject.WriteMap(buf)).To(Succeed())

		m := buf.Bytes()
		Expect(m).To(HaveLen(2 * 65536))
		Expect(m[2*0x41 : 2*0x41+2]).To(Equal([]byte{63, 63}))
		Expect(m[2*0x597D : 2*0x597D+2]).To(Equal([]byte{0, 2}))
		Expect(fmt.Sprint(m[2*0xFF0C], m[2*0xFF0C+1])).To(Equal("0 4"))
	})
})
