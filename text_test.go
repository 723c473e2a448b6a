package gxt_test

import (
	"bytes"
	"errors"

	"github.com/Lzh102938/gxt"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseText", func() {
	parse := func(v gxt.Variant, src string) (*gxt.Document, error) {
		return gxt.ParseText([]byte(src), &gxt.TextOptions{Variant: v})
	}

	It("should parse named entries", func() {
		doc, err := parse(gxt.VariantB, "\xEF\xBB\xBF; comment\r\n[MAIN]\r\nGM_OVR=Game Over\r\n\r\n[SUB]\nK= padded value \n")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.NumTables()).To(Equal(2))
		Expect(doc.Main().Entries()).To(Equal([]gxt.Entry{
			{Key: gxt.NamedKey("GM_OVR"), Value: "Game Over"},
		}))
		Expect(get(doc.Table("SUB"), gxt.NamedKey("K"))).To(Equal(" padded value "))
	})

	It("should parse literal hashes", func() {
		doc, err := parse(gxt.VariantC, "[MAIN]\n8b5c1a2f=Hello\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Main().Entries()).To(Equal([]gxt.Entry{
			{Key: gxt.HashKey(0x8B5C1A2F), Value: "Hello"},
		}))
	})

	It("should hash names with the variant hasher", func() {
		doc, err := parse(gxt.VariantC, "[MAIN]\nGM_OVR=x\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Main().Entry(0).Key).To(Equal(gxt.HashKey(gxt.CRCHash("GM_OVR"))))

		doc, err = parse(gxt.VariantD, "[MAIN]\nGM_OVR=x\n8B5C1A2=short\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Main().Entry(0).Key).To(Equal(gxt.HashKey(gxt.JoaatHash("GM_OVR"))))
		Expect(doc.Main().Entry(1).Key).To(Equal(gxt.HashKey(gxt.JoaatHash("8B5C1A2"))))
	})

	It("should split at the first equals sign", func() {
		doc, err := parse(gxt.VariantB, "[MAIN]\nEQ=a=b\nNONE=\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(get(doc.Main(), gxt.NamedKey("EQ"))).To(Equal("a=b"))
		Expect(get(doc.Main(), gxt.NamedKey("NONE"))).To(Equal(""))
	})

	It("should merge re-opened sections", func() {
		doc, err := parse(gxt.VariantD, "[MAIN]\nA=1\n[SUB]\nB=2\n[main]\nC=3\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.NumTables()).To(Equal(2))
		Expect(doc.Main().Len()).To(Equal(2))
	})

	It("should put sectionless VariantA entries in MAIN", func() {
		doc, err := parse(gxt.VariantA, "GM_OVR=Game Over\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.NumTables()).To(Equal(1))
		Expect(get(doc.Main(), gxt.NamedKey("GM_OVR"))).To(Equal("Game Over"))
	})

	It("should require a variant", func() {
		_, err := gxt.ParseText([]byte("[MAIN]\n"), nil)
		Expect(err).To(MatchError("gxt: cannot parse text for unknown variant"))
	})

	table.DescribeTable("errors",
		func(v gxt.Variant, src string, line int, target error) {
			_, err := parse(v, src)
			Expect(errors.Is(err, target)).To(BeTrue(), "got %v", err)

			var perr *gxt.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Line).To(Equal(line))
		},
		table.Entry("key without table", gxt.VariantB, "; c\nK=v\n", 2, gxt.ErrKeyWithoutTable),
		table.Entry("hashed key without table", gxt.VariantC, "K=v\n", 1, gxt.ErrKeyWithoutTable),
		table.Entry("odd tildes", gxt.VariantB, "[MAIN]\nK=~r~red ~w\n", 2, gxt.ErrUnbalancedTilde),
		table.Entry("syntax", gxt.VariantB, "[MAIN]\n\njust text\n", 3, gxt.ErrSyntax),
		table.Entry("long table name", gxt.VariantB, "[TOOLONGNM]\n", 1, gxt.ErrInvalidTable),
		table.Entry("bad table name", gxt.VariantB, "[A-B]\n", 1, gxt.ErrInvalidTable),
		table.Entry("long key", gxt.VariantB, "[MAIN]\nTOOLONGKEY=v\n", 2, gxt.ErrInvalidKey),
		table.Entry("bad key", gxt.VariantC, "[MAIN]\nA B=v\n", 2, gxt.ErrInvalidKey),
		table.Entry("empty key", gxt.VariantC, "[MAIN]\n=v\n", 2, gxt.ErrInvalidKey),
		table.Entry("duplicate name", gxt.VariantB, "[MAIN]\nK=1\nk=2\n", 3, gxt.ErrDuplicateKey),
		table.Entry("duplicate hash", gxt.VariantD, "[MAIN]\n0000000A=1\n0000000a=2\n", 3, gxt.ErrDuplicateKey),
	)

	It("should identify duplicate keys", func() {
		_, err := parse(gxt.VariantB, "[MAIN]\n[SUB]\nK=1\nK=2\n")
		var kerr *gxt.KeyError
		Expect(errors.As(err, &kerr)).To(BeTrue())
		Expect(kerr.Table).To(Equal("SUB"))
		Expect(kerr.Key).To(Equal(gxt.NamedKey("K")))
	})
})

var _ = Describe("RenderText", func() {
	It("should render MAIN first", func() {
		doc := gxt.NewDocument(gxt.VariantD)
		sub, err := doc.AddTable("SUB")
		Expect(err).NotTo(HaveOccurred())
		Expect(sub.Add(gxt.HashKey(0xAB), "b")).To(Succeed())
		main, err := doc.AddTable("MAIN")
		Expect(err).NotTo(HaveOccurred())
		Expect(main.Add(gxt.HashKey(0x8B5C1A2F), "Hello")).To(Succeed())

		Expect(gxt.RenderText(doc, nil)).To(Equal("[MAIN]\n8B5C1A2F=Hello\n\n[SUB]\n000000AB=b\n"))
	})

	It("should resolve names through dictionaries", func() {
		doc, err := gxt.ParseText([]byte("[MAIN]\nGM_OVR=a\nOTHER=b\n"), &gxt.TextOptions{Variant: gxt.VariantC})
		Expect(err).NotTo(HaveOccurred())

		dict := gxt.NameList{
			gxt.CRCHash("GM_OVR"): "GM_OVR",
			gxt.CRCHash("OTHER"):  "WRONG",
		}
		Expect(gxt.RenderText(doc, &gxt.TextOptions{Dictionary: dict})).To(Equal(
			"[MAIN]\nGM_OVR=a\n" + gxt.HashKey(gxt.CRCHash("OTHER")).String() + "=b\n",
		))
	})

	table.DescribeTable("round trips",
		func(v gxt.Variant) {
			src := seedDocument(v)
			doc, err := gxt.ParseText([]byte(gxt.RenderText(src, nil)), &gxt.TextOptions{Variant: v})
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Equal(src)).To(BeTrue())
		},
		table.Entry("A", gxt.VariantA),
		table.Entry("B", gxt.VariantB),
		table.Entry("C", gxt.VariantC),
		table.Entry("D", gxt.VariantD),
	)

	table.DescribeTable("compressed streams",
		func(c gxt.Compression) {
			src := seedDocument(gxt.VariantB)

			buf := new(bytes.Buffer)
			Expect(gxt.WriteText(buf, src, &gxt.TextOptions{Compression: c})).To(Succeed())
			if c != gxt.NoCompression {
				Expect(buf.String()).NotTo(HavePrefix("[MAIN]"))
			}

			doc, err := gxt.ReadText(buf, &gxt.TextOptions{Variant: gxt.VariantB})
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Equal(src)).To(BeTrue())
		},
		table.Entry("none", gxt.NoCompression),
		table.Entry("snappy", gxt.SnappyCompression),
		table.Entry("zstd", gxt.ZstdCompression),
		table.Entry("lz4", gxt.LZ4Compression),
	)
})
