package gxt_test

import (
	"github.com/Lzh102938/gxt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Charset", func() {
	It("should look up names and aliases", func() {
		Expect(gxt.LookupCharset("GBK")).To(Equal(gxt.GBK))
		Expect(gxt.LookupCharset("cp1252")).To(Equal(gxt.Windows1252))
		Expect(gxt.LookupCharset(" utf8 ")).To(Equal(gxt.UTF8))

		_, err := gxt.LookupCharset("ebcdic")
		Expect(err).To(MatchError(`gxt: unknown charset "ebcdic"`))
	})

	It("should list canonical names", func() {
		Expect(gxt.CharsetNames()).To(ConsistOf(
			"big5", "euc-kr", "gb18030", "gbk", "iso-8859-1", "shift_jis",
			"utf-16le", "utf-8", "windows-1250", "windows-1251", "windows-1252",
		))
	})

	It("should expose code unit widths", func() {
		Expect(gxt.UTF16LE.Unit()).To(Equal(2))
		Expect(gxt.Big5.Unit()).To(Equal(1))
		Expect(gxt.ShiftJIS.Name()).To(Equal("shift_jis"))
	})

	It("should round trip supplementary characters in UTF-16", func() {
		doc := gxt.NewDocument(gxt.VariantD)
		main, err := doc.AddTable("MAIN")
		Expect(err).NotTo(HaveOccurred())
		Expect(main.Add(gxt.HashKey(1), "emoji 😀 end")).To(Succeed())

		out, err := gxt.Decode(mustEncode(doc, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Equal(doc)).To(BeTrue())
	})

	It("should fall back on unpaired surrogates", func() {
		stream := concat(
			[]byte{4, 0, 16, 0},
			rawBlock("TABL", concat(name8("MAIN"), u32(24))),
			rawBlock("TKEY", concat(u32(0), u32(1))),
			rawBlock("TDAT", []byte{0x3D, 0xD8, 'a', 0, 0, 0}),
		)
		r, err := gxt.NewReader(stream, nil)
		Expect(err).NotTo(HaveOccurred())
		doc, err := r.Document()
		Expect(err).NotTo(HaveOccurred())
		Expect(get(doc.Main(), gxt.HashKey(1))).To(Equal("\uFFFDa"))
		Expect(r.Warnings()).To(HaveLen(1))
	})
})
