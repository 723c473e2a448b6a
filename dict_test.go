package gxt_test

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Lzh102938/gxt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dictionary", func() {
	It("should load name lists", func() {
		names, err := gxt.LoadNameList(strings.NewReader("\uFEFFGM_OVR\r\n; comment\n\n  INTRO  \ngm_ovr\n"), gxt.VariantC)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(HaveLen(2))
		name, ok := names.Lookup(gxt.CRCHash("GM_OVR"))
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("GM_OVR"))
		name, ok = names.Lookup(gxt.CRCHash("INTRO"))
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("INTRO"))

		_, err = gxt.LoadNameList(strings.NewReader("BAD NAME\n"), gxt.VariantC)
		Expect(err).To(MatchError(`gxt: name list line 1: gxt: invalid key: "BAD NAME"`))

		_, err = gxt.LoadNameList(strings.NewReader("X\n"), gxt.VariantB)
		Expect(err).To(MatchError("gxt: variant B has no key hashes"))
	})

	It("should keep the first name per hash", func() {
		names := make(gxt.NameList)
		Expect(names.Add(gxt.VariantD, "Intro")).To(BeTrue())
		Expect(names.Add(gxt.VariantD, "INTRO")).To(BeFalse())
		Expect(names[gxt.JoaatHash("intro")]).To(Equal("Intro"))
	})

	It("should collect names from named documents", func() {
		names := gxt.CollectNames(seedDocument(gxt.VariantB), gxt.VariantD)
		Expect(names).To(HaveLen(7))
		Expect(names[gxt.JoaatHash("GM_OVR")]).To(Equal("GM_OVR"))
	})

	It("should store dictionaries", func() {
		dir, err := os.MkdirTemp("", "gxt-dict")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "names.cdb")
		Expect(gxt.WriteDictionary(path, gxt.CollectNames(seedDocument(gxt.VariantB), gxt.VariantC))).To(Succeed())

		dict, err := gxt.OpenDictionary(path)
		Expect(err).NotTo(HaveOccurred())
		defer dict.Close()

		name, ok := dict.Lookup(gxt.CRCHash("INTRO"))
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("INTRO"))
		_, ok = dict.Lookup(gxt.CRCHash("MISSING"))
		Expect(ok).To(BeFalse())

		doc, err := gxt.ParseText([]byte("[MAIN]\nINTRO=hi\n"), &gxt.TextOptions{Variant: gxt.VariantC})
		Expect(err).NotTo(HaveOccurred())
		Expect(gxt.RenderText(doc, &gxt.TextOptions{Dictionary: dict})).To(Equal("[MAIN]\nINTRO=hi\n"))
	})
})
