package gxt_test

import (
	"errors"

	"github.com/Lzh102938/gxt"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Document", func() {
	var subject *gxt.Document

	BeforeEach(func() {
		subject = seedDocument(gxt.VariantB)
	})

	It("should init", func() {
		Expect(subject.Variant()).To(Equal(gxt.VariantB))
		Expect(subject.KeyKind()).To(Equal(gxt.NamedKeys))
		Expect(subject.NumTables()).To(Equal(3))
		Expect(subject.Len()).To(Equal(7))
		Expect(subject.Main().Name()).To(Equal("MAIN"))
	})

	It("should find tables case-insensitively", func() {
		Expect(subject.Table("alpha")).NotTo(BeNil())
		Expect(subject.Table("ALPHA").Name()).To(Equal("ALPHA"))
		Expect(subject.Table("BETA")).To(BeNil())
	})

	It("should add tables", func() {
		_, err := subject.AddTable("Zeta")
		Expect(errors.Is(err, gxt.ErrDuplicateTable)).To(BeTrue())

		_, err = subject.AddTable("EIGHTCHR")
		Expect(errors.Is(err, gxt.ErrInvalidTable)).To(BeTrue())

		_, err = subject.AddTable("")
		Expect(errors.Is(err, gxt.ErrInvalidTable)).To(BeTrue())

		t, err := subject.AddTable("NEW_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.KeyKind()).To(Equal(gxt.NamedKeys))
		Expect(subject.Tables()[3]).To(Equal(t))
	})

	It("should remove tables", func() {
		Expect(subject.RemoveTable("zeta")).To(BeTrue())
		Expect(subject.RemoveTable("zeta")).To(BeFalse())
		Expect(subject.NumTables()).To(Equal(2))
		Expect(subject.Table("ALPHA")).NotTo(BeNil())
		Expect(subject.Tables()[1].Name()).To(Equal("ALPHA"))
	})

	It("should compare", func() {
		Expect(subject.Equal(seedDocument(gxt.VariantB))).To(BeTrue())
		Expect(subject.Equal(seedDocument(gxt.VariantA))).To(BeFalse())

		other := seedDocument(gxt.VariantB)
		Expect(other.Main().Set(gxt.NamedKey("EMPTY"), "full")).To(Succeed())
		Expect(subject.Equal(other)).To(BeFalse())
	})

	Describe("Table", func() {
		var main *gxt.Table

		BeforeEach(func() {
			main = subject.Main()
		})

		It("should get", func() {
			Expect(get(main, gxt.NamedKey("gm_ovr"))).To(Equal("Game Over"))
			_, ok := main.Get(gxt.NamedKey("NOPE"))
			Expect(ok).To(BeFalse())
			Expect(main.Entry(0).Key).To(Equal(gxt.NamedKey("GM_OVR")))
		})

		It("should add", func() {
			err := main.Add(gxt.NamedKey("Gm_Ovr"), "again")
			Expect(errors.Is(err, gxt.ErrDuplicateKey)).To(BeTrue())
			Expect(err).To(MatchError("gxt: duplicate key: Gm_Ovr in table MAIN"))

			err = main.Add(gxt.HashKey(1), "x")
			Expect(errors.Is(err, gxt.ErrInvalidKey)).To(BeTrue())

			err = main.Add(gxt.NamedKey("NUL"), "a\x00b")
			Expect(errors.Is(err, gxt.ErrInvalidValue)).To(BeTrue())

			Expect(main.Add(gxt.NamedKey("NEW"), "x")).To(Succeed())
			Expect(main.Len()).To(Equal(5))
		})

		It("should reject line breaks", func() {
			for _, v := range []string{"a\nb", "a\rb", "a\r\n"} {
				err := main.Add(gxt.NamedKey("LINE"), v)
				Expect(errors.Is(err, gxt.ErrInvalidValue)).To(BeTrue(), "value %q", v)
				err = main.Set(gxt.NamedKey("INTRO"), v)
				Expect(errors.Is(err, gxt.ErrInvalidValue)).To(BeTrue(), "value %q", v)
			}
			Expect(main.Len()).To(Equal(4))

			doc, err := gxt.ParseText([]byte(gxt.RenderText(subject, nil)), &gxt.TextOptions{Variant: gxt.VariantB})
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Equal(subject)).To(BeTrue())
		})

		It("should set", func() {
			Expect(main.Set(gxt.NamedKey("INTRO"), "hi")).To(Succeed())
			Expect(main.Set(gxt.NamedKey("LAST"), "end")).To(Succeed())
			Expect(main.Len()).To(Equal(5))
			Expect(main.Entry(1).Value).To(Equal("hi"))
			Expect(main.Entry(4).Key).To(Equal(gxt.NamedKey("LAST")))
		})

		It("should delete", func() {
			Expect(main.Delete(gxt.NamedKey("INTRO"))).To(BeTrue())
			Expect(main.Delete(gxt.NamedKey("INTRO"))).To(BeFalse())
			Expect(main.Len()).To(Equal(3))
			Expect(get(main, gxt.NamedKey("CHS"))).To(Equal("你好，世界"))
		})

		It("should return entry copies", func() {
			entries := main.Entries()
			entries[0].Value = "changed"
			Expect(main.Entry(0).Value).To(Equal("Game Over"))
		})
	})
})
