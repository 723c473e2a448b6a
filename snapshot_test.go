package gxt_test

import (
	"errors"

	"github.com/Lzh102938/gxt"
	"github.com/fxamacker/cbor/v2"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Snapshot", func() {
	table.DescribeTable("round trips",
		func(v gxt.Variant) {
			src := seedDocument(v)
			data, err := gxt.MarshalSnapshot(src)
			Expect(err).NotTo(HaveOccurred())

			doc, err := gxt.UnmarshalSnapshot(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Equal(src)).To(BeTrue())
		},
		table.Entry("A", gxt.VariantA),
		table.Entry("B", gxt.VariantB),
		table.Entry("C", gxt.VariantC),
		table.Entry("D", gxt.VariantD),
	)

	It("should be deterministic", func() {
		a, err := gxt.MarshalSnapshot(seedDocument(gxt.VariantD))
		Expect(err).NotTo(HaveOccurred())
		b, err := gxt.MarshalSnapshot(seedDocument(gxt.VariantD))
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("should validate imported documents", func() {
		snap := func(table string, entries ...map[string]interface{}) []byte {
			data, err := cbor.Marshal(map[string]interface{}{
				"variant": "B",
				"tables":  []interface{}{map[string]interface{}{"name": table, "entries": entries}},
			})
			Expect(err).NotTo(HaveOccurred())
			return data
		}

		_, err := gxt.UnmarshalSnapshot(snap("TWENTY_CHARACTERS_XX"))
		Expect(errors.Is(err, gxt.ErrInvalidTable)).To(BeTrue())

		_, err = gxt.UnmarshalSnapshot(snap("MAIN", map[string]interface{}{"name": "K", "value": "a\x00b"}))
		Expect(errors.Is(err, gxt.ErrInvalidValue)).To(BeTrue())

		_, err = gxt.UnmarshalSnapshot(snap("MAIN", map[string]interface{}{"name": "LONG_KEY", "value": "v"}))
		Expect(errors.Is(err, gxt.ErrInvalidKey)).To(BeTrue())

		doc, err := gxt.UnmarshalSnapshot(snap("MAIN", map[string]interface{}{"name": "K", "value": "v"}))
		Expect(err).NotTo(HaveOccurred())
		Expect(get(doc.Main(), gxt.NamedKey("K"))).To(Equal("v"))
	})

	It("should reject garbage", func() {
		_, err := gxt.UnmarshalSnapshot([]byte{0xFF, 0x00})
		Expect(err).To(HaveOccurred())
	})

	It("should fingerprint content", func() {
		a := seedDocument(gxt.VariantC)
		b := seedDocument(gxt.VariantC)
		Expect(a.Fingerprint()).To(Equal(b.Fingerprint()))

		Expect(b.Main().Set(gxt.HashKey(gxt.CRCHash("EMPTY")), "x")).To(Succeed())
		Expect(a.Fingerprint()).NotTo(Equal(b.Fingerprint()))
		Expect(a.Fingerprint()).NotTo(Equal(seedDocument(gxt.VariantD).Fingerprint()))
	})

	It("should survive a binary round trip", func() {
		src := seedDocument(gxt.VariantD)
		doc, err := gxt.Decode(mustEncode(src, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Fingerprint()).To(Equal(src.Fingerprint()))
	})
})
