package tagging

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AddressDecoder", func() {
	It("should split an address", func() {
		d := NewAddressDecoder(4, 6)

		tag, setIndex, offset := d.Decode(0xdeadbeef)

		Expect(offset).To(Equal(uint64(0xdeadbeef & 0x3f)))
		Expect(setIndex).To(Equal(uint64((0xdeadbeef >> 6) & 0xf)))
		Expect(tag).To(Equal(uint64(0xdeadbeef >> 10)))
	})

	It("should report derived sizes", func() {
		d := NewAddressDecoder(5, 3)

		Expect(d.NumSets()).To(Equal(uint64(32)))
		Expect(d.BlockSize()).To(Equal(uint64(8)))
		Expect(d.TagBits()).To(Equal(56))
	})

	It("should use all 64 bits of the address", func() {
		d := NewAddressDecoder(1, 1)

		tag, setIndex, offset := d.Decode(0xffffffffffffffff)

		Expect(tag).To(Equal(uint64(0x3fffffffffffffff)))
		Expect(setIndex).To(Equal(uint64(1)))
		Expect(offset).To(Equal(uint64(1)))
	})

	It("should round trip through compose", func() {
		r := rand.New(rand.NewSource(1))

		for i := 0; i < 1000; i++ {
			s := 1 + r.Intn(30)
			b := 1 + r.Intn(62-s)
			d := NewAddressDecoder(s, b)
			addr := r.Uint64()

			tag, setIndex, _ := d.Decode(addr)
			rebuilt := d.Compose(tag, setIndex, 0)
			tag2, setIndex2, offset2 := d.Decode(rebuilt)

			Expect(tag2).To(Equal(tag))
			Expect(setIndex2).To(Equal(setIndex))
			Expect(offset2).To(BeZero())
		}
	})
})
