package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tags", func() {
	var (
		tags *tagArrayImpl
	)

	BeforeEach(func() {
		tags = NewTagArray(1024, 4, NewAddressDecoder(10, 6)).(*tagArrayImpl)
	})

	setAt := func(setID int) *Set {
		return &tags.sets[setID]
	}

	It("should report its shape", func() {
		Expect(tags.NumSets()).To(Equal(1024))
		Expect(tags.NumWays()).To(Equal(4))
		Expect(tags.Decoder().BlockSize()).To(Equal(uint64(64)))
	})

	It("should start with invalid, clean blocks at recency 0", func() {
		count := 0
		tags.ForEachBlock(func(block *Block) {
			count++
			Expect(block.IsValid).To(BeFalse())
			Expect(block.IsDirty).To(BeFalse())
			Expect(block.Recency).To(BeZero())
		})

		Expect(count).To(Equal(4096))
	})

	It("should record the position of each block", func() {
		set := setAt(7)

		Expect(set.Blocks).To(HaveLen(4))
		Expect(set.Blocks[2].SetID).To(Equal(7))
		Expect(set.Blocks[2].WayID).To(Equal(2))
	})

	It("should get the set by address", func() {
		set, setID := tags.GetSet(0x1040)

		Expect(setID).To(Equal(0x41))
		Expect(set).To(BeIdenticalTo(setAt(0x41)))
	})

	It("should lookup", func() {
		set, _ := tags.GetSet(0x12345040)
		set.Blocks[1].IsValid = true
		set.Blocks[1].Tag = 0x1234

		block, ok := set.Lookup(0x1234)

		Expect(ok).To(BeTrue())
		Expect(block).To(BeIdenticalTo(&set.Blocks[1]))
	})

	It("should return nil when lookup cannot find block", func() {
		set, _ := tags.GetSet(0x100)
		block, ok := set.Lookup(0)

		Expect(ok).To(BeFalse())
		Expect(block).To(BeNil())
	})

	It("should return nil if block is invalid", func() {
		set, _ := tags.GetSet(0x12345040)
		set.Blocks[0].Tag = 0x1234

		block, ok := set.Lookup(0x1234)

		Expect(ok).To(BeFalse())
		Expect(block).To(BeNil())
	})

	It("should make a visited block strictly the most recent", func() {
		set := setAt(3)
		set.Blocks[0].Recency = 5
		set.Blocks[1].Recency = 5
		set.Blocks[2].Recency = 2

		tags.Visit(&set.Blocks[1])

		Expect(set.Blocks[1].Recency).To(Equal(uint64(6)))
		Expect(set.IsMostRecentlyUsed(&set.Blocks[1])).To(BeTrue())
		Expect(set.IsMostRecentlyUsed(&set.Blocks[0])).To(BeFalse())
	})

	It("should treat ties at the maximum as most recently used", func() {
		set := setAt(3)
		set.Blocks[0].Recency = 5
		set.Blocks[1].Recency = 5

		Expect(set.IsMostRecentlyUsed(&set.Blocks[0])).To(BeTrue())
		Expect(set.IsMostRecentlyUsed(&set.Blocks[1])).To(BeTrue())
	})

	It("should invalidate everything on reset", func() {
		set := setAt(3)
		set.Blocks[0].IsValid = true
		set.Blocks[0].IsDirty = true
		set.Blocks[0].Recency = 9

		tags.reset()

		block := setAt(3).Blocks[0]
		Expect(block.IsValid).To(BeFalse())
		Expect(block.IsDirty).To(BeFalse())
		Expect(block.Recency).To(BeZero())
		Expect(block.SetID).To(Equal(3))
	})
})
