package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Geometry", func() {
	DescribeTable("validation",
		func(g Geometry, expected error) {
			err := g.Validate()
			if expected == nil {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(expected))
			}
		},
		Entry("smallest cache", Geometry{1, 1, 1}, nil),
		Entry("zero set bits", Geometry{0, 1, 1}, ErrInvalidGeometry),
		Entry("zero ways", Geometry{1, 0, 1}, ErrInvalidGeometry),
		Entry("negative block bits", Geometry{1, 1, -2}, ErrInvalidGeometry),
		Entry("s + b = 64", Geometry{32, 1, 32}, ErrInvalidGeometry),
		Entry("too many sets", Geometry{31, 1, 4}, ErrCacheTooLarge),
		Entry("too many blocks", Geometry{20, 2048, 4}, ErrCacheTooLarge),
	)

	It("should derive sizes", func() {
		g := Geometry{SetIndexBits: 4, Assoc: 2, BlockOffsetBits: 5}

		Expect(g.NumSets()).To(Equal(16))
		Expect(g.BlockSize()).To(Equal(uint64(32)))
		Expect(g.TagBits()).To(Equal(55))
		Expect(g.ByteSize()).To(Equal(uint64(1024)))
		Expect(g.String()).To(Equal("s=4,E=2,b=5"))
	})

	It("should parse s:E:b", func() {
		g, err := ParseGeometry("4:2:5")

		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(Equal(Geometry{4, 2, 5}))
	})

	It("should reject malformed geometry strings", func() {
		_, err := ParseGeometry("4:2")
		Expect(err).To(MatchError(ErrInvalidGeometry))

		_, err = ParseGeometry("4:x:5")
		Expect(err).To(MatchError(ErrInvalidGeometry))

		_, err = ParseGeometry("0:1:1")
		Expect(err).To(MatchError(ErrInvalidGeometry))
	})
})

var _ = Describe("Builder", func() {
	It("should build a cache with all blocks invalid", func() {
		c, err := MakeBuilder().
			WithSetIndexBits(3).
			WithWayAssociativity(2).
			WithBlockOffsetBits(4).
			Build("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name()).To(Equal("L1"))
		Expect(c.Geometry()).To(Equal(Geometry{3, 2, 4}))
		Expect(c.tags.NumSets()).To(Equal(8))
		Expect(c.tags.NumWays()).To(Equal(2))
		Expect(c.CheckInvariants()).To(Succeed())
	})

	It("should not build a cache with invalid geometry", func() {
		c, err := MakeBuilder().WithGeometry(Geometry{0, 1, 1}).Build("L1")

		Expect(err).To(MatchError(ErrInvalidGeometry))
		Expect(c).To(BeNil())
	})

	It("should not build a cache with an unknown replace strategy", func() {
		c, err := MakeBuilder().
			WithGeometry(Geometry{1, 1, 1}).
			WithReplaceStrategy("random").
			Build("L1")

		Expect(err).To(HaveOccurred())
		Expect(c).To(BeNil())
	})

	It("should not share hooks between builders", func() {
		base := MakeBuilder().WithGeometry(Geometry{1, 1, 1})
		a := base.WithHook(&countHook{})
		b := base.WithHook(&countHook{})

		Expect(a.hooks).To(HaveLen(1))
		Expect(b.hooks).To(HaveLen(1))
		Expect(a.hooks[0]).NotTo(BeIdenticalTo(b.hooks[0]))
	})
})
