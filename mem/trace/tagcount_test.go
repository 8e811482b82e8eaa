package trace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/mem/cache"
)

var _ = Describe("TagCountTracer", func() {
	var (
		tracer *TagCountTracer
		c      *cache.Cache
	)

	BeforeEach(func() {
		tracer = NewTagCountTracer()

		var err error
		c, err = cache.MakeBuilder().
			WithSetIndexBits(1).
			WithWayAssociativity(1).
			WithBlockOffsetBits(1).
			WithHook(tracer).
			Build("L1")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should count accesses by outcome", func() {
		c.Access(cache.OpLoad, 0, 1)
		c.Access(cache.OpLoad, 0, 1)
		c.Access(cache.OpModify, 4, 1)
		c.Access(cache.OpStore, 0, 1)
		c.Access(cache.OpInstruction, 0, 1)

		Expect(tracer.GetTagNames()).To(Equal([]string{
			"L miss",
			"L hit",
			"M miss eviction",
			"M implicit store hit",
			"S miss dirty eviction",
		}))
		Expect(tracer.GetTagCount("L hit")).To(Equal(uint64(1)))
		Expect(tracer.GetTagCount("S miss dirty eviction")).To(Equal(uint64(1)))
		Expect(tracer.GetTagCount("I hit")).To(Equal(uint64(0)))
	})
})
