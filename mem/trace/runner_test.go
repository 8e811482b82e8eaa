package trace

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/logger"
	"github.com/sarchlab/cachesim/mem/cache"
	"go.uber.org/mock/gomock"
)

const referenceTrace = `L 0,1
L 2,1
L 0,1
S 4,1
`

var _ = Describe("Runner", func() {
	var (
		mockCtrl *gomock.Controller
		progress *MockProgress
		c        *cache.Cache
		runner   *Runner
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		progress = NewMockProgress(mockCtrl)

		var err error
		c, err = cache.MakeBuilder().
			WithSetIndexBits(1).
			WithWayAssociativity(1).
			WithBlockOffsetBits(1).
			Build("L1")
		Expect(err).NotTo(HaveOccurred())

		runner = NewRunner(logger.Discard())
		runner.AddCache(c)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run a trace through the cache", func() {
		progress.EXPECT().IncrementFinished(uint64(1)).Times(4)
		runner.WithProgress(progress)

		err := runner.Run(NewReader(strings.NewReader(referenceTrace)))

		Expect(err).NotTo(HaveOccurred())
		Expect(runner.NumRecords()).To(Equal(uint64(4)))
		Expect(runner.Caches()).To(ConsistOf(c))

		stats := c.Stats()
		Expect(stats.Hits).To(Equal(uint64(1)))
		Expect(stats.Misses).To(Equal(uint64(3)))
		Expect(stats.Evictions).To(Equal(uint64(1)))
		Expect(stats.DirtyBytesActive).To(Equal(uint64(2)))
		Expect(stats.DirtyBytesEvicted).To(Equal(uint64(0)))
	})

	It("should stop at a malformed record", func() {
		err := runner.Run(NewReader(strings.NewReader("L 0,1\nL nope\n")))

		Expect(err).To(HaveOccurred())
		Expect(runner.NumRecords()).To(Equal(uint64(1)))
	})

	It("should replay the same records into several caches", func() {
		records, err := ReadAll(NewReader(strings.NewReader(referenceTrace)))
		Expect(err).NotTo(HaveOccurred())

		bigger, err := cache.MakeBuilder().
			WithSetIndexBits(1).
			WithWayAssociativity(2).
			WithBlockOffsetBits(1).
			Build("L1-2way")
		Expect(err).NotTo(HaveOccurred())
		runner.AddCache(bigger)

		runner.Replay(records)

		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		Expect(bigger.Stats().Evictions).To(Equal(uint64(0)))
		Expect(bigger.Stats().Hits).To(Equal(uint64(1)))
		Expect(bigger.Stats().Misses).To(Equal(uint64(3)))
	})
})
