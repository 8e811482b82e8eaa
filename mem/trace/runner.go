package trace

import (
	"errors"
	"io"

	"github.com/sarchlab/cachesim/logger"
	"github.com/sarchlab/cachesim/mem/cache"
)

// Progress is notified every time a record has been applied.
type Progress interface {
	IncrementFinished(amount uint64)
}

// A Runner feeds records, in trace order, into one or more caches.
type Runner struct {
	caches   []*cache.Cache
	logger   logger.Logger
	progress Progress

	numRecords uint64
}

// NewRunner creates a Runner without any cache.
func NewRunner(l logger.Logger) *Runner {
	return &Runner{logger: l}
}

// AddCache registers a cache that receives every record.
func (r *Runner) AddCache(c *cache.Cache) {
	r.caches = append(r.caches, c)
}

// Caches returns the caches registered.
func (r *Runner) Caches() []*cache.Cache {
	return r.caches
}

// WithProgress sets where the progress is reported.
func (r *Runner) WithProgress(p Progress) *Runner {
	r.progress = p
	return r
}

// NumRecords returns the number of records applied so far.
func (r *Runner) NumRecords() uint64 {
	return r.numRecords
}

// Run streams the records of reader into the caches until the end of the
// trace.
func (r *Runner) Run(reader *Reader) error {
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		r.apply(record)
	}

	r.logger.Noticef("trace finished after %d records", r.numRecords)

	return nil
}

// Replay applies records that were read beforehand. The slice is not
// modified, so several runners may replay the same records concurrently.
func (r *Runner) Replay(records []Record) {
	for _, record := range records {
		r.apply(record)
	}

	r.logger.Noticef("replay finished after %d records", r.numRecords)
}

func (r *Runner) apply(record Record) {
	for _, c := range r.caches {
		c.Access(record.Op, record.Address, record.Size)
	}

	r.numRecords++

	if r.progress != nil {
		r.progress.IncrementFinished(1)
	}
}
