package trace

import (
	"strconv"
	"sync"

	"github.com/op/go-logging"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/logger"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Table names used by the DBTracer.
const (
	AccessTableName = "cache_accesses"
	StatsTableName  = "cache_stats"
)

// AccessEntry is a row of the access table.
type AccessEntry struct {
	Seq             uint64
	Cache           string
	Op              string
	Implicit        bool
	Address         string
	Size            int
	SetID           int
	WayID           int
	Tag             string
	Hit             bool
	DoubleReference bool
	BecameDirty     bool
	Evicted         bool
	EvictedDirty    bool
	EvictedAddress  string
}

// StatsEntry is a row of the stats table.
type StatsEntry struct {
	Cache             string
	SetIndexBits      int
	Assoc             int
	BlockOffsetBits   int
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	DoubleReferences  uint64
	DirtyBytesActive  uint64
	DirtyBytesEvicted uint64
	Accesses          uint64
	Instructions      uint64
}

// A logTracer prints every access at the debug level.
type logTracer struct {
	logger logger.Logger
}

// NewLogTracer creates a hook that logs every access the cache performs.
func NewLogTracer(l logger.Logger) hooking.Hook {
	return &logTracer{logger: l}
}

func (t *logTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess || !t.logger.IsEnabledFor(logging.DEBUG) {
		return
	}

	event := ctx.Item.(cache.AccessEvent)

	outcome := "miss"
	if event.Hit {
		outcome = "hit"
	}

	if event.IsImplicit {
		outcome = "implicit store " + outcome
	}

	if event.Evicted {
		outcome += " eviction 0x" + strconv.FormatUint(event.EvictedAddress, 16)
		if event.EvictedDirty {
			outcome += " (dirty)"
		}
	}

	t.logger.Debugf("%s: %s %x,%d set %d tag 0x%x way %d: %s",
		event.Cache,
		event.Op,
		event.Address,
		event.Size,
		event.SetID,
		event.Tag,
		event.WayID,
		outcome,
	)
}

// A DBTracer records accesses and final statistics with a DataRecorder.
type DBTracer struct {
	lock         sync.Mutex
	dataRecorder datarecording.DataRecorder
	seq          uint64
}

// NewDBTracer creates the tables and returns a tracer that writes to them.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(AccessTableName, AccessEntry{})
	t.dataRecorder.CreateTable(StatsTableName, StatsEntry{})

	return t
}

// Func records an access.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	event := ctx.Item.(cache.AccessEvent)

	t.lock.Lock()
	defer t.lock.Unlock()

	t.seq++

	entry := AccessEntry{
		Seq:             t.seq,
		Cache:           event.Cache,
		Op:              event.Op.String(),
		Implicit:        event.IsImplicit,
		Address:         hex(event.Address),
		Size:            event.Size,
		SetID:           event.SetID,
		WayID:           event.WayID,
		Tag:             hex(event.Tag),
		Hit:             event.Hit,
		DoubleReference: event.DoubleReference,
		BecameDirty:     event.BecameDirty,
		Evicted:         event.Evicted,
	}

	if event.Evicted {
		entry.EvictedDirty = event.EvictedDirty
		entry.EvictedAddress = hex(event.EvictedAddress)
	}

	t.dataRecorder.InsertData(AccessTableName, entry)
}

// RecordStats stores the current statistics of a cache and flushes.
func (t *DBTracer) RecordStats(c *cache.Cache) {
	stats := c.Stats()
	geometry := c.Geometry()

	t.lock.Lock()
	defer t.lock.Unlock()

	t.dataRecorder.InsertData(StatsTableName, StatsEntry{
		Cache:             c.Name(),
		SetIndexBits:      geometry.SetIndexBits,
		Assoc:             geometry.Assoc,
		BlockOffsetBits:   geometry.BlockOffsetBits,
		Hits:              stats.Hits,
		Misses:            stats.Misses,
		Evictions:         stats.Evictions,
		DoubleReferences:  stats.DoubleReferences,
		DirtyBytesActive:  stats.DirtyBytesActive,
		DirtyBytesEvicted: stats.DirtyBytesEvicted,
		Accesses:          stats.Accesses,
		Instructions:      stats.Instructions,
	})

	t.dataRecorder.Flush()
}

// Addresses and tags may use all 64 bits, which SQLite integers cannot hold.
func hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
