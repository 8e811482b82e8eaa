package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/c2h5oh/datasize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
)

func printHeader(w io.Writer, geometry cache.Geometry, tracePath string) {
	bold := color.New(color.Bold).SprintfFunc()

	fmt.Fprintf(w, "s = %d, E = %d, b = %d, tracefile = %s\n",
		geometry.SetIndexBits, geometry.Assoc, geometry.BlockOffsetBits,
		tracePath)
	fmt.Fprintf(w, "Calculated Cache Size: %d bytes (%s)\n",
		geometry.ByteSize(),
		bold(datasize.ByteSize(geometry.ByteSize()).HumanReadable()))
}

// printSummary prints the counters in the classic one-line format.
func printSummary(w io.Writer, stats cache.Stats) {
	fmt.Fprintf(w,
		"hits:%d misses:%d evictions:%d dirty_bytes_in_cache:%d "+
			"dirty_bytes_evicted:%d double_references:%d\n",
		stats.Hits,
		stats.Misses,
		stats.Evictions,
		stats.DirtyBytesActive,
		stats.DirtyBytesEvicted,
		stats.DoubleReferences,
	)
}

// writeResults writes the counters, in the summary order, to a file.
func writeResults(path string, stats cache.Stats) error {
	content := fmt.Sprintf("%d %d %d %d %d %d\n",
		stats.Hits,
		stats.Misses,
		stats.Evictions,
		stats.DirtyBytesActive,
		stats.DirtyBytesEvicted,
		stats.DoubleReferences,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	return nil
}

func printTable(w io.Writer, snapshots ...cache.Snapshot) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{
		"Cache", "Size", "Accesses", "Hits", "Misses", "Evictions",
		"Dirty In Cache", "Dirty Evicted", "Double Refs", "Hit Rate",
	})
	tbl.SetBorder(true)
	tbl.SetAutoFormatHeaders(false)

	for _, s := range snapshots {
		tbl.Append([]string{
			s.Name,
			datasize.ByteSize(s.ByteSize).HumanReadable(),
			strconv.FormatUint(s.Stats.Accesses, 10),
			strconv.FormatUint(s.Stats.Hits, 10),
			strconv.FormatUint(s.Stats.Misses, 10),
			strconv.FormatUint(s.Stats.Evictions, 10),
			strconv.FormatUint(s.Stats.DirtyBytesActive, 10),
			strconv.FormatUint(s.Stats.DirtyBytesEvicted, 10),
			strconv.FormatUint(s.Stats.DoubleReferences, 10),
			fmt.Sprintf("%.2f%%", 100*s.HitRate),
		})
	}

	tbl.Render()
}

func printBreakdown(w io.Writer, tracer *trace.TagCountTracer) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Access", "Count"})
	tbl.SetBorder(true)
	tbl.SetAutoFormatHeaders(false)

	for _, name := range tracer.GetTagNames() {
		tbl.Append([]string{
			name,
			strconv.FormatUint(tracer.GetTagCount(name), 10),
		})
	}

	tbl.Render()
}
