package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/spf13/cobra"
)

const flagMisses = "misses"

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report <recording>",
		Short: "Print the statistics of a recorded run.",
		Long: `report reads a recording written with --record and prints the ` +
			`statistics of every cache in it.`,
		Example: "  cachesim report run --misses 10",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numMisses, _ := cmd.Flags().GetInt(flagMisses)

			return runReport(cmd.Context(), args[0], numMisses, cmd.OutOrStdout())
		},
	}

	reportCmd.Flags().Int(flagMisses, 0, "also list the first N misses of each cache")

	return reportCmd
}

func recordingFilename(name string) string {
	if strings.HasSuffix(name, ".sqlite3") {
		return name
	}

	return name + ".sqlite3"
}

func runReport(
	ctx context.Context,
	name string,
	numMisses int,
	out io.Writer,
) error {
	filename := recordingFilename(name)

	// Opening a missing file would create an empty database.
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("opening recording: %w", err)
	}

	reader := datarecording.NewReader(filename)
	defer reader.Close()

	reader.MapTable(trace.StatsTableName, trace.StatsEntry{})
	reader.MapTable(trace.AccessTableName, trace.AccessEntry{})

	rows, _, err := reader.Query(ctx, trace.StatsTableName,
		datarecording.QueryParams{OrderBy: "Cache"})
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	if len(rows) == 0 {
		return fmt.Errorf("%s holds no statistics", filename)
	}

	snapshots := make([]cache.Snapshot, 0, len(rows))

	for _, row := range rows {
		snapshot := snapshotFromEntry(row.(*trace.StatsEntry))
		snapshots = append(snapshots, snapshot)

		fmt.Fprintf(out, "%s: ", snapshot.Name)
		printSummary(out, snapshot.Stats)
	}

	printTable(out, snapshots...)

	if numMisses <= 0 {
		return nil
	}

	for _, s := range snapshots {
		if err := printMisses(ctx, out, reader, s.Name, numMisses); err != nil {
			return err
		}
	}

	return nil
}

func snapshotFromEntry(entry *trace.StatsEntry) cache.Snapshot {
	geometry := cache.Geometry{
		SetIndexBits:    entry.SetIndexBits,
		Assoc:           entry.Assoc,
		BlockOffsetBits: entry.BlockOffsetBits,
	}

	stats := cache.Stats{
		Hits:              entry.Hits,
		Misses:            entry.Misses,
		Evictions:         entry.Evictions,
		DoubleReferences:  entry.DoubleReferences,
		DirtyBytesActive:  entry.DirtyBytesActive,
		DirtyBytesEvicted: entry.DirtyBytesEvicted,
		Accesses:          entry.Accesses,
		Instructions:      entry.Instructions,
	}

	return cache.Snapshot{
		Name:      entry.Cache,
		Geometry:  geometry,
		ByteSize:  geometry.ByteSize(),
		Stats:     stats,
		HitRate:   stats.HitRate(),
		NumBlocks: geometry.NumSets() * geometry.Assoc,
	}
}

// printMisses lists the first misses of a cache in trace order.
func printMisses(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
	cacheName string,
	limit int,
) error {
	rows, total, err := reader.Query(ctx, trace.AccessTableName,
		datarecording.QueryParams{
			Where:   "Cache = ? AND Hit = 0",
			Args:    []any{cacheName},
			OrderBy: "Seq",
			Limit:   limit,
		})
	if err != nil {
		return fmt.Errorf("reading misses of %s: %w", cacheName, err)
	}

	fmt.Fprintf(out, "%s: first %d of %d misses\n", cacheName, len(rows), total)

	tbl := tablewriter.NewWriter(out)
	tbl.SetHeader([]string{"Seq", "Access", "Set", "Way", "Tag", "Evicted"})
	tbl.SetBorder(true)
	tbl.SetAutoFormatHeaders(false)

	for _, row := range rows {
		entry := row.(*trace.AccessEntry)

		access := entry.Op + " " + entry.Address + "," + strconv.Itoa(entry.Size)
		if entry.Implicit {
			access += " (implicit store)"
		}

		evicted := ""
		if entry.Evicted {
			evicted = entry.EvictedAddress
			if entry.EvictedDirty {
				evicted += " (dirty)"
			}
		}

		tbl.Append([]string{
			strconv.FormatUint(entry.Seq, 10),
			access,
			strconv.Itoa(entry.SetID),
			strconv.Itoa(entry.WayID),
			entry.Tag,
			evicted,
		})
	}

	tbl.Render()

	return nil
}
