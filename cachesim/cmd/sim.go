package cmd

import (
	"io"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/spf13/cobra"
)

func newSimCmd() *cobra.Command {
	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulate one cache over a trace.",
		Long: `sim replays a trace through a cache of 2^s sets of E lines of ` +
			`2^b bytes and prints the statistics. The cache may hold at ` +
			`most 2^30 blocks (2^s * E), and s + b must be less than 64.`,
		Example: "  cachesim sim -s 4 -E 1 -b 4 -t traces/yi.trace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := newSimConfig(cmd.Flags())
			if err != nil {
				return err
			}

			return runSim(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addGeometryFlags(simCmd)
	addRunFlags(simCmd)
	simCmd.Flags().String(flagResults, "",
		"also write the six counters, space separated, to this file")
	simCmd.Flags().Bool(flagBreakdown, false,
		"count accesses by operation and outcome")

	return simCmd
}

func runSim(cfg simConfig, out, errOut io.Writer) error {
	s, err := newSession(cfg.runConfig, errOut)
	if err != nil {
		return err
	}

	c, err := s.buildCache(cfg.Geometry)
	if err != nil {
		return err
	}

	var breakdown *trace.TagCountTracer
	if cfg.Breakdown {
		breakdown = trace.NewTagCountTracer()
		c.AcceptHook(breakdown)
	}

	printHeader(out, cfg.Geometry, cfg.TracePath)

	if s.monitor == nil {
		err = s.stream(c)
		if err != nil {
			return err
		}
	} else {
		s.startMonitor()

		records, err := s.readTrace()
		if err != nil {
			return err
		}

		s.replay(c, records)
	}

	if err := s.finish([]*cache.Cache{c}); err != nil {
		return err
	}

	stats := c.Stats()
	printSummary(out, stats)
	printTable(out, c.Snapshot())

	if breakdown != nil {
		printBreakdown(out, breakdown)
	}

	if cfg.ResultsPath != "" {
		return writeResults(cfg.ResultsPath, stats)
	}

	return nil
}
