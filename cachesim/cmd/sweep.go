package cmd

import (
	"io"
	"sync"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Simulate several caches over the same trace.",
		Long: `sweep reads a trace once and replays it, in parallel, through ` +
			`one cache per -g s:E:b, then prints a table to compare them.`,
		Example: "  cachesim sweep -t traces/yi.trace -g 4:1:4 -g 2:4:4",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := newSweepConfig(cmd.Flags())
			if err != nil {
				return err
			}

			return runSweep(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayP(flagGeometry, "g", nil,
		"cache geometry as s:E:b, may be repeated")

	return sweepCmd
}

func runSweep(cfg sweepConfig, out, errOut io.Writer) error {
	s, err := newSession(cfg.runConfig, errOut)
	if err != nil {
		return err
	}

	caches := make([]*cache.Cache, 0, len(cfg.Geometries))
	for _, geometry := range cfg.Geometries {
		c, err := s.buildCache(geometry)
		if err != nil {
			return err
		}

		caches = append(caches, c)
	}

	s.startMonitor()

	records, err := s.readTrace()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, c := range caches {
		wg.Add(1)

		go func(c *cache.Cache) {
			defer wg.Done()
			s.replay(c, records)
		}(c)
	}
	wg.Wait()

	if err := s.finish(caches); err != nil {
		return err
	}

	snapshots := make([]cache.Snapshot, 0, len(caches))
	for _, c := range caches {
		snapshots = append(snapshots, c.Snapshot())
	}

	printTable(out, snapshots...)

	return nil
}
