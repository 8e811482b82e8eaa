package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/logger"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

// A session wires the optional parts of a run, logging, recording and
// monitoring, around the caches being simulated.
type session struct {
	cfg runConfig
	log logger.Logger

	recorder datarecording.DataRecorder
	dbTracer *trace.DBTracer
	monitor  *monitoring.Monitor
}

func newSession(cfg runConfig, errOut io.Writer) (*session, error) {
	colored := errOut == io.Writer(os.Stderr) && !color.NoColor

	s := &session{
		cfg: cfg,
		log: logger.NewLoggerWithWriter(
			errOut, colored, cfg.logLevel(), "cachesim"),
	}

	// A recording is only created for a trace that can be read.
	if _, err := os.Stat(cfg.TracePath); err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}

	if cfg.RecordPath != "" {
		filename := cfg.RecordPath + ".sqlite3"
		if _, err := os.Stat(filename); err == nil {
			return nil, fmt.Errorf("recording file %s already exists", filename)
		}

		s.recorder = datarecording.New(cfg.RecordPath)
		s.dbTracer = trace.NewDBTracer(s.recorder)
	}

	if cfg.Monitor {
		s.monitor = monitoring.NewMonitor().WithPortNumber(cfg.MonitorPort)
	}

	return s, nil
}

func (s *session) buildCache(geometry cache.Geometry) (*cache.Cache, error) {
	builder := cache.MakeBuilder().WithGeometry(geometry)

	if s.cfg.Verbose {
		builder = builder.WithHook(trace.NewLogTracer(s.log))
	}

	if s.dbTracer != nil {
		builder = builder.WithHook(s.dbTracer)
	}

	c, err := builder.Build(geometry.String())
	if err != nil {
		return nil, fmt.Errorf("building cache: %w", err)
	}

	if s.monitor != nil {
		s.monitor.RegisterCache(c)
	}

	return c, nil
}

func (s *session) startMonitor() {
	if s.monitor == nil {
		return
	}

	port := s.monitor.StartServer()

	if s.cfg.OpenBrowser {
		if err := s.monitor.OpenBrowser(port); err != nil {
			s.log.Warningf("cannot open browser: %v", err)
		}
	}
}

func (s *session) openTrace() (*trace.Reader, io.Closer, error) {
	f, err := os.Open(s.cfg.TracePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening trace: %w", err)
	}

	reader := trace.NewReader(f)
	if s.cfg.SkipMalformed {
		reader.SkipMalformed(s.log)
	}

	return reader, f, nil
}

func (s *session) reportSkipped(reader *trace.Reader) {
	if n := reader.NumSkipped(); n > 0 {
		s.log.Warningf("skipped %d malformed records in %s",
			n, s.cfg.TracePath)
	}
}

// stream replays the trace into a cache while reading it.
func (s *session) stream(c *cache.Cache) error {
	reader, f, err := s.openTrace()
	if err != nil {
		return err
	}
	defer f.Close()

	runner := trace.NewRunner(s.log)
	runner.AddCache(c)

	if err := runner.Run(reader); err != nil {
		return fmt.Errorf("reading trace %s: %w", s.cfg.TracePath, err)
	}

	s.reportSkipped(reader)

	return nil
}

// readTrace loads the whole trace so that it can be replayed many times.
func (s *session) readTrace() ([]trace.Record, error) {
	reader, f, err := s.openTrace()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := trace.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", s.cfg.TracePath, err)
	}

	s.reportSkipped(reader)

	return records, nil
}

// replay applies records to one cache. Different caches can be replayed from
// different goroutines.
func (s *session) replay(c *cache.Cache, records []trace.Record) {
	runner := trace.NewRunner(s.log)
	runner.AddCache(c)

	if s.monitor != nil {
		bar := s.monitor.CreateProgressBar(c.Name(), uint64(len(records)))
		defer s.monitor.CompleteProgressBar(bar)

		runner.WithProgress(bar)
	}

	runner.Replay(records)
}

// finish checks the caches, records their statistics and closes the
// recorder.
func (s *session) finish(caches []*cache.Cache) error {
	for _, c := range caches {
		if err := c.CheckInvariants(); err != nil {
			s.log.Criticalf("%s is corrupted: %v", c.Name(), err)
			panic(err)
		}

		if s.dbTracer != nil {
			s.dbTracer.RecordStats(c)
		}
	}

	if s.recorder == nil {
		return nil
	}

	if err := s.recorder.Close(); err != nil {
		return fmt.Errorf("closing recording: %w", err)
	}

	return nil
}
