package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "CACHESIM_"

// Environment variables that provide defaults for flags.
const (
	envSetIndexBits    = envPrefix + "S"
	envAssoc           = envPrefix + "E"
	envBlockOffsetBits = envPrefix + "B"
	envTrace           = envPrefix + "TRACE"
	envLog             = envPrefix + "LOG"
	envMonitorPort     = envPrefix + "MONITOR_PORT"
)

const (
	flagLog             = "log"
	flagEnvFile         = "env-file"
	flagSetIndexBits    = "set-index-bits"
	flagAssoc           = "associativity"
	flagBlockOffsetBits = "block-offset-bits"
	flagTrace           = "trace"
	flagVerbose         = "verbose"
	flagSkipMalformed   = "skip-malformed"
	flagRecord          = "record"
	flagResults         = "results"
	flagMonitor         = "monitor"
	flagMonitorPort     = "monitor-port"
	flagOpenBrowser     = "open-browser"
	flagGeometry        = "geometry"
	flagBreakdown       = "breakdown"
)

var errMissingTrace = errors.New("missing trace file (-t)")

// runConfig holds what every simulating command needs.
type runConfig struct {
	TracePath     string
	LogLevel      string
	Verbose       bool
	SkipMalformed bool
	RecordPath    string
	Monitor       bool
	MonitorPort   int
	OpenBrowser   bool
}

// logLevel returns the level to log at. Verbose runs log every access.
func (c runConfig) logLevel() string {
	if c.Verbose {
		return "debug"
	}

	return c.LogLevel
}

type simConfig struct {
	runConfig

	Geometry    cache.Geometry
	ResultsPath string
	Breakdown   bool
}

type sweepConfig struct {
	runConfig

	Geometries []cache.Geometry
}

// loadEnvFile loads variables from a .env file. Variables that are already
// set are kept. A missing file is only an error if it was asked for.
func loadEnvFile(path string, required bool) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP(flagTrace, "t", "",
		"trace file to replay (env "+envTrace+")")
	flags.BoolP(flagVerbose, "v", false, "log every access")
	flags.Bool(flagSkipMalformed, false,
		"log malformed trace records and continue")
	flags.String(flagRecord, "",
		"record accesses and statistics into <name>.sqlite3")
	flags.Bool(flagMonitor, false, "serve the progress and statistics over HTTP")
	flags.Int(flagMonitorPort, 0,
		"port of the monitoring server (env "+envMonitorPort+
			", default a random port)")
	flags.Bool(flagOpenBrowser, false, "open the monitoring page in a browser")
}

func newRunConfig(flags *pflag.FlagSet) (runConfig, error) {
	var cfg runConfig
	var err error

	cfg.TracePath = stringOption(flags, flagTrace, envTrace)
	if cfg.TracePath == "" {
		return cfg, errMissingTrace
	}

	cfg.LogLevel = stringOption(flags, flagLog, envLog)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.MonitorPort, err = intOption(flags, flagMonitorPort, envMonitorPort)
	if err != nil {
		return cfg, err
	}

	cfg.Verbose, _ = flags.GetBool(flagVerbose)
	cfg.SkipMalformed, _ = flags.GetBool(flagSkipMalformed)
	cfg.RecordPath, _ = flags.GetString(flagRecord)
	cfg.Monitor, _ = flags.GetBool(flagMonitor)
	cfg.OpenBrowser, _ = flags.GetBool(flagOpenBrowser)

	return cfg, nil
}

func addGeometryFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.IntP(flagSetIndexBits, "s", 0,
		"number of set index bits, 2^s sets (env "+envSetIndexBits+")")
	flags.IntP(flagAssoc, "E", 0,
		"number of lines per set (env "+envAssoc+")")
	flags.IntP(flagBlockOffsetBits, "b", 0,
		"number of block offset bits, 2^b bytes per block (env "+
			envBlockOffsetBits+")")
}

func newSimConfig(flags *pflag.FlagSet) (simConfig, error) {
	var cfg simConfig
	var err error

	cfg.Geometry.SetIndexBits, err = intOption(
		flags, flagSetIndexBits, envSetIndexBits)
	if err != nil {
		return cfg, err
	}

	cfg.Geometry.Assoc, err = intOption(flags, flagAssoc, envAssoc)
	if err != nil {
		return cfg, err
	}

	cfg.Geometry.BlockOffsetBits, err = intOption(
		flags, flagBlockOffsetBits, envBlockOffsetBits)
	if err != nil {
		return cfg, err
	}

	if err := cfg.Geometry.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid cache: %w", err)
	}

	cfg.runConfig, err = newRunConfig(flags)
	if err != nil {
		return cfg, err
	}

	cfg.ResultsPath, _ = flags.GetString(flagResults)
	cfg.Breakdown, _ = flags.GetBool(flagBreakdown)

	return cfg, nil
}

func newSweepConfig(flags *pflag.FlagSet) (sweepConfig, error) {
	var cfg sweepConfig

	specs, _ := flags.GetStringArray(flagGeometry)
	if len(specs) == 0 {
		return cfg, fmt.Errorf("%w: at least one -g s:E:b is required",
			cache.ErrInvalidGeometry)
	}

	for _, spec := range specs {
		geometry, err := cache.ParseGeometry(spec)
		if err != nil {
			return cfg, fmt.Errorf("invalid cache: %w", err)
		}

		cfg.Geometries = append(cfg.Geometries, geometry)
	}

	var err error

	cfg.runConfig, err = newRunConfig(flags)

	return cfg, err
}

// stringOption returns the flag if it was set, then the environment, then the
// flag default.
func stringOption(flags *pflag.FlagSet, name, env string) string {
	if !flags.Changed(name) {
		if v, ok := os.LookupEnv(env); ok {
			return strings.TrimSpace(v)
		}
	}

	v, _ := flags.GetString(name)

	return v
}

// intOption is like stringOption for integers.
func intOption(flags *pflag.FlagSet, name, env string) (int, error) {
	if !flags.Changed(name) {
		if v, ok := os.LookupEnv(env); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return 0, fmt.Errorf("%s=%q is not an integer: %w", env, v, err)
			}

			return n, nil
		}
	}

	return flags.GetInt(name)
}
