// Package config holds the validated run configuration handed by value to
// every pipeline stage.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"runhulk/internal/hulkerr"
)

const (
	DefaultKmerSize     = 11
	DefaultMinKmerCount = 1
	DefaultInterval     = 0
	DefaultSketchSize   = 256
	DefaultThreads      = 8
	DefaultJobs         = 8
	DefaultHulkExe      = "hulk"
	DefaultOutDirName   = "hulk-out"

	PlotterName = "make_figures.r"
)

type Config struct {
	Query     []string `toml:"query" json:"query"`
	OutDir    string   `toml:"out_dir" json:"out_dir"`
	AliasFile string   `toml:"alias" json:"alias"`
	Pattern   string   `toml:"pattern" json:"pattern"`

	// Sketching
	KmerSize      int  `toml:"kmer_size" json:"kmer_size"`
	MinKmerCount  int  `toml:"min_kmer_count" json:"min_kmer_count"`
	Interval      int  `toml:"interval" json:"interval"`
	SketchSize    int  `toml:"sketch_size" json:"sketch_size"`
	Threads       int  `toml:"num_threads" json:"num_threads"` // passed to hulk only in (0, 64)
	ReadsAreFasta bool `toml:"reads_are_fasta" json:"reads_are_fasta"`

	// Comparison / figures
	CreateWeightedMatrix bool `toml:"create_weighted_matrix" json:"create_weighted_matrix"`
	NoFigures            bool `toml:"no_figures" json:"no_figures"`

	// Executables
	BinDir  string `toml:"bin_dir" json:"bin_dir"`
	HulkExe string `toml:"hulk" json:"hulk"`

	Jobs  int  `toml:"jobs" json:"jobs"`
	Quiet bool `toml:"quiet" json:"quiet"`
}

// Default returns the built-in defaults. OutDir is left empty and resolved
// against the working directory by Finalize.
func Default() Config {
	return Config{
		KmerSize:     DefaultKmerSize,
		MinKmerCount: DefaultMinKmerCount,
		Interval:     DefaultInterval,
		SketchSize:   DefaultSketchSize,
		Threads:      DefaultThreads,
		Jobs:         DefaultJobs,
		HulkExe:      DefaultHulkExe,
	}
}

// LoadFile overlays the TOML file at path onto base. Keys absent from the
// file keep base's values.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, hulkerr.ConfigWrap("config", err, "failed to read config file %q", path)
	}
	cfg := base
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return base, hulkerr.ConfigWrap("config", err, "failed to parse TOML %q", path)
	}
	return cfg, nil
}

// Env variable names consulted by ApplyEnv.
const (
	EnvBinDir  = "RUN_HULK_BIN_DIR"
	EnvHulkExe = "RUN_HULK_EXE"
	EnvJobs    = "RUN_HULK_JOBS"
)

// ApplyEnv overrides c with any non-empty environment values.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvBinDir); v != "" {
		c.BinDir = v
	}
	if v := getenv(EnvHulkExe); v != "" {
		c.HulkExe = v
	}
	if v := strings.TrimSpace(getenv(EnvJobs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, hulkerr.ConfigWrap("config", err, "bad %s=%q", EnvJobs, v)
		}
		c.Jobs = n
	}
	return c, nil
}

// Finalize fills OutDir from the working directory when unset and validates.
func (c Config) Finalize() (Config, error) {
	if c.OutDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return c, hulkerr.IO("config", err, "resolving working directory")
		}
		c.OutDir = filepath.Join(cwd, DefaultOutDirName)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch {
	case len(c.Query) == 0:
		return hulkerr.Config("config", "at least one query file or directory is required")
	case c.OutDir == "":
		return hulkerr.Config("config", "output directory is empty")
	case c.KmerSize <= 0:
		return hulkerr.Config("config", "--kmer_size must be > 0 (got %d)", c.KmerSize)
	case c.SketchSize <= 0:
		return hulkerr.Config("config", "--sketch_size must be > 0 (got %d)", c.SketchSize)
	case c.MinKmerCount < 1:
		return hulkerr.Config("config", "--min_kmer_count must be ≥ 1 (got %d)", c.MinKmerCount)
	case c.Interval < 0:
		return hulkerr.Config("config", "--interval must be ≥ 0 (got %d)", c.Interval)
	case c.Jobs <= 0:
		return hulkerr.Config("config", "--jobs must be > 0 (got %d)", c.Jobs)
	case strings.TrimSpace(c.HulkExe) == "":
		return hulkerr.Config("config", "hulk executable name is empty")
	}
	if _, err := c.PatternRegexp(); err != nil {
		return err
	}
	return nil
}

// PatternRegexp compiles Pattern; nil when no pattern was given.
func (c Config) PatternRegexp() (*regexp.Regexp, error) {
	if c.Pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return nil, hulkerr.ConfigWrap("config", err, "bad --pattern %q", c.Pattern)
	}
	return re, nil
}

func (c Config) SketchDir() string  { return filepath.Join(c.OutDir, "sketches") }
func (c Config) FiguresDir() string { return filepath.Join(c.OutDir, "figures") }

// PlotterPath is make_figures.r inside BinDir, or the bare name for PATH lookup.
func (c Config) PlotterPath() string {
	if c.BinDir == "" {
		return PlotterName
	}
	return filepath.Join(c.BinDir, PlotterName)
}

func (c Config) String() string {
	return fmt.Sprintf("query=%v out_dir=%s alias=%q k=%d min_count=%d interval=%d sketch_size=%d threads=%d fasta=%t weighted=%t jobs=%d hulk=%s bin_dir=%q",
		c.Query, c.OutDir, c.AliasFile, c.KmerSize, c.MinKmerCount, c.Interval, c.SketchSize,
		c.Threads, c.ReadsAreFasta, c.CreateWeightedMatrix, c.Jobs, c.HulkExe, c.BinDir)
}
