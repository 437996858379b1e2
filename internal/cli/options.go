package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"runhulk/internal/cliutil"
	"runhulk/internal/config"
	"runhulk/internal/version"
)

// Options is the parsed command line. Flags holds every flag value; only the
// names in Set override the config file and environment.
type Options struct {
	ConfigFile string
	Flags      config.Config
	Set        map[string]bool
	Version    bool
}

// canonical maps short aliases onto their long flag.
var canonical = map[string]string{
	"q": "query", "o": "out_dir", "a": "alias", "k": "kmer_size",
	"m": "min_kmer_count", "i": "interval", "s": "sketch_size", "t": "num_threads",
	"f": "reads_are_fasta", "w": "create_weighted_matrix", "b": "bin_dir", "j": "jobs",
}

// apply copies one flag's value from src into dst, by canonical name.
var apply = map[string]func(dst *config.Config, src config.Config){
	"query":                  func(d *config.Config, s config.Config) { d.Query = s.Query },
	"out_dir":                func(d *config.Config, s config.Config) { d.OutDir = s.OutDir },
	"alias":                  func(d *config.Config, s config.Config) { d.AliasFile = s.AliasFile },
	"pattern":                func(d *config.Config, s config.Config) { d.Pattern = s.Pattern },
	"kmer_size":              func(d *config.Config, s config.Config) { d.KmerSize = s.KmerSize },
	"min_kmer_count":         func(d *config.Config, s config.Config) { d.MinKmerCount = s.MinKmerCount },
	"interval":               func(d *config.Config, s config.Config) { d.Interval = s.Interval },
	"sketch_size":            func(d *config.Config, s config.Config) { d.SketchSize = s.SketchSize },
	"num_threads":            func(d *config.Config, s config.Config) { d.Threads = s.Threads },
	"reads_are_fasta":        func(d *config.Config, s config.Config) { d.ReadsAreFasta = s.ReadsAreFasta },
	"create_weighted_matrix": func(d *config.Config, s config.Config) { d.CreateWeightedMatrix = s.CreateWeightedMatrix },
	"no-figures":             func(d *config.Config, s config.Config) { d.NoFigures = s.NoFigures },
	"bin_dir":                func(d *config.Config, s config.Config) { d.BinDir = s.BinDir },
	"hulk":                   func(d *config.Config, s config.Config) { d.HulkExe = s.HulkExe },
	"jobs":                   func(d *config.Config, s config.Config) { d.Jobs = s.Jobs },
	"quiet":                  func(d *config.Config, s config.Config) { d.Quiet = s.Quiet },
}

// Usage prints grouped help with defaults pulled from fs.
func Usage(out io.Writer, name string, fs *flag.FlagSet) {
	def := func(n string) string {
		if f := fs.Lookup(n); f != nil {
			return f.DefValue
		}
		return ""
	}
	fmt.Fprintf(out, "%s – sketch sequence files and build a pairwise distance matrix\n\n", name)
	fmt.Fprintf(out, "Version: %s\n\n", version.Version)
	fmt.Fprintf(out, "Usage: %s [flags] -q FILE_OR_DIR [FILE_OR_DIR...]\n", name)

	fmt.Fprintln(out, "\nInput:")
	fmt.Fprintln(out, "  -q, --query path            File or input directory (repeatable; positionals and globs accepted) [*]")
	fmt.Fprintln(out, "      --pattern regex         Only take directory entries whose path matches")
	fmt.Fprintln(out, "  -a, --alias file            Aliases for sample names (sample_name, alias; .csv or tab)")
	fmt.Fprintln(out, "  -f, --reads_are_fasta       Input reads are in FASTA format")

	fmt.Fprintln(out, "\nSketching:")
	fmt.Fprintf(out, "  -k, --kmer_size int         K-mer size [%s]\n", def("kmer_size"))
	fmt.Fprintf(out, "  -m, --min_kmer_count int    Minimum k-mer count [%s]\n", def("min_kmer_count"))
	fmt.Fprintf(out, "  -i, --interval int          Size of read sampling interval (0=off) [%s]\n", def("interval"))
	fmt.Fprintf(out, "  -s, --sketch_size int       Sketch size [%s]\n", def("sketch_size"))
	fmt.Fprintf(out, "  -t, --num_threads int       Threads per sketch job (honored in 1..63) [%s]\n", def("num_threads"))
	fmt.Fprintf(out, "  -j, --jobs int              Concurrent sketch jobs [%s]\n", def("jobs"))

	fmt.Fprintln(out, "\nOutput:")
	fmt.Fprintln(out, "  -o, --out_dir dir           Output directory [./hulk-out]")
	fmt.Fprintln(out, "  -w, --create_weighted_matrix  Create a pairwise weighted Jaccard similarity matrix")
	fmt.Fprintln(out, "      --no-figures            Write the distance matrix but skip plotting")

	fmt.Fprintln(out, "\nExecutables:")
	fmt.Fprintf(out, "      --hulk path             hulk executable [%s]\n", def("hulk"))
	fmt.Fprintln(out, "  -b, --bin_dir dir           Location of make_figures.r")

	fmt.Fprintln(out, "\nMiscellaneous:")
	fmt.Fprintln(out, "      --config file           TOML file with defaults (flags win)")
	fmt.Fprintln(out, "      --quiet                 Suppress progress messages")
	fmt.Fprintln(out, "  -v, --version               Print version and exit")
	fmt.Fprintln(out, "  -h, --help                  Show this help")
}

type sliceValue struct{ dst *[]string }

func (s *sliceValue) String() string {
	if s.dst == nil {
		return ""
	}
	return fmt.Sprint(*s.dst)
}

func (s *sliceValue) Set(v string) error {
	*s.dst = append(*s.dst, v)
	return nil
}

// Register wires every flag onto fs, storing values in o.Flags.
func Register(fs *flag.FlagSet, o *Options) {
	o.Flags = config.Default()
	c := &o.Flags

	q := &sliceValue{dst: &c.Query}
	fs.Var(q, "query", "file or input directory (repeatable)")
	fs.Var(q, "q", "alias of --query")
	fs.StringVar(&c.Pattern, "pattern", "", "regex filter for directory entries")
	fs.StringVar(&c.AliasFile, "alias", "", "aliases for sample names")
	fs.StringVar(&c.AliasFile, "a", "", "alias of --alias")
	fs.BoolVar(&c.ReadsAreFasta, "reads_are_fasta", false, "input reads are in FASTA format")
	fs.BoolVar(&c.ReadsAreFasta, "f", false, "alias of --reads_are_fasta")

	fs.IntVar(&c.KmerSize, "kmer_size", config.DefaultKmerSize, "k-mer size")
	fs.IntVar(&c.KmerSize, "k", config.DefaultKmerSize, "alias of --kmer_size")
	fs.IntVar(&c.MinKmerCount, "min_kmer_count", config.DefaultMinKmerCount, "minimum k-mer count")
	fs.IntVar(&c.MinKmerCount, "m", config.DefaultMinKmerCount, "alias of --min_kmer_count")
	fs.IntVar(&c.Interval, "interval", config.DefaultInterval, "size of read sampling interval")
	fs.IntVar(&c.Interval, "i", config.DefaultInterval, "alias of --interval")
	fs.IntVar(&c.SketchSize, "sketch_size", config.DefaultSketchSize, "sketch size")
	fs.IntVar(&c.SketchSize, "s", config.DefaultSketchSize, "alias of --sketch_size")
	fs.IntVar(&c.Threads, "num_threads", config.DefaultThreads, "number of threads")
	fs.IntVar(&c.Threads, "t", config.DefaultThreads, "alias of --num_threads")
	fs.IntVar(&c.Jobs, "jobs", config.DefaultJobs, "concurrent sketch jobs")
	fs.IntVar(&c.Jobs, "j", config.DefaultJobs, "alias of --jobs")

	fs.StringVar(&c.OutDir, "out_dir", "", "output directory")
	fs.StringVar(&c.OutDir, "o", "", "alias of --out_dir")
	fs.BoolVar(&c.CreateWeightedMatrix, "create_weighted_matrix", false, "create a weighted Jaccard similarity matrix")
	fs.BoolVar(&c.CreateWeightedMatrix, "w", false, "alias of --create_weighted_matrix")
	fs.BoolVar(&c.NoFigures, "no-figures", false, "skip plotting")

	fs.StringVar(&c.HulkExe, "hulk", config.DefaultHulkExe, "hulk executable")
	fs.StringVar(&c.BinDir, "bin_dir", "", "location of binaries")
	fs.StringVar(&c.BinDir, "b", "", "alias of --bin_dir")

	fs.StringVar(&o.ConfigFile, "config", "", "TOML config file")
	fs.BoolVar(&c.Quiet, "quiet", false, "suppress progress messages")
	fs.BoolVar(&o.Version, "v", false, "print version and exit")
	fs.BoolVar(&o.Version, "version", false, "print version and exit")
}

// ParseArgs registers and parses all flags plus positional query paths.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var o Options
	var help bool
	Register(fs, &o)
	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return o, err
	}
	if help {
		return o, flag.ErrHelp
	}
	if o.Version {
		return o, nil
	}

	o.Set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := canonical[name]; ok {
			name = long
		}
		if _, ok := apply[name]; ok {
			o.Set[name] = true
		}
	})

	if len(posArgs) > 0 {
		exp, err := cliutil.ExpandPositionals(posArgs)
		if err != nil {
			return o, err
		}
		o.Flags.Query = append(o.Flags.Query, exp...)
		o.Set["query"] = true
	}

	if o.ConfigFile == "" && len(o.Flags.Query) == 0 {
		return o, errors.New("at least one --query file or directory is required")
	}
	return o, nil
}

// Resolve layers defaults, the config file, the environment and explicitly
// set flags (in that order), then validates the result.
func (o Options) Resolve(getenv func(string) string) (config.Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := config.Default()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadFile(o.ConfigFile, cfg); err != nil {
			return cfg, err
		}
	}
	cfg, err := cfg.ApplyEnv(getenv)
	if err != nil {
		return cfg, err
	}
	for name := range o.Set {
		apply[name](&cfg, o.Flags)
	}
	return cfg.Finalize()
}
