package main

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/fnv1a"
	"github.com/aglyzov/go-hashtree/hashtable"
)

// Report is what tablestat prints once every input is consumed.
type Report struct {
	Lines      int   `yaml:"lines"`
	Added      int   `yaml:"added"`
	Empty      int   `yaml:"empty"`
	Duplicates int   `yaml:"duplicates"`
	Collisions int   `yaml:"collisions"`
	Buckets    int   `yaml:"buckets"`
	Occupied   int   `yaml:"occupied"`
	Deepest    int   `yaml:"deepest"`
	BudgetUsed int64 `yaml:"budgetUsed,omitempty"`
}

// Run parses args, tallies the keys and writes a YAML report to stdout.
func Run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts := &Options{}

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			_, err = io.WriteString(stdout, ferr.Message+"\n")
			return err
		}
		return err
	}

	cfg := DefaultConfig()
	if opts.Config != "" {
		var err error
		if cfg, err = Load(opts.Config); err != nil {
			return err
		}
	}
	cfg.Merge(opts)

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(opts.Verbose)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer func() { _ = log.Sync() }()

	inputs := []io.Reader{stdin}
	if files := opts.Args.Files; len(files) > 0 {
		inputs = inputs[:0]
		for _, name := range files {
			f, err := os.Open(name)
			if err != nil {
				return errors.Wrapf(err, "failed to open %q", name)
			}
			defer f.Close()
			inputs = append(inputs, f)
		}
	}

	report, err := tally(cfg, inputs, log)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(stdout)
	defer enc.Close()

	return enc.Encode(report)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// tally adds every non-empty line of inputs to a fresh table.
//
// Each key is stored as its own value, so a rejected Add tells a repeated key
// apart from a different key that hashed to a digest already present.
func tally(cfg *Config, inputs []io.Reader, log *zap.Logger) (*Report, error) {
	var budget *alloc.Budget

	opts := []hashtable.Option{
		hashtable.WithWidth(fnv1a.Width(cfg.Width)),
		hashtable.WithLogger(log),
		hashtable.WithPoolSize(cfg.PoolSize),
	}
	if cfg.Budget > 0 {
		budget = alloc.NewBudget(cfg.Budget)
		opts = append(opts, hashtable.WithAllocator(budget))
	}

	tbl, err := hashtable.New(cfg.Buckets, opts...)
	if err != nil {
		return nil, err
	}
	defer tbl.Destroy()

	report := &Report{}

	for i, input := range inputs {
		scanner := bufio.NewScanner(input)

		for line := 1; scanner.Scan(); line++ {
			report.Lines++

			key := scanner.Text()
			if key == "" {
				report.Empty++
				continue
			}

			err := tbl.Add([]byte(key), key)
			switch {
			case err == nil:
				report.Added++
				continue
			case !errors.Is(err, hashtable.ErrAlreadyExists):
				return nil, errors.Wrapf(err, "input %d line %d", i, line)
			}

			holder, err := tbl.Get([]byte(key))
			if err != nil {
				return nil, errors.Wrapf(err, "input %d line %d", i, line)
			}

			if holder == key {
				report.Duplicates++
				continue
			}

			report.Collisions++
			log.Info("digest collision", zap.String("key", key), zap.Any("holder", holder))
		}

		if err := scanner.Err(); err != nil {
			return nil, errors.Wrapf(err, "reading input %d", i)
		}
	}

	stats := tbl.Stats()
	report.Buckets = stats.Buckets
	report.Occupied = stats.Occupied
	report.Deepest = stats.Deepest

	if budget != nil {
		report.BudgetUsed = budget.Used()
	}

	log.Debug("tally done",
		zap.Int("lines", report.Lines),
		zap.Int("entries", stats.Entries))

	return report, nil
}
