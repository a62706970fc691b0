package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/cmpby/compiler"
	"github.com/syssam/cmpby/compiler/gen"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command. Run without a subcommand, it
// generates the packages matching its arguments.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cmpbygen [patterns]",
		Short: "Generate Equal, Compare and Hash for annotated Go types",
		Long: `cmpbygen reads the types annotated with //cmpby:derive in the packages
matching the patterns (default ".") and writes their equality, ordering and
hashing to one generated file per package.

Settings are read from cmpby.yaml, CMPBY_* environment variables and flags,
in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.ConfigFile, "config", "", "configuration file (default ./cmpby.yaml)")
	f.String("dir", "", "directory the patterns are resolved in")
	f.StringSlice("build-flags", nil, "build flags used when loading packages")
	f.String("suffix", gen.DefaultSuffix, "suffix of generated file names")
	f.String("header", "", "generated-code header line")
	f.Int("workers", 0, "packages generated in parallel (default GOMAXPROCS)")
	f.Bool("dry-run", false, "report without writing files")
	f.BoolP("verbose", "v", false, "verbose output")
	f.String("log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	return cmd
}

// setup reads the settings of a command and builds its logger and generator
// configuration.
func setup(cmd *cobra.Command, opts *RootOptions) (*gen.Config, *Settings, error) {
	s, err := readSettings(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("reading configuration: %w", err)
	}
	cfg, err := s.Config(newLogger(s))
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func runGenerate(cmd *cobra.Command, opts *RootOptions, patterns []string) error {
	cfg, _, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = cfg.Logger.Sync() }()
	_, err = generate(cmd, cfg, patterns)
	return err
}

// generate runs one generation and prints its report.
func generate(cmd *cobra.Command, cfg *gen.Config, patterns []string) (*gen.Graph, error) {
	g, err := compiler.Generate(cmd.Context(), cfg, patterns...)
	if g != nil {
		report(cmd.OutOrStdout(), cmd.ErrOrStderr(), g)
	}
	if err != nil {
		return g, err
	}
	if err := g.Err(); err != nil {
		cfg.Logger.Debug("generation failed", zap.Error(err))
		return g, fmt.Errorf("%d type(s) could not be generated", countFailed(g))
	}
	return g, nil
}

// report prints diagnostics to errw and the files written or removed to w.
func report(w, errw io.Writer, g *gen.Graph) {
	for _, d := range g.Diagnostics() {
		fmt.Fprintln(errw, d)
	}
	for _, r := range g.Results {
		rel := relPath(g.Dir, r.File)
		switch {
		case r.Written:
			fmt.Fprintf(w, "wrote %s (%d types)\n", rel, len(r.Types))
		case r.Removed:
			fmt.Fprintf(w, "removed %s\n", rel)
		case g.DryRun && r.Source != nil:
			fmt.Fprintf(w, "would write %s (%d types)\n", rel, len(r.Types))
		}
	}
}

// countFailed counts the annotated types that produced no code.
func countFailed(g *gen.Graph) int {
	n := 0
	for _, r := range g.Results {
		n += len(r.Package.Schemas) + len(r.Package.Failures) - len(r.Types)
	}
	return n
}

func relPath(base, path string) string {
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(abs, path); err == nil {
		return rel
	}
	return path
}
