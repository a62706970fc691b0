package main

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/cmpby/compiler/gen"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [patterns]",
		Short: "Regenerate whenever a source file changes",
		Long: `Watch generates the packages matching the patterns, then regenerates them
every time a Go source file of one of their directories changes. Changes
are coalesced for the debounce interval. Generation errors are reported
and watching continues.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Logger.Sync() }()
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			regen := func() error {
				g, err := generate(cmd, cfg, args)
				if err != nil {
					cfg.Logger.Error("generation failed", zap.Error(err))
				}
				watchResults(w, cfg, g)
				return nil
			}
			if err := regen(); err != nil {
				return err
			}
			return watchLoop(cmd.Context(), w.Events, w.Errors, debounce, cfg.Suffix, cfg.Logger, regen)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "interval coalescing changes")
	return cmd
}

// watchResults adds the directories of the last generated packages to the
// watcher. Adding a watched directory again is a no-op.
func watchResults(w *fsnotify.Watcher, cfg *gen.Config, g *gen.Graph) {
	dirs := make(map[string]bool)
	for _, d := range w.WatchList() {
		dirs[d] = true
	}
	if cfg.Dir != "" && !dirs[cfg.Dir] {
		if err := w.Add(cfg.Dir); err == nil {
			dirs[cfg.Dir] = true
		}
	}
	if g == nil {
		return
	}
	for _, r := range g.Results {
		if dir := r.Package.Dir; dir != "" && !dirs[dir] {
			if err := w.Add(dir); err != nil {
				cfg.Logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			dirs[dir] = true
		}
	}
}

// relevant reports whether an event may change the generated code: a
// write, creation, removal or rename of a Go source file that is neither a
// test nor a generated file.
func relevant(ev fsnotify.Event, suffix string) bool {
	if suffix == "" {
		suffix = gen.DefaultSuffix
	}
	name := filepath.Base(ev.Name)
	switch {
	case !strings.HasSuffix(name, ".go"),
		strings.HasSuffix(name, "_test.go"),
		strings.HasSuffix(name, suffix),
		strings.HasPrefix(name, "."):
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// watchLoop calls regen once per burst of relevant events, after the burst
// has been quiet for the debounce interval. It returns when ctx is done or
// the watcher channels are closed.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, suffix string, log *zap.Logger, regen func() error) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !relevant(ev, suffix) {
				continue
			}
			log.Debug("change", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(debounce)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			if err := regen(); err != nil {
				return err
			}
		}
	}
}
