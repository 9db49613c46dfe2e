package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/treesum/pkg/treesum/config"
	"github.com/jamesainslie/treesum/pkg/treesum/logging"
	"github.com/jamesainslie/treesum/pkg/treesum/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Print a new snapshot whenever the tree changes",
	Long: `Snapshot a directory, then watch it and print a fresh snapshot each
time changes settle for watch.debounce (default 500ms).

YAML snapshots are separated by "---" so the stream is a valid
multi-document file. The digest cache keeps each rescan cheap: only
changed files are read again. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := config.DefaultPath
	if len(args) > 0 {
		root = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := newSnapshotter(cfg, root)
	if err != nil {
		return err
	}
	defer snap.Close()

	w, err := watcher.New(root, snap.matcher.Match)
	if err != nil {
		return err
	}
	defer w.Close()

	log := logging.Get("watcher")
	log.Info("watching", "root", w.Root(), "directories", w.Watched())

	out := cmd.OutOrStdout()
	first := true
	emit := func(ctx context.Context) {
		res, err := snap.scan(ctx)
		if err != nil {
			log.Error("snapshot failed", "error", err)
			printWarning("snapshot failed: %v", err)
			return
		}
		if res.Interrupted {
			return
		}

		data, err := render(cfg.Output, res)
		if err != nil {
			printWarning("%v", err)
			return
		}
		if !first && cfg.Output == "yaml" {
			_, _ = out.Write([]byte("---\n"))
		}
		first = false
		_, _ = out.Write(data)

		for _, e := range res.Errors {
			printWarning("skipped %s: %s", e.Path, e.Error)
		}
	}

	emit(ctx)
	w.RunDebounced(ctx, cfg.Watch.Debounce, emit)
	return nil
}
