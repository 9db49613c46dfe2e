package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/renameio"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/treesum/pkg/treesum/cache"
	"github.com/jamesainslie/treesum/pkg/treesum/config"
	"github.com/jamesainslie/treesum/pkg/treesum/digest"
	"github.com/jamesainslie/treesum/pkg/treesum/ignore"
	"github.com/jamesainslie/treesum/pkg/treesum/logging"
	"github.com/jamesainslie/treesum/pkg/treesum/manifest"
	"github.com/jamesainslie/treesum/pkg/treesum/output"
	"github.com/jamesainslie/treesum/pkg/treesum/scanner"
)

// snapshotter holds what repeated scans of one root share.
type snapshotter struct {
	cfg     *config.Config
	root    string
	algo    digest.Algorithm
	matcher *ignore.Matcher
	cache   *cache.Cache
}

// newSnapshotter compiles ignore rules and opens the digest cache. A cache
// that cannot be opened (for example, locked by another treesum) is
// skipped with a warning.
func newSnapshotter(c *config.Config, root string) (*snapshotter, error) {
	algo, err := digest.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}

	if _, err := output.Get(c.Output); err != nil {
		return nil, err
	}

	matcher, err := ignore.New(root, ignore.Options{
		Hidden:    c.Hidden,
		GitIgnore: c.GitIgnore,
		Exclude:   c.Exclude,
	})
	if err != nil {
		return nil, err
	}

	s := &snapshotter{cfg: c, root: root, algo: algo, matcher: matcher}

	if c.Cache.Enabled {
		dc, err := cache.Open(c.Cache.Path)
		if err != nil {
			logging.Get("cache").Warn("cache unavailable", "path", c.Cache.Path, "error", err)
			printWarning("digest cache unavailable, hashing every file: %v", err)
		} else {
			s.cache = dc
		}
	}

	return s, nil
}

func (s *snapshotter) scan(ctx context.Context) (*scanner.Result, error) {
	sc, err := scanner.New(scanner.Options{
		Root:           s.root,
		Algorithm:      s.algo,
		Ignore:         s.matcher,
		DirWorkers:     s.cfg.Workers.Dir,
		FileWorkers:    s.cfg.Workers.File,
		FollowSymlinks: s.cfg.FollowSymlinks,
		Cache:          s.cache,
	})
	if err != nil {
		return nil, err
	}
	return sc.Scan(ctx)
}

func (s *snapshotter) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// runScan snapshots one directory and prints it.
func runScan(cmd *cobra.Command, args []string) error {
	root := config.DefaultPath
	if len(args) > 0 {
		root = args[0]
	}

	file, _ := cmd.Flags().GetString("file")
	format := cfg.Output
	if file != "" && !cmd.Flags().Changed("output") {
		if guessed := output.FormatFromPath(file); guessed != "" {
			format = guessed
		}
	}
	cfg.Output = format

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := newSnapshotter(cfg, root)
	if err != nil {
		return err
	}
	defer snap.Close()

	res, err := snap.scan(ctx)
	if err != nil {
		return err
	}

	data, err := render(format, res)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), file, data); err != nil {
		return err
	}

	if cfg.History.Enabled {
		saveHistory(res)
	}

	return scanStatus(res, format)
}

// render formats a scan result.
func render(format string, res *scanner.Result) ([]byte, error) {
	formatter, err := output.Get(format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, output.FromScan(res)); err != nil {
		return nil, fmt.Errorf("formatting %s output: %w", format, err)
	}
	return buf.Bytes(), nil
}

// writeOutput writes to w, or atomically replaces file when one is given.
func writeOutput(w io.Writer, file string, data []byte) error {
	if file == "" {
		_, err := w.Write(data)
		return err
	}

	if err := renameio.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}

func saveHistory(res *scanner.Result) {
	log := logging.Get("history")

	m, err := manifest.New(cfg.History.Path)
	if err != nil {
		log.Warn("history unavailable", "error", err)
		return
	}

	entry, err := m.Record(res.Root, res.Algorithm.String(), res.Tree, res.Stats, res.Errors, res.Interrupted)
	if err != nil {
		log.Warn("failed to save snapshot", "error", err)
		printWarning("failed to save snapshot to history: %v", err)
		return
	}

	log.Info("snapshot saved", "id", entry.ID, "root", res.Root)
	printInfo("saved snapshot %s", entry.ShortID())

	if removed, err := m.Cleanup(cfg.History.RetentionDays); err == nil && removed > 0 {
		log.Info("expired snapshots removed", "count", removed)
	}
}

// scanStatus reports skipped entries on stderr and maps the result to an
// exit status. The pretty format already lists skipped entries.
func scanStatus(res *scanner.Result, format string) error {
	if format != "pretty" {
		for _, e := range res.Errors {
			printWarning("skipped %s: %s", e.Path, e.Error)
		}
	}

	switch {
	case res.Interrupted:
		printWarning("interrupted, snapshot is incomplete")
		return &exitError{code: exitInterrupted}
	case len(res.Errors) > 0:
		printWarning("%d entries could not be read and are missing from the snapshot", len(res.Errors))
		return &exitError{code: exitSkipped}
	default:
		return nil
	}
}
