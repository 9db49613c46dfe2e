package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/treesum/pkg/treesum/config"
	"github.com/jamesainslie/treesum/pkg/treesum/manifest"
	"github.com/jamesainslie/treesum/pkg/treesum/output"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View saved snapshots",
	Long: `View snapshots recorded with --save or history.enabled.

Each entry keeps the full tree, so an old snapshot can be printed again
and compared with a fresh one.`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved snapshot",
	Long:  `Print a saved snapshot in the --output format. The ID may be abbreviated to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove snapshots older than the retention period",
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to list")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func getManifest() (*manifest.Manifest, error) {
	m, err := manifest.New(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return m, nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return err
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No saved snapshots.")
		fmt.Fprintln(out, "Run 'treesum --save [path]' to record one.")
		return nil
	}

	fmt.Fprintf(out, "%-8s  %-19s  %-8s  %8s  %10s  %s\n", "ID", "TIME", "ALGO", "FILES", "SIZE", "ROOT")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, e := range entries {
		root := e.Root
		if e.Interrupted {
			root += " (partial)"
		}
		fmt.Fprintf(out, "%-8s  %-19s  %-8s  %8d  %10s  %s\n",
			e.ShortID(),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Algorithm,
			e.Stats.Files,
			types.FormatSize(e.Stats.Bytes),
			root,
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return err
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return err
	}

	formatter, err := output.Get(cfg.Output)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = formatter.Format(&buf, &output.Result{
		Source:      entry.Root,
		Algorithm:   entry.Algorithm,
		Tree:        entry.Tree,
		Stats:       entry.Stats,
		Errors:      entry.Errors,
		Interrupted: entry.Interrupted,
	})
	if err != nil {
		return err
	}

	printInfo("snapshot %s of %s taken %s", entry.ID, entry.Root, entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func runHistoryClean(cmd *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return err
	}

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	removed, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshots older than %d days.\n", removed, retentionDays)
	return nil
}
