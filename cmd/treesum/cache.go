package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/treesum/pkg/treesum/cache"
	"github.com/jamesainslie/treesum/pkg/treesum/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the digest cache.

The cache remembers each file's digest together with its size and
modification time, so repeat snapshots only read files that changed.
Cache data is stored in the XDG cache directory (typically ~/.cache/treesum/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Clear cached digests",
	Long:  `Removes cached digests for one snapshot root, or for every root when no path is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Path)
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer c.Close()

	if len(args) == 0 {
		if err := c.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := c.Clear(root); err != nil {
		return fmt.Errorf("failed to clear cache for %s: %w", root, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared for %s.\n", root)
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer c.Close()

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache location: %s\n", cfg.Cache.Path)
	fmt.Fprintf(out, "Entries:        %d\n", stats.Entries)
	fmt.Fprintf(out, "Roots:          %d\n", stats.Roots)
	fmt.Fprintf(out, "Disk usage:     %s\n", types.FormatSize(stats.DiskBytes))
	return nil
}
