package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/treesum/pkg/treesum/config"
	"github.com/jamesainslie/treesum/pkg/treesum/logging"
)

var (
	cfgFile string

	// cfg is loaded in PersistentPreRunE before any command runs.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "treesum [path]",
		Short: "Snapshot a directory tree as nested content digests",
		Long: `Treesum walks a directory and prints a nested document mirroring it:
directories become mappings and files become the hex digest of their content.

Two snapshots of the same tree are identical, so the output can be stored,
diffed and compared with ordinary tools.

Examples:
  treesum                        # Snapshot the current directory as YAML
  treesum ~/src/project -o json  # JSON output
  treesum -a sha256 -o plain .   # sha256sum-style lines
  treesum -f snap.yaml .         # Write the snapshot to a file atomically
  treesum check snap.yaml        # Validate a saved snapshot
  treesum watch .                # Re-snapshot whenever something changes`,
		Args:              cobra.MaximumNArgs(1),
		RunE:              runScan,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/treesum/config.yaml)")
	pf.BoolP("quiet", "q", false, "suppress warnings on stderr")
	pf.BoolP("verbose", "v", false, "debug logging on stderr")

	// Snapshot flags are shared by the root command and watch.
	pf.StringP("algorithm", "a", "", "digest algorithm (see 'treesum algorithms')")
	pf.StringP("output", "o", "", "output format: yaml, json, plain, pretty")
	pf.StringSliceP("exclude", "e", nil, "exclude glob (can be specified multiple times)")
	pf.Bool("hidden", false, "include dot-prefixed files and directories")
	pf.Bool("no-gitignore", false, "do not honour .gitignore files")
	pf.Bool("follow-symlinks", false, "hash symlink targets instead of skipping links")
	pf.IntP("workers", "w", 0, "hashing workers (0=auto)")
	pf.Bool("no-cache", false, "read every file, bypassing the digest cache")

	_ = viper.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("algorithm", pf.Lookup("algorithm"))
	_ = viper.BindPFlag("output", pf.Lookup("output"))
	_ = viper.BindPFlag("exclude", pf.Lookup("exclude"))
	_ = viper.BindPFlag("hidden", pf.Lookup("hidden"))
	_ = viper.BindPFlag("follow_symlinks", pf.Lookup("follow-symlinks"))
	_ = viper.BindPFlag("workers.file", pf.Lookup("workers"))

	rootCmd.Flags().StringP("file", "f", "", "write output to this file instead of stdout")
	rootCmd.Flags().Bool("save", false, "record the snapshot in history")
	_ = viper.BindPFlag("history.enabled", rootCmd.Flags().Lookup("save"))
}

// configErr holds a config file read failure until a command runs.
var configErr error

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	if err := config.Configure(v, cfgFile); err != nil {
		configErr = err
		return
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = fmt.Errorf("failed to read config file: %w", err)
		}
	}
}

// bootstrap decodes the configuration, applies the inverted flags and
// starts logging.
func bootstrap(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}

	v := viper.GetViper()
	if flag := cmd.Flags().Lookup("no-gitignore"); flag != nil && flag.Changed {
		v.Set("gitignore", false)
	}
	if flag := cmd.Flags().Lookup("no-cache"); flag != nil && flag.Changed {
		v.Set("cache.enabled", false)
	}

	loaded, err := config.Decode(v)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := initLogging(cfg); err != nil {
		printWarning("logging disabled: %v", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printWarning writes to stderr unless quiet mode is enabled.
func printWarning(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, "treesum: "+format+"\n", args...)
	}
}

// printInfo writes status lines to stderr, keeping stdout for documents.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
