package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/treesum/pkg/treesum/output"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check <snapshot-file>",
	Short: "Validate a saved snapshot document",
	Long: `Decode a YAML or JSON snapshot and report what it contains.

The format is taken from --format, then the file extension, then the
first character of the document. Use "-" to read standard input.
A malformed document is reported with the path of the offending entry.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "", "document format: yaml or json")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	format := checkFormat
	if format == "" {
		format = output.FormatFromPath(path)
	}

	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	tree, err := output.ReadTree(in, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	stats := tree.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid snapshot, %d files, %d directories\n", path, stats.Files, stats.Dirs)
	return nil
}
