package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/treesum/pkg/treesum/digest"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List supported digest algorithms",
	Long: `List the digest algorithms accepted by --algorithm.

Non-cryptographic algorithms are fast but only detect accidental changes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		for _, a := range digest.Algorithms() {
			kind := "cryptographic"
			if !a.Cryptographic() {
				kind = "non-cryptographic"
			}
			marker := ""
			if a == digest.DefaultAlgorithm {
				marker = " (default)"
			}
			fmt.Fprintf(out, "%-10s %4d bits  %s%s\n", a, a.Size()*8, kind, marker)
		}
	},
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
}
