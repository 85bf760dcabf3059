package main

import (
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"categorycrawler/internal/pkg/sink"
)

// reportCommand renders a previously written CSV as a Markdown table.
func reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <file.csv>",
		Short: "Prints a Markdown summary of a counts CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := sink.LoadCSV(args[0])
			if err != nil {
				return errors.Wrap(err, "load counts")
			}

			title := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			return sink.WriteMarkdown(cmd.OutOrStdout(), sink.Summary{
				Title:  "Entries by first letter: " + title,
				Counts: counts,
			})
		},
	}
}
