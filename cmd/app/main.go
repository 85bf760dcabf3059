// Command app crawls a paginated wiki category and writes the number of
// entries per first letter to a CSV file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"categorycrawler/internal/pkg/config"
	"categorycrawler/internal/pkg/logger"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to a process exit code:
// 0 when the crawl finished (even if saving the CSV failed), 1 otherwise.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := &config.Config{}
	rootCmd := newRootCommand(cfg)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "categorycrawler",
		Short:         "Counts category entries by first letter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded
			logger.Setup(cfg.Environment)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML); environment variables are used when empty")

	// without a subcommand the crawler runs with its defaults
	flags := &crawlFlags{}
	addCrawlFlags(rootCmd.Flags(), flags)
	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runCrawl(cmd, cfg, flags)
	}

	rootCmd.AddCommand(
		crawlCommand(cfg),
		reportCommand(),
	)

	return rootCmd
}
