package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hupe1980/arbor"
)

type rootCmdConfig struct {
	verbose   bool
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cliParser().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "arbor",
		Short:         "arbor trains decision forests",
		Long:          `A tool to train regression and classification forests from CSV data`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&config.verbose, "verbose", "v", false, "log per-tree and per-level details")
	rootCmd.PersistentFlags().StringVar(&config.logFormat, "log-format", "text", "log format: text or json")
	rootCmd.AddCommand(versionCmd(), trainCmd(config))
	return rootCmd
}

func (c *rootCmdConfig) logger() *arbor.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.logFormat == "json" {
		return arbor.NewJSONLogger(level)
	}
	return arbor.NewTextLogger(level)
}
