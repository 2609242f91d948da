package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/totegamma/aquamind/internal/config"
)

var version = "dev"

type rootOptions struct {
	ConfigPath string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "aquamind",
		Short:         "aquamind community feed server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", os.Getenv("AQUAMIND_CONFIG"), "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newTailCommand(opts))

	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.ConfigPath)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()), slog.String("module", "main"))
		os.Exit(1)
	}
}
