package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/crossgcn/internal/config"
	"github.com/spf13/cobra"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	model      string

	cfg    *config.File
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "crossgcn",
		Short:         "Cross-domain graph convolution models",
		Long:          `crossgcn builds the joint-graph GCN and the intra/inter GCN on the Born CPU backend, prints their adjacency matrices and runs forward passes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML model config (defaults apply when empty)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&opts.model, "model", "", "model to build: gcn or intra-inter (overrides the config)")

	root.AddCommand(
		newVersionCmd(),
		newAdjacencyCmd(opts),
		newForwardCmd(opts),
	)
	return root
}

// setup loads the config and builds the logger.
func (o *options) setup(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}
	o.logger = newLogger(cmd.ErrOrStderr(), level)

	o.cfg = config.Default()
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		o.cfg = cfg
		o.logger.Debug("config loaded", "path", o.configPath)
	}
	if o.model != "" {
		o.cfg.Model = o.model
		if err := o.cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "crossgcn %s\n", version)
			return err
		},
	}
}
