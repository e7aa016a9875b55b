package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/CageChen/assethub/internal/config"
	"github.com/CageChen/assethub/internal/resource"
	"github.com/spf13/cobra"
)

// errStale is returned by "fresh" so the process exits non-zero without an error message.
var errStale = errors.New("resource is stale")

// app carries what every command needs once flags are parsed
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", "path", cfg.GetConfigFilePath(), "sources", len(cfg.Sources))
	return nil
}

// NewRootCommand creates the root command with every subcommand attached
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "assethub",
		Short: "Freshness checks and aggregated content for asset directories",
		Long: `AssetHub treats a directory tree, filtered by a file name pattern, as one
resource. It tells a build pipeline whether anything under the tree changed
since a timestamp and returns the concatenated content of the matched files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file path")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log traversal details")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newFreshCommand(a))
	cmd.AddCommand(newContentCommand(a))
	cmd.AddCommand(newFilesCommand(a))

	return cmd
}

// adhoc describes a resource given on the command line instead of by source name
type adhoc struct {
	config.Source
}

func (s *adhoc) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Path, "path", "", "directory or file to use instead of a configured source")
	cmd.Flags().StringVar(&s.Kind, "kind", "", "resource kind: directory or file")
	cmd.Flags().StringVar(&s.Pattern, "pattern", "", "file name pattern")
	cmd.Flags().StringVar(&s.Engine, "engine", "", "pattern engine: re2 or pcre")
	cmd.Flags().StringVar(&s.GitRef, "git-ref", "", "read from this git ref of the repository at --path")
	cmd.Flags().StringVar(&s.SubPath, "sub-path", "", "directory below --path to use as the root")
}

// resolve picks the named source, or the ad hoc one when --path is set
func (s *adhoc) resolve(a *app, args []string) (config.Source, error) {
	if s.Path != "" {
		if len(args) > 0 {
			return config.Source{}, errors.New("give either a source name or --path, not both")
		}
		src := s.Source
		src.Name = "adhoc"
		return src, nil
	}
	if len(args) != 1 {
		return config.Source{}, errors.New("a source name or --path is required")
	}
	src, ok := a.cfg.Source(args[0])
	if !ok {
		return config.Source{}, &resource.Error{Kind: resource.KindNotFound, Op: "lookup", Path: args[0], Err: fmt.Errorf("no source named %q", args[0])}
	}
	return src, nil
}

func (s *adhoc) open(a *app, args []string) (resource.Resource, error) {
	src, err := s.resolve(a, args)
	if err != nil {
		return nil, err
	}
	return src.Open(a.logger)
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
