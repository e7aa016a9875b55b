package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/CageChen/assethub/internal/handler"
	"github.com/CageChen/assethub/internal/resource"
	"github.com/CageChen/assethub/internal/watcher"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured resources over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			if noWatch {
				cfg.Watch = false
			}

			a.logger.Info("starting AssetHub", "config", cfg.GetConfigFilePath(), "addr", cfg.Addr)
			for _, s := range cfg.Sources {
				a.logger.Info("serving source", "name", s.Name, "path", s.Path, "pattern", s.Pattern, "git_ref", s.GitRef)
			}

			resources := handler.NewResourceHandler(cfg, a.logger)
			ws := handler.NewWSHandler()

			if cfg.Watch {
				w, err := watcher.New(cfg.Sources, a.logger)
				if err != nil {
					a.logger.Warn("failed to create file watcher", "error", err)
				} else {
					w.OnChange(ws.OnResourceChange)
					if err := w.Start(); err != nil {
						a.logger.Warn("failed to start file watcher", "error", err)
					}
					defer func() { _ = w.Stop() }()
					a.logger.Info("file watcher enabled")
				}
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           handler.NewRouter(resources, ws),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable the file watcher")
	return cmd
}

func newFreshCommand(a *app) *cobra.Command {
	var src adhoc
	var since int64

	cmd := &cobra.Command{
		Use:   "fresh [source]",
		Short: "Check whether a resource is unchanged since a unix timestamp",
		Long: `Check whether every file of a resource was last modified at or before
--since. Exits with status 1 when the resource is stale.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("since") {
				return errors.New("--since is required")
			}
			r, err := src.open(a, args)
			if err != nil {
				return err
			}
			fresh, err := r.IsFresh(since)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !fresh {
				_, _ = color.New(color.FgRed, color.Bold).Fprintln(out, "STALE")
				return errStale
			}
			_, err = color.New(color.FgGreen, color.Bold).Fprintln(out, "FRESH")
			return err
		},
	}

	src.register(cmd)
	cmd.Flags().Int64Var(&since, "since", 0, "unix timestamp of the last build")
	return cmd
}

func newContentCommand(a *app) *cobra.Command {
	var src adhoc

	cmd := &cobra.Command{
		Use:   "content [source]",
		Short: "Print the aggregated content of a resource",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := src.open(a, args)
			if err != nil {
				return err
			}
			content, err := r.Content()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}

	src.register(cmd)
	return cmd
}

func newFilesCommand(a *app) *cobra.Command {
	var src adhoc
	var long bool

	cmd := &cobra.Command{
		Use:   "files [source]",
		Short: "List the files of a resource in walk order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := src.open(a, args)
			if err != nil {
				return err
			}

			files := []resource.Resource{r}
			if dir, ok := r.(*resource.DirectoryResource); ok {
				if files, err = dir.Files(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if !long {
				for _, f := range files {
					if p, ok := f.(resource.PathResource); ok {
						if err := writeLine(out, p.Path()); err != nil {
							return err
						}
					}
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, f := range files {
				file, ok := f.(*resource.FileResource)
				if !ok {
					continue
				}
				info, err := file.Stat()
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.ModTime.UTC().Format(time.RFC3339), info.Size, file.Path())
			}
			return tw.Flush()
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVarP(&long, "long", "l", false, "include modification time and size")
	return cmd
}
