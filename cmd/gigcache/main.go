package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/orgball2608/gigcache"
	"github.com/orgball2608/gigcache/internal/app"
	"github.com/orgball2608/gigcache/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "gigcache",
		Short:        "Caching proxy for the concert-data API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (yaml, json or toml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := build(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	})

	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Resolve one resource through the cache and print it as JSON",
	}
	fetch.AddCommand(&cobra.Command{
		Use:   "tour [page]",
		Short: "Fetch a page of the tour listing (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args)
			if err != nil {
				return err
			}
			a, err := build(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Service().TourPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	})
	fetch.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Fetch a single show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Service().Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	})
	root.AddCommand(fetch)
	return root
}

func build(ctx context.Context, configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build failed", "error", err)
		return nil, err
	}
	return a, nil
}

// parsePage returns the 1-based page from the optional argument.
func parsePage(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: invalid page %q", gigcache.ErrBadRequest, args[0])
	}
	return n, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
