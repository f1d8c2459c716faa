// Package cli is the storefront command line: browse the catalog, manage the
// cart, sign in and check out against the ErrorFix API.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dejobratic/errorfix/internal/clientconfig"
	"github.com/dejobratic/errorfix/internal/telemetry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string

	open Opener
}

var ValidFormats = []string{"text", "json"}

const (
	serviceName    = "errorfix-storefront"
	serviceVersion = "0.1.0"
)

// NewRootCommand creates the storefront root command backed by the configured
// API and snapshot storage.
func NewRootCommand() *cobra.Command {
	return newRootCommand(OpenSession)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "ErrorFix storefront",
		Long:  "Browse ErrorFix products, keep a cart between runs and check out.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default "+clientconfig.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newProductsCommand(opts))
	cmd.AddCommand(newCartCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newCheckoutCommand(opts))

	return cmd
}

// withSession loads config, opens a session and closes it after fn returns.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *Session, out *printer) error) error {
	cfg, err := clientconfig.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, opts.Verbose)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Telemetry.Endpoint != "" {
		tel, err := telemetry.Initialize(ctx, telemetry.Config{
			ServiceName:    serviceName,
			ServiceVersion: serviceVersion,
			Environment:    "client",
			OTLPEndpoint:   cfg.Telemetry.Endpoint,
			EnableTracing:  true,
			EnableMetrics:  true,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.WarnContext(ctx, "failed to flush telemetry", "error", err)
			}
		}()
	}

	session, err := opts.open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close session", "error", err)
		}
	}()

	return fn(ctx, session, &printer{format: opts.Format, w: cmd.OutOrStdout()})
}

func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	lvl, err := telemetry.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return telemetry.NewLogger(w, lvl, telemetry.FormatText), nil
}
