package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/higress-group/docqa-bot/app"
	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/metrics"
)

const defaultConfigPath = "config.yaml"

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func (o *rootOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")
	fs.StringVar(&o.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// load reads the config. The default path may be absent, an explicit one may not.
func (o *rootOptions) load(fs *pflag.FlagSet) error {
	path := o.configPath
	if !fs.Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	o.cfg = cfg
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "docqa",
		Short:         "Question answering bot over a curated knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.Flags())
		},
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCmd(opts),
		newCollectionCmd(opts),
		newLoadCmd(opts),
		newAskCmd(opts),
	)
	return cmd
}

// withClient builds the client, runs fn and closes the client afterwards.
func withClient(ctx context.Context, cfg *config.Config, fn func(context.Context, *app.Client) error) (err error) {
	client, err := app.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()
	return fn(ctx, client)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// startMetrics serves /metrics when enabled. The returned function shuts it down.
func startMetrics(cfg config.MetricsConfig) func(context.Context) error {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("metrics listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()
	return func(ctx context.Context) error {
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	}
}
