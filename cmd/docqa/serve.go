package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/higress-group/docqa-bot/app"
	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/transport/console"
	"github.com/higress-group/docqa-bot/transport/mcpserver"
	"github.com/higress-group/docqa-bot/transport/telegram"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var pagesDir string
	cmd := &cobra.Command{
		Use:       "serve {telegram|mcp|console}",
		Short:     "Answer questions over a chat transport",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"telegram", "mcp", "console"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			stopMetrics := startMetrics(opts.cfg.Metrics)
			err := withClient(ctx, opts.cfg, func(ctx context.Context, client *app.Client) error {
				switch args[0] {
				case "telegram":
					return telegram.Serve(ctx, opts.cfg, client)
				case "mcp":
					s := mcpserver.NewServer("docqa", client, client)
					return mcpserver.ServeStdio(ctx, s, os.Stdin, os.Stdout)
				case "console":
					return console.Run(ctx, client, pagesDir)
				default:
					return fmt.Errorf("unknown transport %q", args[0])
				}
			})

			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if serr := stopMetrics(shutdownCtx); serr != nil {
				err = multierror.Append(err, serr)
			}
			logger.Infof("%s transport stopped", args[0])
			return err
		},
	}
	cmd.Flags().StringVar(&pagesDir, "pages-dir", "", "console only: directory to save evidence page images to")
	return cmd
}
