package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/higress-group/docqa-bot/app"
	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/ingest"
)

func newCollectionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage the knowledge collection",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create the knowledge collection if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts.cfg, func(ctx context.Context, client *app.Client) error {
				if err := client.CreateCollection(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "collection %s is ready\n", opts.cfg.VectorDB.Collection)
				return nil
			})
		},
	})
	return cmd
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	var (
		batchSize int
		watch     bool
	)
	cmd := &cobra.Command{
		Use:   "load <records.json>",
		Short: "Embed knowledge records and upsert them into the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			return withClient(ctx, opts.cfg, func(ctx context.Context, client *app.Client) error {
				report, err := client.LoadFile(ctx, path, batchSize)
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d records, %d failed\n", report.Loaded, report.Failed)
				if !watch {
					return err
				}
				if err != nil {
					logger.Errorf("initial load of %s incomplete: %v", path, err)
				}
				logger.Infof("watching %s for changes", path)
				return ingest.Watch(ctx, path, 500*time.Millisecond, func(ctx context.Context) error {
					_, err := client.LoadFile(ctx, path, batchSize)
					return err
				})
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 32, "records embedded per request")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the file whenever it changes")
	return cmd
}
