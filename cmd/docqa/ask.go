package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/higress-group/docqa-bot/app"
	"github.com/higress-group/docqa-bot/schema"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		session  string
		pagesDir string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withClient(cmd.Context(), opts.cfg, func(ctx context.Context, client *app.Client) error {
				sink := &writerSink{w: cmd.OutOrStdout(), pagesDir: pagesDir}
				_, err := client.Ask(ctx, session, question, sink)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&session, "session", "cli", "conversation id")
	cmd.Flags().StringVar(&pagesDir, "pages-dir", "", "directory to save evidence page images to")
	return cmd
}

// writerSink prints answers and saves evidence pages.
type writerSink struct {
	w        io.Writer
	pagesDir string
}

func (s *writerSink) SendText(ctx context.Context, text string) error {
	_, err := fmt.Fprintln(s.w, text)
	return err
}

func (s *writerSink) SendImage(ctx context.Context, img schema.PageImage, caption string) error {
	if s.pagesDir == "" {
		_, err := fmt.Fprintf(s.w, "[%s]\n", caption)
		return err
	}
	path := filepath.Join(s.pagesDir, "page_"+img.Page+".jpg")
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.w, "[%s: %s]\n", caption, path)
	return err
}

func (s *writerSink) SendProgress(ctx context.Context) error { return nil }
