package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/higress-group/docqa-bot/cache"
	"github.com/higress-group/docqa-bot/common/httpx"
	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/delivery"
	"github.com/higress-group/docqa-bot/embedding"
	"github.com/higress-group/docqa-bot/ingest"
	"github.com/higress-group/docqa-bot/llm"
	"github.com/higress-group/docqa-bot/memory"
	"github.com/higress-group/docqa-bot/orchestrator"
	"github.com/higress-group/docqa-bot/render"
	"github.com/higress-group/docqa-bot/schema"
	"github.com/higress-group/docqa-bot/vectordb"
)

// Client owns every provider of the bot and the orchestrator built on them.
type Client struct {
	config     *config.Config
	embedder   embedding.Provider
	store      vectordb.Provider
	llm        llm.Provider
	history    memory.ConversationStore
	rasterizer render.Rasterizer
	orch       *orchestrator.Orchestrator
}

// NewClient creates the providers described by cfg. The language model and the
// source document are optional: without a model only ingestion works, without a
// document evidence pages are reported as unavailable.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	c := &Client{config: cfg}
	hc := httpx.NewFromConfig(&cfg.HTTPClient)

	embeddingProvider, err := embedding.NewProvider(cfg.Embedding, hc)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider failed, err: %w", err)
	}
	c.embedder = embeddingProvider

	store, err := vectordb.NewProvider(ctx, cfg.VectorDB, cfg.Embedding.Dimensions, hc)
	if err != nil {
		return nil, fmt.Errorf("create vector store provider failed, err: %w", err)
	}
	c.store = store

	if cfg.LLM.Provider != "" {
		llmProvider, err := llm.NewLLMProvider(cfg.LLM)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create llm provider failed, err: %w", err)
		}
		c.llm = llmProvider
	}

	c.history = memory.NewInMemoryConversationStore(cfg.Pipeline.HistorySize, cfg.Pipeline.MaxSessions)

	if cfg.Render.Document != "" {
		pdf, err := render.NewPDFRasterizer(cfg.Render)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warnf("source document %s not found, evidence pages are disabled", cfg.Render.Document)
		case err != nil:
			store.Close()
			return nil, fmt.Errorf("create rasterizer failed, err: %w", err)
		default:
			logger.Infof("source document %s loaded, %d pages", cfg.Render.Document, pdf.PageCount())
			c.rasterizer = render.NewCached(pdf, cache.NewLRU[schema.PageImage](cfg.Render.CacheSize, cfg.Render.CacheTTL))
		}
	}

	if c.llm != nil {
		c.orch = &orchestrator.Orchestrator{
			Embedder: c.embedder,
			Store:    c.store,
			History:  c.history,
			LLM:      c.llm,
			Evidence: &delivery.EvidenceResolver{
				Rasterizer:    c.rasterizer,
				Timeout:       cfg.Timeouts.Render,
				CaptionFormat: cfg.Messages.PageCaption,
				FailureFormat: cfg.Messages.PageFailed,
			},
			Tokens: llm.NewTokenCounter(cfg.LLM.Encoding),
			Opts:   orchestrator.OptionsFromConfig(cfg),
		}
	}
	return c, nil
}

// Config returns the configuration the client was built from.
func (c *Client) Config() *config.Config { return c.config }

// Ask answers one question for a session and reports through sink.
func (c *Client) Ask(ctx context.Context, sessionID, question string, sink delivery.Sink) (orchestrator.Outcome, error) {
	if c.orch == nil {
		return orchestrator.OutcomeFailed, fmt.Errorf("llm provider not initialized")
	}
	return c.orch.Handle(ctx, sessionID, question, sink)
}

// CreateCollection provisions the knowledge collection if it does not exist.
func (c *Client) CreateCollection(ctx context.Context) error {
	if err := c.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("create collection %s failed, err: %w", c.config.VectorDB.Collection, err)
	}
	return nil
}

// Loader returns an ingestion loader bound to the client's providers.
func (c *Client) Loader(batchSize int) *ingest.Loader {
	return &ingest.Loader{Embedder: c.embedder, Store: c.store, BatchSize: batchSize}
}

// LoadFile reads a records file and upserts it into the knowledge collection.
func (c *Client) LoadFile(ctx context.Context, path string, batchSize int) (ingest.Report, error) {
	records, err := ingest.ReadRecords(path)
	if err != nil {
		return ingest.Report{}, err
	}
	report, err := c.Loader(batchSize).Load(ctx, records)
	logger.Infof("load %s: %d loaded, %d failed", path, report.Loaded, report.Failed)
	return report, err
}

// ClearHistory forgets the conversation of one session.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return c.history.Clear(ctx, sessionID)
}

// Close releases the vector store connection.
func (c *Client) Close() error {
	var result *multierror.Error
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close vector store: %w", err))
		}
	}
	return result.ErrorOrNil()
}
