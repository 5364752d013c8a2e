package vectordb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/higress-group/docqa-bot/common/httpx"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// QdrantProvider talks to Qdrant over its REST API.
type QdrantProvider struct {
	baseURL    string
	collection string
	dims       int
	header     http.Header
	fields     payloadFields
	client     *httpx.Client
}

func NewQdrantProvider(cfg config.VectorDBConfig, dims int, hc *httpx.Client) *QdrantProvider {
	if hc == nil {
		hc = httpx.NewFromConfig(nil)
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("api-key", cfg.APIKey)
	}
	return &QdrantProvider{
		baseURL:    fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port),
		collection: cfg.Collection,
		dims:       dims,
		header:     header,
		fields:     newPayloadFields(cfg.Mapping),
		client:     hc,
	}
}

func (q *QdrantProvider) GetProviderType() string { return "qdrant" }

func (q *QdrantProvider) Close() error { return nil }

func (q *QdrantProvider) collectionURL(suffix string) string {
	return q.baseURL + "/collections/" + url.PathEscape(q.collection) + suffix
}

// EnsureCollection creates the collection with cosine distance unless it already exists.
func (q *QdrantProvider) EnsureCollection(ctx context.Context) error {
	_, err := q.client.JSON(ctx, http.MethodGet, q.collectionURL(""), q.header, nil)
	if err == nil {
		return nil
	}
	var se *httpx.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		return upstream("qdrant get collection", err)
	}

	body := map[string]any{
		"vectors": map[string]any{"size": q.dims, "distance": "Cosine"},
	}
	_, err = q.client.JSON(ctx, http.MethodPut, q.collectionURL(""), q.header, body)
	if errors.As(err, &se) && se.Status == http.StatusConflict {
		// created concurrently
		return nil
	}
	if err != nil {
		return upstream("qdrant create collection", err)
	}
	return nil
}

func (q *QdrantProvider) Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	data, err := q.client.JSON(ctx, http.MethodPost, q.collectionURL("/points/search"), q.header, body)
	if err != nil {
		return nil, upstream("qdrant search", err)
	}

	points := gjson.GetBytes(data, "result").Array()
	matches := make([]schema.RetrievedMatch, 0, len(points))
	for _, p := range points {
		question, answer, evidence := q.fields.decode(p.Get("payload"))
		matches = append(matches, schema.RetrievedMatch{
			RecordID: p.Get("id").Int(),
			Question: question,
			Answer:   answer,
			Evidence: evidence,
			Score:    p.Get("score").Float(),
		})
	}
	return rank(matches, topK), nil
}

type qdrantPoint struct {
	ID      int64          `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (q *QdrantProvider) Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error {
	if err := checkUpsert(records, vectors, q.dims); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	points := make([]qdrantPoint, len(records))
	for i, r := range records {
		points[i] = qdrantPoint{ID: r.ID, Vector: vectors[i], Payload: q.fields.encode(r)}
	}
	_, err := q.client.JSON(ctx, http.MethodPut, q.collectionURL("/points?wait=true"), q.header, map[string]any{"points": points})
	if err != nil {
		return upstream("qdrant upsert", err)
	}
	return nil
}

// Prune deletes every point outside ids [0, keep). Qdrant filters on point ids by
// set membership only, so the kept ids are listed explicitly.
func (q *QdrantProvider) Prune(ctx context.Context, keep int64) error {
	if keep < 0 {
		keep = 0
	}
	ids := make([]int64, keep)
	for i := range ids {
		ids[i] = int64(i)
	}
	body := map[string]any{
		"filter": map[string]any{
			"must_not": []any{map[string]any{"has_id": ids}},
		},
	}
	_, err := q.client.JSON(ctx, http.MethodPost, q.collectionURL("/points/delete?wait=true"), q.header, body)
	if err != nil {
		return upstream("qdrant prune", err)
	}
	return nil
}
