package vectordb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// PGVectorProvider stores records in a Postgres table using the pgvector extension.
type PGVectorProvider struct {
	pool   *pgxpool.Pool
	table  string
	dims   int
	fields payloadFields
}

func NewPGVectorProvider(ctx context.Context, cfg config.VectorDBConfig, dims int) (*PGVectorProvider, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, upstream("pgvector connect", err)
	}
	return &PGVectorProvider{
		pool:   pool,
		table:  pgx.Identifier{cfg.Collection}.Sanitize(),
		dims:   dims,
		fields: newPayloadFields(cfg.Mapping),
	}, nil
}

func (p *PGVectorProvider) GetProviderType() string { return "pgvector" }

func (p *PGVectorProvider) Close() error {
	p.pool.Close()
	return nil
}

func ident(name string) string { return pgx.Identifier{name}.Sanitize() }

func (p *PGVectorProvider) EnsureCollection(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT PRIMARY KEY,
	%s TEXT NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT,
	%s TEXT,
	embedding vector(%d) NOT NULL
)`, p.table, ident(p.fields.question), ident(p.fields.answer),
			ident(p.fields.evidence[0]), ident(p.fields.evidence[1]), p.dims),
	}
	for _, s := range stmts {
		if _, err := p.pool.Exec(ctx, s); err != nil {
			return upstream("pgvector provision", err)
		}
	}
	return nil
}

// vectorLiteral renders v in pgvector text input format.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func (p *PGVectorProvider) Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error) {
	q := fmt.Sprintf(`SELECT id, %s, %s, %s, %s, 1 - (embedding <=> $1::vector) AS score
FROM %s ORDER BY embedding <=> $1::vector LIMIT $2`,
		ident(p.fields.question), ident(p.fields.answer),
		ident(p.fields.evidence[0]), ident(p.fields.evidence[1]), p.table)

	rows, err := p.pool.Query(ctx, q, vectorLiteral(vector), topK)
	if err != nil {
		return nil, upstream("pgvector search", err)
	}
	defer rows.Close()

	var found []pgRow
	for rows.Next() {
		var r pgRow
		if err := rows.Scan(&r.id, &r.question, &r.answer, &r.evidence1, &r.evidence2, &r.score); err != nil {
			return nil, upstream("pgvector scan", err)
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("pgvector search", err)
	}
	return pgMatches(found, topK), nil
}

// pgRow is one scanned search row; evidence columns are nullable.
type pgRow struct {
	id                   int64
	question, answer     string
	evidence1, evidence2 *string
	score                float64
}

func pgMatches(found []pgRow, topK int) []schema.RetrievedMatch {
	matches := make([]schema.RetrievedMatch, 0, len(found))
	for _, r := range found {
		matches = append(matches, schema.RetrievedMatch{
			RecordID: r.id,
			Question: r.question,
			Answer:   r.answer,
			Evidence: nonEmpty(deref(r.evidence1), deref(r.evidence2)),
			Score:    r.score,
		})
	}
	return rank(matches, topK)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (p *PGVectorProvider) Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error {
	if err := checkUpsert(records, vectors, p.dims); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	q, a, e1, e2 := ident(p.fields.question), ident(p.fields.answer), ident(p.fields.evidence[0]), ident(p.fields.evidence[1])
	stmt := fmt.Sprintf(`INSERT INTO %s (id, %s, %s, %s, %s, embedding) VALUES ($1, $2, $3, $4, $5, $6::vector)
ON CONFLICT (id) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, embedding = EXCLUDED.embedding`,
		p.table, q, a, e1, e2, q, q, a, a, e1, e1, e2, e2)

	batch := &pgx.Batch{}
	for i, r := range records {
		s := slots(r)
		batch.Queue(stmt, r.ID, r.Question, r.Answer, nullable(s[0]), nullable(s[1]), vectorLiteral(vectors[i]))
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return upstream("pgvector upsert", err)
		}
	}
	return nil
}

func (p *PGVectorProvider) Prune(ctx context.Context, keep int64) error {
	if _, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id >= $1`, p.table), keep); err != nil {
		return upstream("pgvector prune", err)
	}
	return nil
}
