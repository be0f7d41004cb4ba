// Package knowledge provides the vector-search document store behind the
// information agent: a pgvector-backed implementation for deployments and an
// in-memory one for demos and tests.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

const defaultEmbeddingDim = 1536

type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true"`
	EmbeddingDim int           `envconfig:"EMBEDDING_DIM" split_words:"true" default:"1536"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type documentRow struct {
	bun.BaseModel `bun:"table:procurement_documents"`

	ID        string            `bun:"id,pk"`
	Content   string            `bun:"content,notnull"`
	Metadata  map[string]string `bun:"metadata,type:jsonb"`
	Embedding string            `bun:"embedding"`
	CreatedAt time.Time         `bun:"created_at,notnull,default:current_timestamp"`

	Score float64 `bun:"score,scanonly"`
}

// BunStore keeps documents with their embeddings in Postgres and answers
// nearest-neighbor queries with pgvector cosine distance.
type BunStore struct {
	db       *bun.DB
	embedder contractx.Embedder
	dim      int
}

var _ contractx.KnowledgeStore = (*BunStore)(nil)

func NewBunStore(cfg PostgresConfig, embedder contractx.Embedder) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	dim := cfg.EmbeddingDim
	if dim <= 0 {
		dim = defaultEmbeddingDim
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &BunStore{
		db:       db,
		embedder: embedder,
		dim:      dim,
	}, nil
}

// EnsureSchema creates the extension, table, and ANN index.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS procurement_documents (
			id uuid PRIMARY KEY,
			content text NOT NULL,
			metadata jsonb,
			embedding vector(%d),
			created_at timestamptz NOT NULL DEFAULT now()
		)`, s.dim)); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS procurement_documents_embedding_idx
			ON procurement_documents
			USING ivfflat (embedding vector_cosine_ops)`); err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}

func (s *BunStore) AddDocument(ctx context.Context, text string, metadata map[string]string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: document text is empty", contractx.ErrValidation)
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: embed document: %v", contractx.ErrKnowledgeUnavailable, err)
	}

	row := &documentRow{
		ID:        documentID(text),
		Content:   text,
		Metadata:  metadata,
		Embedding: vectorLiteral(vec),
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("metadata = EXCLUDED.metadata").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: insert document: %v", contractx.ErrKnowledgeUnavailable, err)
	}
	return nil
}

// documentID derives a stable id from the document text, so re-ingesting the
// same corpus updates rows in place instead of duplicating them.
func documentID(text string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(text)).String()
}

func (s *BunStore) Query(ctx context.Context, text string, k int) ([]contractx.Match, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", contractx.ErrValidation)
	}
	if k <= 0 {
		k = 3
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", contractx.ErrKnowledgeUnavailable, err)
	}
	literal := vectorLiteral(vec)

	var rows []documentRow
	err = s.db.NewSelect().
		Model(&rows).
		Column("content", "metadata").
		ColumnExpr("1 - (embedding <=> ?::vector) AS score", literal).
		OrderExpr("embedding <=> ?::vector", literal).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query documents: %v", contractx.ErrKnowledgeUnavailable, err)
	}

	matches := make([]contractx.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, contractx.Match{
			Text:     row.Content,
			Metadata: row.Metadata,
			Score:    row.Score,
		})
	}
	return matches, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
