package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	pgvopts "github.com/kart-io/sentinel-docqa/pkg/options/pgvector"
)

// PostgreSQL 标识符最大长度
const pgMaxIdentLen = 63

// pgPool 是 pgxpool.Pool 的子集，测试中由 pgxmock 替代。
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// pgvectorBackend 每个集合一张表：<prefix><name>(id uuid, embedding vector(dim), text text)。
type pgvectorBackend struct {
	pool   pgPool
	prefix string
}

// NewPGVectorStore 连接 PostgreSQL 并启用 vector 扩展。
func NewPGVectorStore(ctx context.Context, opts *pgvopts.Options, dim int) (VectorStore, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgvector: parse dsn: %w", err)
	}
	cfg.MaxConns = opts.MaxConns
	cfg.ConnConfig.ConnectTimeout = opts.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}

	b := newPGVectorBackend(pool, opts.TablePrefix)
	if err := b.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return newCollectionStore(b, dim, opts.Timeout), nil
}

func newPGVectorBackend(pool pgPool, prefix string) *pgvectorBackend {
	return &pgvectorBackend{pool: pool, prefix: prefix}
}

func (s *pgvectorBackend) init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	return nil
}

func (s *pgvectorBackend) table(name string) string {
	return s.prefix + name
}

func (s *pgvectorBackend) ident(name string) string {
	return pgx.Identifier{s.table(name)}.Sanitize()
}

func (s *pgvectorBackend) kind() string { return "pgvector" }

func (s *pgvectorBackend) validName(name string) error {
	if len(s.table(name)) > pgMaxIdentLen {
		return fmt.Errorf("table name %q exceeds %d bytes", s.table(name), pgMaxIdentLen)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%q contains a NUL byte", name)
	}
	return nil
}

func (s *pgvectorBackend) exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", s.ident(name)).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *pgvectorBackend) create(ctx context.Context, name string, dim int) error {
	table := s.ident(name)
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	embedding vector(%d) NOT NULL,
	text text NOT NULL
)`, table, dim)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	index := pgx.Identifier{truncateIdent(s.table(name) + "_embedding_idx")}.Sanitize()
	createIndex := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)", index, table)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func truncateIdent(s string) string {
	if len(s) > pgMaxIdentLen {
		return s[:pgMaxIdentLen]
	}
	return s
}

func (s *pgvectorBackend) upsert(ctx context.Context, name string, records []Record) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !stderrors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("rollback failed: %w; original error: %v", rbErr, err)
			}
		}
	}()

	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding, text) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, text = EXCLUDED.text`, s.ident(name))
	for _, r := range records {
		if _, err = tx.Exec(ctx, stmt, r.ID, pgvector.NewVector(r.Vector), r.Text); err != nil {
			return fmt.Errorf("upsert %q: %w", r.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *pgvectorBackend) search(ctx context.Context, name string, vector []float32, k int) ([]hit, error) {
	query := fmt.Sprintf(
		"SELECT text, 1 - (embedding <=> $1) AS score FROM %s ORDER BY embedding <=> $1 LIMIT $2",
		s.ident(name))
	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]hit, 0, k)
	for rows.Next() {
		var (
			text  string
			score float64
		)
		if err := rows.Scan(&text, &score); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		hits = append(hits, hit{text: text, score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

func (s *pgvectorBackend) list(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND starts_with(table_name, $1)
ORDER BY table_name`, s.prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, strings.TrimPrefix(table, s.prefix))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *pgvectorBackend) close(context.Context) error {
	s.pool.Close()
	return nil
}
