// Package postgres is the shared knowledge store, used when DATABASE_URL is set.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
	"github.com/anatolykoptev/go_kb/internal/engine/store/postgres/migrations"
)

// Store implements knowledge.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ knowledge.Store = (*Store)(nil)

// Connect creates a pgx pool and runs schema migrations.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool, now: time.Now}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("knowledge postgres connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// runMigrations applies every embedded .sql file in name order. Files are
// written to be idempotent, so they run on each start.
func (s *Store) runMigrations(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := migrations.FS.ReadFile(entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Debug("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// --- Documents ---

func (s *Store) SaveDocument(ctx context.Context, doc *knowledge.Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.insertDocument(ctx, tx, doc); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) insertDocument(ctx context.Context, tx pgx.Tx, doc *knowledge.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal structured data: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO knowledge_documents (id, type, source_uri, structured_data, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, string(doc.Type), doc.SourceURI, string(data), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) ReplaceDocument(ctx context.Context, doc *knowledge.Document, nodes []knowledge.Node) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_documents WHERE type = $1`, string(doc.Type)); err != nil {
		return fmt.Errorf("delete previous %s documents: %w", doc.Type, err)
	}
	if err := s.insertDocument(ctx, tx, doc); err != nil {
		return err
	}
	if err := insertNodes(ctx, tx, doc.ID, nodes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const documentColumns = `id, type, source_uri, structured_data, created_at`

func (s *Store) GetDocument(ctx context.Context, id string) (*knowledge.Document, error) {
	return scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM knowledge_documents WHERE id = $1`, id))
}

func (s *Store) LatestDocument(ctx context.Context, t knowledge.DocType) (*knowledge.Document, error) {
	return scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM knowledge_documents
		 WHERE type = $1 ORDER BY created_at DESC, seq DESC LIMIT 1`, string(t)))
}

func (s *Store) ListDocuments(ctx context.Context, t knowledge.DocType) ([]knowledge.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM knowledge_documents
		 WHERE $1 = '' OR type = $1 ORDER BY created_at DESC, seq DESC`, string(t))
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []knowledge.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM knowledge_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return knowledge.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDocumentsByType(ctx context.Context, t knowledge.DocType) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM knowledge_documents WHERE type = $1`, string(t))
	if err != nil {
		return 0, fmt.Errorf("delete %s documents: %w", t, err)
	}
	return tag.RowsAffected(), nil
}

func scanDocument(row pgx.Row) (*knowledge.Document, error) {
	var (
		doc     knowledge.Document
		docType string
		data    []byte
	)
	if err := row.Scan(&doc.ID, &docType, &doc.SourceURI, &data, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, knowledge.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.Type = knowledge.DocType(docType)
	doc.CreatedAt = doc.CreatedAt.UTC()
	var err error
	if doc.Data, err = knowledge.DecodeStructuredData(doc.Type, data); err != nil {
		return nil, err
	}
	return &doc, nil
}

// --- Nodes ---

func (s *Store) SaveNodes(ctx context.Context, docID string, nodes []knowledge.Node) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertNodes(ctx, tx, docID, nodes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// insertNodes queues every insert in one batch round-trip.
func insertNodes(ctx context.Context, tx pgx.Tx, docID string, nodes []knowledge.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range nodes {
		n := &nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.DocumentID = docID
		// tags is JSONB; a nil slice would encode as null.
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(
			`INSERT INTO context_nodes (id, document_id, source_type, category, title, organization,
				start_date, end_date, duration_months, text_content, tags, embedding, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			n.ID, nullable(docID), string(n.SourceType), n.Category, n.Title,
			nullable(n.Organization), nullable(n.StartDate), nullable(n.EndDate),
			nullableInt(n.DurationMonths), n.TextContent, tags,
			engine.EncodeVector(n.Embedding), i,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range nodes {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert node %d: %w", i, err)
		}
	}
	return br.Close()
}

const nodeColumns = `id, document_id, source_type, category, title, organization,
	start_date, end_date, duration_months, text_content, tags, embedding`

func (s *Store) AllNodes(ctx context.Context) ([]knowledge.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM context_nodes ORDER BY source_type, document_id, position`)
}

func (s *Store) NodesByDocument(ctx context.Context, docID string) ([]knowledge.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM context_nodes WHERE document_id = $1 ORDER BY position`, docID)
}

func (s *Store) NodesBySourceType(ctx context.Context, t knowledge.DocType) ([]knowledge.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM context_nodes
		WHERE source_type = $1 ORDER BY document_id, position`, string(t))
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]knowledge.Node, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []knowledge.Node
	for rows.Next() {
		var (
			n                      knowledge.Node
			docID, org, start, end *string
			duration               *int32
			sourceType             string
			embedding              []byte
		)
		if err := rows.Scan(&n.ID, &docID, &sourceType, &n.Category, &n.Title, &org,
			&start, &end, &duration, &n.TextContent, &n.Tags, &embedding); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.DocumentID = deref(docID)
		n.SourceType = knowledge.DocType(sourceType)
		n.Organization = deref(org)
		n.StartDate = deref(start)
		n.EndDate = deref(end)
		if duration != nil {
			n.DurationMonths = int(*duration)
		}
		n.Embedding = engine.DecodeVector(embedding)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// --- Dossiers ---

func (s *Store) GetDossier(ctx context.Context, company string) (*knowledge.Dossier, error) {
	var (
		d    knowledge.Dossier
		body []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT company_name, last_checked, dossier_json, source_trace, ttl_hours
		 FROM company_dossiers WHERE company_name = $1`, engine.NormalizeCompany(company),
	).Scan(&d.CompanyName, &d.LastChecked, &body, &d.SourceTrace, &d.TTLHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, knowledge.ErrNotFound
		}
		return nil, fmt.Errorf("scan dossier: %w", err)
	}

	name, checked, trace, ttl := d.CompanyName, d.LastChecked, d.SourceTrace, d.TTLHours
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("unmarshal dossier: %w", err)
	}
	d.CompanyName, d.LastChecked, d.SourceTrace, d.TTLHours = name, checked.UTC(), trace, ttl
	d.Stale = d.IsStale(s.now())
	return &d, nil
}

func (s *Store) SaveDossier(ctx context.Context, d *knowledge.Dossier) error {
	d.CompanyName = engine.NormalizeCompany(d.CompanyName)
	if d.CompanyName == "" {
		return errors.New("save dossier: empty company name")
	}
	if d.LastChecked.IsZero() {
		d.LastChecked = s.now()
	}
	if d.TTLHours <= 0 {
		d.TTLHours = knowledge.DefaultDossierTTLHours
	}
	trace := d.SourceTrace
	if trace == nil {
		trace = []string{}
	}
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dossier: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO company_dossiers (id, company_name, last_checked, dossier_json, source_trace, ttl_hours)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (company_name) DO UPDATE SET
			last_checked = EXCLUDED.last_checked,
			dossier_json = EXCLUDED.dossier_json,
			source_trace = EXCLUDED.source_trace,
			ttl_hours = EXCLUDED.ttl_hours`,
		uuid.NewString(), d.CompanyName, d.LastChecked, string(body), trace, d.TTLHours)
	if err != nil {
		return fmt.Errorf("save dossier: %w", err)
	}
	return nil
}

func (s *Store) DeleteDossier(ctx context.Context, company string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM company_dossiers WHERE company_name = $1`,
		engine.NormalizeCompany(company))
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(n int) *int32 {
	if n == 0 {
		return nil
	}
	v := int32(n)
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
