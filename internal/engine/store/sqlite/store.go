// Package sqlite is the default knowledge store, backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
	"github.com/anatolykoptev/go_kb/internal/engine/store/sqlite/migrations"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements knowledge.Store on a single SQLite file.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ knowledge.Store = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and applies migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, s.now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// ==================== Documents ====================

// SaveDocument inserts a document, assigning ID and CreatedAt when empty.
func (s *Store) SaveDocument(ctx context.Context, doc *knowledge.Document) error {
	return s.insertDocument(ctx, s.db, doc)
}

func (s *Store) insertDocument(ctx context.Context, ex execer, doc *knowledge.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshalling structured data: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO knowledge_documents (id, type, source_uri, structured_data, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, string(doc.Type), doc.SourceURI, string(data), doc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// ReplaceDocument swaps every document of doc.Type for doc and its nodes in
// one transaction.
func (s *Store) ReplaceDocument(ctx context.Context, doc *knowledge.Document, nodes []knowledge.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM knowledge_documents WHERE type = ?", string(doc.Type)); err != nil {
		return fmt.Errorf("deleting previous %s documents: %w", doc.Type, err)
	}
	if err := s.insertDocument(ctx, tx, doc); err != nil {
		return err
	}
	if err := insertNodes(ctx, tx, doc.ID, nodes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const documentColumns = "id, type, source_uri, structured_data, created_at"

// GetDocument returns a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*knowledge.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM knowledge_documents WHERE id = ?", id)
	return scanDocument(row)
}

// LatestDocument returns the newest document of type t.
func (s *Store) LatestDocument(ctx context.Context, t knowledge.DocType) (*knowledge.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+` FROM knowledge_documents
		WHERE type = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(t))
	return scanDocument(row)
}

// ListDocuments lists documents newest first. An empty t lists every type.
func (s *Store) ListDocuments(ctx context.Context, t knowledge.DocType) ([]knowledge.Document, error) {
	query := "SELECT " + documentColumns + " FROM knowledge_documents"
	var args []any
	if t != "" {
		query += " WHERE type = ?"
		args = append(args, string(t))
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY created_at DESC, rowid DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []knowledge.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes one document; its nodes cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM knowledge_documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return knowledge.ErrNotFound
	}
	return nil
}

// DeleteDocumentsByType removes every document of t and returns how many went.
func (s *Store) DeleteDocumentsByType(ctx context.Context, t knowledge.DocType) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM knowledge_documents WHERE type = ?", string(t))
	if err != nil {
		return 0, fmt.Errorf("deleting %s documents: %w", t, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*knowledge.Document, error) {
	var (
		doc       knowledge.Document
		docType   string
		data      string
		createdAt string
	)
	if err := row.Scan(&doc.ID, &docType, &doc.SourceURI, &data, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, knowledge.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Type = knowledge.DocType(docType)
	var err error
	if doc.Data, err = knowledge.DecodeStructuredData(doc.Type, []byte(data)); err != nil {
		return nil, err
	}
	if doc.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &doc, nil
}

// ==================== Nodes ====================

// SaveNodes inserts nodes owned by docID in one transaction.
func (s *Store) SaveNodes(ctx context.Context, docID string, nodes []knowledge.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertNodes(ctx, tx, docID, nodes); err != nil {
		return err
	}
	return tx.Commit()
}

func insertNodes(ctx context.Context, ex execer, docID string, nodes []knowledge.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	stmt, err := ex.PrepareContext(ctx, `
		INSERT INTO context_nodes (id, document_id, source_type, category, title, organization,
			start_date, end_date, duration_months, text_content, tags, embedding, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer stmt.Close()

	for i := range nodes {
		n := &nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.DocumentID = docID
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("marshalling tags: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			n.ID, nullString(docID), string(n.SourceType), n.Category, n.Title,
			nullString(n.Organization), nullString(n.StartDate), nullString(n.EndDate),
			nullInt(n.DurationMonths), n.TextContent, string(tagsJSON),
			engine.EncodeVector(n.Embedding), i,
		); err != nil {
			return fmt.Errorf("inserting node %d: %w", i, err)
		}
	}
	return nil
}

const nodeColumns = `id, document_id, source_type, category, title, organization,
	start_date, end_date, duration_months, text_content, tags, embedding`

// AllNodes returns every node, grouped by document in chunking order.
func (s *Store) AllNodes(ctx context.Context) ([]knowledge.Node, error) {
	return s.queryNodes(ctx, "SELECT "+nodeColumns+" FROM context_nodes ORDER BY source_type, document_id, position")
}

// NodesByDocument returns the nodes of one document in chunking order.
func (s *Store) NodesByDocument(ctx context.Context, docID string) ([]knowledge.Node, error) {
	return s.queryNodes(ctx, "SELECT "+nodeColumns+" FROM context_nodes WHERE document_id = ? ORDER BY position", docID)
}

// NodesBySourceType returns the nodes of every document of type t.
func (s *Store) NodesBySourceType(ctx context.Context, t knowledge.DocType) ([]knowledge.Node, error) {
	return s.queryNodes(ctx, "SELECT "+nodeColumns+" FROM context_nodes WHERE source_type = ? ORDER BY document_id, position", string(t))
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]knowledge.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []knowledge.Node //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			n                      knowledge.Node
			docID, org, start, end sql.NullString
			duration               sql.NullInt64
			sourceType, tagsJSON   string
			embedding              []byte
		)
		if err := rows.Scan(&n.ID, &docID, &sourceType, &n.Category, &n.Title, &org,
			&start, &end, &duration, &n.TextContent, &tagsJSON, &embedding); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		n.DocumentID = docID.String
		n.SourceType = knowledge.DocType(sourceType)
		n.Organization = org.String
		n.StartDate = start.String
		n.EndDate = end.String
		n.DurationMonths = int(duration.Int64)
		if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
			return nil, fmt.Errorf("unmarshalling tags: %w", err)
		}
		n.Embedding = engine.DecodeVector(embedding)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

// ==================== Dossiers ====================

// GetDossier looks up a dossier by normalized company name and flags staleness.
func (s *Store) GetDossier(ctx context.Context, company string) (*knowledge.Dossier, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_name, last_checked, dossier_json, source_trace, ttl_hours
		FROM company_dossiers WHERE company_name = ?`, engine.NormalizeCompany(company))

	var name, lastChecked, body, trace string
	var ttl int
	if err := row.Scan(&name, &lastChecked, &body, &trace, &ttl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, knowledge.ErrNotFound
		}
		return nil, fmt.Errorf("scanning dossier: %w", err)
	}

	var d knowledge.Dossier
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("unmarshalling dossier: %w", err)
	}
	if err := json.Unmarshal([]byte(trace), &d.SourceTrace); err != nil {
		return nil, fmt.Errorf("unmarshalling source trace: %w", err)
	}
	checked, err := time.Parse(time.RFC3339, lastChecked)
	if err != nil {
		return nil, fmt.Errorf("parsing last_checked: %w", err)
	}
	d.CompanyName = name
	d.LastChecked = checked
	d.TTLHours = ttl
	d.Stale = d.IsStale(s.now())
	return &d, nil
}

// SaveDossier upserts by normalized company name.
func (s *Store) SaveDossier(ctx context.Context, d *knowledge.Dossier) error {
	d.CompanyName = engine.NormalizeCompany(d.CompanyName)
	if d.CompanyName == "" {
		return fmt.Errorf("saving dossier: empty company name")
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
		return fmt.Errorf("marshalling dossier: %w", err)
	}
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshalling source trace: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company_dossiers (id, company_name, last_checked, dossier_json, source_trace, ttl_hours)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_name) DO UPDATE SET
			last_checked = excluded.last_checked,
			dossier_json = excluded.dossier_json,
			source_trace = excluded.source_trace,
			ttl_hours = excluded.ttl_hours`,
		uuid.NewString(), d.CompanyName, d.LastChecked.UTC().Format(time.RFC3339),
		string(body), string(traceJSON), d.TTLHours)
	if err != nil {
		return fmt.Errorf("saving dossier: %w", err)
	}
	return nil
}

// DeleteDossier removes the dossier for company, if any.
func (s *Store) DeleteDossier(ctx context.Context, company string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM company_dossiers WHERE company_name = ?",
		engine.NormalizeCompany(company)); err != nil {
		return fmt.Errorf("deleting dossier: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
