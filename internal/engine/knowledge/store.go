package knowledge

import "context"

// Store persists documents, their nodes and cached company dossiers.
// Implementations return ErrNotFound for missing rows.
type Store interface {
	// SaveDocument inserts doc, assigning ID and CreatedAt when empty.
	SaveDocument(ctx context.Context, doc *Document) error
	// SaveNodes inserts nodes owned by docID, assigning node IDs when empty.
	SaveNodes(ctx context.Context, docID string, nodes []Node) error
	// ReplaceDocument deletes every document of doc.Type and inserts doc with
	// its nodes in one transaction. On failure the previous documents survive.
	ReplaceDocument(ctx context.Context, doc *Document, nodes []Node) error

	GetDocument(ctx context.Context, id string) (*Document, error)
	// LatestDocument returns the newest document of type t.
	LatestDocument(ctx context.Context, t DocType) (*Document, error)
	// ListDocuments lists documents newest first; an empty t lists all types.
	ListDocuments(ctx context.Context, t DocType) ([]Document, error)
	DeleteDocument(ctx context.Context, id string) error
	DeleteDocumentsByType(ctx context.Context, t DocType) (int64, error)

	AllNodes(ctx context.Context) ([]Node, error)
	NodesByDocument(ctx context.Context, docID string) ([]Node, error)
	NodesBySourceType(ctx context.Context, t DocType) ([]Node, error)

	// GetDossier looks up by normalized company name and sets Stale.
	GetDossier(ctx context.Context, company string) (*Dossier, error)
	// SaveDossier upserts by normalized company name.
	SaveDossier(ctx context.Context, d *Dossier) error
	DeleteDossier(ctx context.Context, company string) error

	Close() error
}

// CompanyResearcher supplies company dossiers to the query path.
type CompanyResearcher interface {
	Dossier(ctx context.Context, company string) (*Dossier, error)
}
