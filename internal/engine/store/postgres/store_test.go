package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

// testStore connects to KB_TEST_DATABASE_URL and wipes the knowledge tables.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("KB_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("KB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, url)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `TRUNCATE knowledge_documents, context_nodes, company_dossiers CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestReplaceDocumentPostgres(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	nodes := []knowledge.Node{
		{
			SourceType: knowledge.DocResume, Category: knowledge.CategoryExperience,
			Title: "Engineer", Organization: "Acme", StartDate: "2020-01", DurationMonths: 12,
			TextContent: "Shipped billing", Tags: []string{"shipped", "billing"},
			Embedding: []float32{1, 0, -1},
		},
		{SourceType: knowledge.DocResume, Category: knowledge.CategoryAchievement, TextContent: "Award"},
	}
	old := &knowledge.Document{Type: knowledge.DocResume, Data: knowledge.ResumeData(&knowledge.Resume{Identity: knowledge.Identity{Name: "Old"}})}
	require.NoError(t, s.ReplaceDocument(ctx, old, nodes))

	fresh := &knowledge.Document{Type: knowledge.DocResume, Data: knowledge.ResumeData(&knowledge.Resume{Identity: knowledge.Identity{Name: "New"}})}
	for i := range nodes {
		nodes[i].ID = ""
	}
	require.NoError(t, s.ReplaceDocument(ctx, fresh, nodes))

	latest, err := s.LatestDocument(ctx, knowledge.DocResume)
	require.NoError(t, err)
	assert.Equal(t, "New", latest.Data.Resume.Identity.Name)

	got, err := s.AllNodes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, fresh.ID, got[0].DocumentID)
	assert.Equal(t, []float32{1, 0, -1}, got[0].Embedding)
	assert.Equal(t, "", got[0].EndDate)
	assert.Nil(t, got[1].Embedding)
	assert.Equal(t, []string{"shipped", "billing"}, got[0].Tags)
	assert.Empty(t, got[1].Tags)

	var kind string
	require.NoError(t, s.pool.QueryRow(ctx,
		`SELECT jsonb_typeof(tags) FROM context_nodes WHERE id = $1`, got[0].ID).Scan(&kind))
	assert.Equal(t, "array", kind, "tags are stored as a JSON array")

	_, err = s.GetDocument(ctx, old.ID)
	assert.True(t, errors.Is(err, knowledge.ErrNotFound))
}

func TestDossierPostgres(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.SaveDossier(ctx, &knowledge.Dossier{
		CompanyName: "Acme Corp", HiringStrategy: "Generalists",
		LastChecked: now.Add(-30 * time.Hour),
		SourceTrace: []string{"https://acme.example/careers"},
	}))
	d, err := s.GetDossier(ctx, "ACME corp")
	require.NoError(t, err)
	assert.Equal(t, "acme corp", d.CompanyName)
	assert.Equal(t, knowledge.DefaultDossierTTLHours, d.TTLHours)
	assert.True(t, d.Stale)
	assert.Equal(t, []string{"https://acme.example/careers"}, d.SourceTrace)

	var traceKind string
	require.NoError(t, s.pool.QueryRow(ctx,
		`SELECT jsonb_typeof(source_trace) FROM company_dossiers WHERE company_name = 'acme corp'`).Scan(&traceKind))
	assert.Equal(t, "array", traceKind)

	require.NoError(t, s.DeleteDossier(ctx, "acme corp"))
	_, err = s.GetDossier(ctx, "acme corp")
	assert.True(t, errors.Is(err, knowledge.ErrNotFound))
}
