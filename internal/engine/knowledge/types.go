// Package knowledge turns résumés and job descriptions into scored,
// retrievable context for a downstream generation call.
//
// Ingest: ExtractText → Extract → PostProcess → ChunkAndEmbed → Store.ReplaceDocument.
// Query: Classify → Search → (Dossier) → Context assembly.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GenerateFunc is the injected single-shot text generation capability.
// Parts are sent in order as one prompt.
type GenerateFunc func(ctx context.Context, parts ...string) (string, error)

// EmbedFunc is the injected embedding capability. Vector width is whatever
// the backing model produces.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// DocType classifies an ingested document.
type DocType string

const (
	DocResume         DocType = "resume"
	DocJobDescription DocType = "job_description"
	DocCompanyWiki    DocType = "company_wiki"
	DocGeneric        DocType = "generic"
)

// DocTypes lists every supported type in display order.
var DocTypes = []DocType{DocResume, DocJobDescription, DocCompanyWiki, DocGeneric}

// ParseDocType accepts canonical names and a few aliases.
func ParseDocType(s string) (DocType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume", "cv", "résumé":
		return DocResume, nil
	case "job_description", "jd", "job", "job-description":
		return DocJobDescription, nil
	case "company_wiki", "wiki", "company":
		return DocCompanyWiki, nil
	case "generic", "note", "notes":
		return DocGeneric, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDocType, s)
}

// Node categories.
const (
	CategoryExperience     = "experience"
	CategoryProject        = "project"
	CategoryEducation      = "education"
	CategoryAchievement    = "achievement"
	CategoryCertification  = "certification"
	CategoryLeadership     = "leadership"
	CategoryRequirement    = "requirement"
	CategoryNiceToHave     = "nice_to_have"
	CategoryResponsibility = "responsibility"
	CategoryKeyword        = "keyword"
	CategorySection        = "section"
)

// Document is one ingested source file.
type Document struct {
	ID        string         `json:"id"`
	Type      DocType        `json:"type"`
	SourceURI string         `json:"source_uri"`
	Data      StructuredData `json:"structured_data"`
	CreatedAt time.Time      `json:"created_at"`
}

// Node is an atomic, independently scorable fact. TextContent is exactly the
// text that was embedded; Tags are fixed at creation.
type Node struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id,omitempty"`
	SourceType     DocType   `json:"source_type"`
	Category       string    `json:"category"`
	Title          string    `json:"title,omitempty"`
	Organization   string    `json:"organization,omitempty"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"` // empty = ongoing or undated
	DurationMonths int       `json:"duration_months,omitempty"`
	TextContent    string    `json:"text_content"`
	Tags           []string  `json:"tags"`
	Embedding      []float32 `json:"-"`
}

// HasEmbedding reports whether the node carries a vector.
func (n Node) HasEmbedding() bool { return len(n.Embedding) > 0 }

// ScoredNode pairs a node with its relevance for one query. Never persisted.
type ScoredNode struct {
	Node
	Score float64 `json:"score"`
}

// SalaryEstimate is one compensation data point inside a Dossier.
type SalaryEstimate struct {
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Currency   string `json:"currency"`
	Min        int    `json:"min"`
	Max        int    `json:"max"`
	Confidence string `json:"confidence"` // low | medium | high
	Source     string `json:"source,omitempty"`
}

// Dossier is cached company research keyed by normalized company name.
type Dossier struct {
	CompanyName     string           `json:"company_name"`
	HiringStrategy  string           `json:"hiring_strategy"`
	InterviewFocus  []string         `json:"interview_focus"`
	SalaryEstimates []SalaryEstimate `json:"salary_estimates"`
	Competitors     []string         `json:"competitors"`
	RecentNews      []string         `json:"recent_news"`
	SourceTrace     []string         `json:"source_trace"`
	LastChecked     time.Time        `json:"last_checked"`
	TTLHours        int              `json:"ttl_hours"`
	Stale           bool             `json:"stale"`
}

// DefaultDossierTTLHours applies when a dossier is saved without a TTL.
const DefaultDossierTTLHours = 24

// IsStale reports whether last_checked + ttl_hours lies before now.
func (d *Dossier) IsStale(now time.Time) bool {
	ttl := d.TTLHours
	if ttl <= 0 {
		ttl = DefaultDossierTTLHours
	}
	return d.LastChecked.Add(time.Duration(ttl) * time.Hour).Before(now)
}
