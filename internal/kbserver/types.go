package kbserver

import "github.com/anatolykoptev/go_kb/internal/engine/knowledge"

// --- ingest_document ---

type IngestDocumentInput struct {
	Path string `json:"path" jsonschema:"Absolute path to a .pdf, .docx, .txt or .md file"`
	Type string `json:"type" jsonschema:"Document type: resume, job_description, company_wiki, generic"`
}

// --- process_question ---

type ProcessQuestionInput struct {
	Question string `json:"question" jsonschema:"Interview question to prepare context for"`
}

type ProcessQuestionOutput struct {
	Active                bool      `json:"active"`
	Intent                string    `json:"intent,omitempty"`
	IsIntroQuestion       bool      `json:"is_intro_question"`
	IntroResponse         string    `json:"intro_response,omitempty"`
	SystemPromptInjection string    `json:"system_prompt_injection,omitempty"`
	ContextBlock          string    `json:"context_block,omitempty"`
	Nodes                 []NodeHit `json:"nodes,omitempty"`
	Company               string    `json:"company,omitempty"`
	DossierStale          bool      `json:"dossier_stale,omitempty"`
}

// NodeHit is a scored node without its embedding.
type NodeHit struct {
	SourceType   string   `json:"source_type"`
	Category     string   `json:"category"`
	Title        string   `json:"title,omitempty"`
	Organization string   `json:"organization,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Text         string   `json:"text"`
	Tags         []string `json:"tags,omitempty"`
	Score        float64  `json:"score"`
}

// --- knowledge_status ---

type StatusInput struct{}

// --- set_knowledge_mode ---

type SetModeInput struct {
	Enabled bool `json:"enabled" jsonschema:"true to inject knowledge into answers, false to disable"`
}

type SetModeOutput struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// --- delete_documents ---

type DeleteDocumentsInput struct {
	Type string `json:"type" jsonschema:"Document type to delete: resume, job_description, company_wiki, generic"`
}

type DeleteDocumentsOutput struct {
	Type    string `json:"type"`
	Deleted int64  `json:"deleted"`
}

// --- search_knowledge ---

type SearchKnowledgeInput struct {
	Query       string   `json:"query" jsonschema:"Free-text query"`
	MaxNodes    int      `json:"max_nodes,omitempty" jsonschema:"Maximum nodes to return (default from scoring config)"`
	Threshold   *float64 `json:"threshold,omitempty" jsonschema:"Minimum score, exclusive (default from scoring config)"`
	SourceTypes []string `json:"source_types,omitempty" jsonschema:"Restrict to these document types"`
}

type SearchKnowledgeOutput struct {
	Query string    `json:"query"`
	Nodes []NodeHit `json:"nodes"`
}

// --- company_dossier ---

type CompanyDossierInput struct {
	Company string `json:"company" jsonschema:"Company name"`
}

type CompanyDossierOutput struct {
	Company         string                     `json:"company"`
	LastChecked     string                     `json:"last_checked"`
	Stale           bool                       `json:"stale"`
	HiringStrategy  string                     `json:"hiring_strategy,omitempty"`
	InterviewFocus  []string                   `json:"interview_focus,omitempty"`
	SalaryEstimates []knowledge.SalaryEstimate `json:"salary_estimates,omitempty"`
	Competitors     []string                   `json:"competitors,omitempty"`
	RecentNews      []string                   `json:"recent_news,omitempty"`
	SourceTrace     []string                   `json:"source_trace,omitempty"`
}

func toHits(nodes []knowledge.ScoredNode) []NodeHit {
	hits := make([]NodeHit, 0, len(nodes))
	for _, n := range nodes {
		hits = append(hits, NodeHit{
			SourceType:   string(n.SourceType),
			Category:     n.Category,
			Title:        n.Title,
			Organization: n.Organization,
			StartDate:    n.StartDate,
			EndDate:      n.EndDate,
			Text:         n.TextContent,
			Tags:         n.Tags,
			Score:        n.Score,
		})
	}
	return hits
}

func toDossierOutput(d *knowledge.Dossier) CompanyDossierOutput {
	return CompanyDossierOutput{
		Company:         d.CompanyName,
		LastChecked:     d.LastChecked.UTC().Format("2006-01-02T15:04:05Z"),
		Stale:           d.Stale,
		HiringStrategy:  d.HiringStrategy,
		InterviewFocus:  d.InterviewFocus,
		SalaryEstimates: d.SalaryEstimates,
		Competitors:     d.Competitors,
		RecentNews:      d.RecentNews,
		SourceTrace:     d.SourceTrace,
	}
}
