package kbserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

func registerIngestDocument(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a résumé, job description, company wiki or generic document from a local file. Replaces any previous document of the same type. Returns the node and embedding counts, or success=false with the failure reason.",
	}, d.ingestDocument)
}

func (d Deps) ingestDocument(ctx context.Context, _ *mcp.CallToolRequest, input IngestDocumentInput) (*mcp.CallToolResult, knowledge.IngestResult, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, knowledge.IngestResult{}, fmt.Errorf("path is required")
	}
	if strings.TrimSpace(input.Type) == "" {
		return nil, knowledge.IngestResult{}, fmt.Errorf("type is required")
	}
	t, err := knowledge.ParseDocType(input.Type)
	if err != nil {
		return nil, knowledge.IngestResult{}, err
	}
	return nil, d.KB.IngestDocument(ctx, path, t), nil
}

func registerProcessQuestion(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_question",
		Description: "Prepare an interview answer: classifies the question, retrieves relevant résumé/JD nodes, optionally attaches company research, and returns a system prompt injection plus a context block. Intro questions get a ready spoken introduction. Returns active=false when knowledge mode is off.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.processQuestion)
}

func (d Deps) processQuestion(ctx context.Context, _ *mcp.CallToolRequest, input ProcessQuestionInput) (*mcp.CallToolResult, ProcessQuestionOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, ProcessQuestionOutput{}, fmt.Errorf("question is required")
	}
	res := d.KB.ProcessQuestion(ctx, input.Question)
	if res == nil {
		return nil, ProcessQuestionOutput{Active: false}, nil
	}
	out := ProcessQuestionOutput{
		Active:                true,
		Intent:                string(res.Intent),
		IsIntroQuestion:       res.IsIntroQuestion,
		IntroResponse:         res.IntroResponse,
		SystemPromptInjection: res.SystemPromptInjection,
		ContextBlock:          res.ContextBlock,
		Nodes:                 toHits(res.Nodes),
	}
	if res.Dossier != nil {
		out.Company = res.Dossier.CompanyName
		out.DossierStale = res.Dossier.Stale
	}
	return nil, out, nil
}

func registerKnowledgeStatus(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "knowledge_status",
		Description: "Report whether a résumé and job description are loaded, whether knowledge mode is active, and how many nodes are indexed and embedded.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.knowledgeStatus)
}

func (d Deps) knowledgeStatus(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, knowledge.Status, error) {
	return nil, d.KB.Status(), nil
}

func registerSetKnowledgeMode(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_knowledge_mode",
		Description: "Enable or disable knowledge mode. Enabling requires an ingested résumé.",
	}, d.setKnowledgeMode)
}

func (d Deps) setKnowledgeMode(_ context.Context, _ *mcp.CallToolRequest, input SetModeInput) (*mcp.CallToolResult, SetModeOutput, error) {
	on := d.KB.SetKnowledgeMode(input.Enabled)
	out := SetModeOutput{Enabled: on}
	if input.Enabled && !on {
		out.Reason = knowledge.ErrNoResume.Error()
	}
	return nil, out, nil
}

func registerDeleteDocuments(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_documents",
		Description: "Delete every stored document of one type together with its nodes.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr(true)},
	}, d.deleteDocuments)
}

func (d Deps) deleteDocuments(ctx context.Context, _ *mcp.CallToolRequest, input DeleteDocumentsInput) (*mcp.CallToolResult, DeleteDocumentsOutput, error) {
	if strings.TrimSpace(input.Type) == "" {
		return nil, DeleteDocumentsOutput{}, fmt.Errorf("type is required")
	}
	t, err := knowledge.ParseDocType(input.Type)
	if err != nil {
		return nil, DeleteDocumentsOutput{}, err
	}
	n, err := d.KB.DeleteDocumentsByType(ctx, t)
	if err != nil {
		return nil, DeleteDocumentsOutput{}, err
	}
	return nil, DeleteDocumentsOutput{Type: string(t), Deleted: n}, nil
}

func registerSearchKnowledge(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Hybrid semantic + keyword search over ingested knowledge nodes, weighted by experience duration, recency and job-description skill overlap.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.searchKnowledge)
}

func (d Deps) searchKnowledge(ctx context.Context, _ *mcp.CallToolRequest, input SearchKnowledgeInput) (*mcp.CallToolResult, SearchKnowledgeOutput, error) {
	q := strings.TrimSpace(input.Query)
	if q == "" {
		return nil, SearchKnowledgeOutput{}, fmt.Errorf("query is required")
	}
	opts := knowledge.SearchOptions{MaxNodes: input.MaxNodes, Threshold: input.Threshold}
	for _, s := range input.SourceTypes {
		t, err := knowledge.ParseDocType(s)
		if err != nil {
			return nil, SearchKnowledgeOutput{}, err
		}
		opts.SourceTypes = append(opts.SourceTypes, t)
	}
	return nil, SearchKnowledgeOutput{Query: q, Nodes: toHits(d.KB.Search(ctx, q, opts))}, nil
}

func registerCompanyDossier(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_dossier",
		Description: "Return cached company research (hiring strategy, interview focus, salary estimates, competitors, news). Researches via web search when missing; stale dossiers are returned and refreshed in the background.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.companyDossier)
}

func (d Deps) companyDossier(ctx context.Context, _ *mcp.CallToolRequest, input CompanyDossierInput) (*mcp.CallToolResult, CompanyDossierOutput, error) {
	if strings.TrimSpace(input.Company) == "" {
		return nil, CompanyDossierOutput{}, fmt.Errorf("company is required")
	}
	if d.Researcher == nil {
		return nil, CompanyDossierOutput{}, errors.New("company research is not configured")
	}
	dossier, err := d.Researcher.Dossier(ctx, input.Company)
	if err != nil {
		return nil, CompanyDossierOutput{}, err
	}
	return nil, toDossierOutput(dossier), nil
}

func ptr[T any](v T) *T { return &v }
