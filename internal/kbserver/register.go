// Package kbserver exposes the knowledge engine as MCP tools.
package kbserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 7

// Deps are the collaborators the tools call into. Researcher may be nil.
type Deps struct {
	KB         *knowledge.Orchestrator
	Researcher knowledge.CompanyResearcher
}

// RegisterTools registers the knowledge tools on the given MCP server:
// ingest_document, process_question, knowledge_status, set_knowledge_mode,
// delete_documents, search_knowledge, company_dossier.
func RegisterTools(server *mcp.Server, d Deps) {
	registerIngestDocument(server, d)
	registerProcessQuestion(server, d)
	registerKnowledgeStatus(server, d)
	registerSetKnowledgeMode(server, d)
	registerDeleteDocuments(server, d)
	registerSearchKnowledge(server, d)
	registerCompanyDossier(server, d)
}
