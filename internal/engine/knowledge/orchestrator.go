package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_kb/internal/engine"
)

// IngestResult is the outcome envelope of IngestDocument.
type IngestResult struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	DocumentID string  `json:"document_id,omitempty"`
	Type       DocType `json:"type,omitempty"`
	NodeCount  int     `json:"node_count"`
	Embedded   int     `json:"embedded_count"`
}

// QuestionResult is the prompt injection produced for one question.
type QuestionResult struct {
	SystemPromptInjection string       `json:"system_prompt_injection"`
	ContextBlock          string       `json:"context_block"`
	IsIntroQuestion       bool         `json:"is_intro_question"`
	IntroResponse         string       `json:"intro_response,omitempty"`
	Intent                Intent       `json:"intent"`
	Nodes                 []ScoredNode `json:"nodes,omitempty"`
	Dossier               *Dossier     `json:"dossier,omitempty"`
}

// Status summarizes the active knowledge.
type Status struct {
	HasResume     bool   `json:"has_resume"`
	HasActiveJD   bool   `json:"has_active_jd"`
	ActiveMode    bool   `json:"active_mode"`
	ResumeSummary string `json:"resume_summary,omitempty"`
	JDSummary     string `json:"jd_summary,omitempty"`
	NodeCount     int    `json:"node_count"`
	EmbeddedCount int    `json:"embedded_count"`
}

// Orchestrator wires reader, extractor, chunker, store and search into the
// ingest and query lifecycle. Mutations are serialized; queries read the
// current Snapshot without locking.
type Orchestrator struct {
	store      Store
	generate   GenerateFunc
	intro      GenerateFunc
	embed      EmbedFunc
	researcher CompanyResearcher
	limiter    *rate.Limiter
	scoring    Scoring
	read       ReaderFunc
	now        func() time.Time

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
	mode atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithResearcher(r CompanyResearcher) Option { return func(o *Orchestrator) { o.researcher = r } }
func WithLimiter(l *rate.Limiter) Option       { return func(o *Orchestrator) { o.limiter = l } }
func WithScoring(s Scoring) Option             { return func(o *Orchestrator) { o.scoring = s } }
func WithReader(r ReaderFunc) Option           { return func(o *Orchestrator) { o.read = r } }
func WithClock(now func() time.Time) Option    { return func(o *Orchestrator) { o.now = now } }

// WithIntroGenerate sets the generator for spoken self-introductions.
// Without it the extraction generator is used.
func WithIntroGenerate(fn GenerateFunc) Option { return func(o *Orchestrator) { o.intro = fn } }

// New returns an Orchestrator with an empty snapshot; call Load to read the store.
func New(store Store, generate GenerateFunc, embed EmbedFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		generate: generate,
		embed:    embed,
		scoring:  DefaultScoring(),
		read:     ExtractText,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.intro == nil {
		o.intro = o.generate
	}
	o.snap.Store(&Snapshot{LoadedAt: o.now()})
	return o
}

// Load replaces the snapshot with the store's current contents.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refresh(ctx)
}

func (o *Orchestrator) refresh(ctx context.Context) error {
	snap, err := LoadSnapshot(ctx, o.store, o.now())
	if err != nil {
		return err
	}
	o.snap.Store(snap)
	return nil
}

// Snapshot returns the current immutable snapshot.
func (o *Orchestrator) Snapshot() *Snapshot { return o.snap.Load() }

// IngestDocument reads, structures, chunks and stores one file, replacing any
// previous document of the same type. Failures leave the previous document intact.
func (o *Orchestrator) IngestDocument(ctx context.Context, path string, docType DocType) IngestResult {
	engine.IncrIngest()
	res, err := o.ingest(ctx, path, docType)
	if err != nil {
		engine.IncrIngestFailure()
		slog.Warn("ingest failed",
			slog.String("path", path), slog.String("type", string(docType)), slog.Any("error", err))
		return IngestResult{Success: false, Error: err.Error(), Type: docType}
	}
	slog.Info("ingest complete",
		slog.String("type", string(docType)), slog.String("document_id", res.DocumentID),
		slog.Int("nodes", res.NodeCount), slog.Int("embedded", res.Embedded))
	return res
}

func (o *Orchestrator) ingest(ctx context.Context, path string, docType DocType) (IngestResult, error) {
	if !slices.Contains(DocTypes, docType) {
		return IngestResult{}, fmt.Errorf("ingest: %w: %q", ErrInvalidDocType, docType)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	text, err := o.read(path)
	if err != nil {
		return IngestResult{}, err
	}

	var data StructuredData
	switch docType {
	case DocResume, DocJobDescription:
		data, err = Extract(ctx, text, docType, o.generate)
		if err != nil {
			return IngestResult{}, err
		}
		if data.Kind == DocResume {
			postProcessAt(data.Resume, o.now())
		}
	case DocCompanyWiki, DocGeneric:
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		data = TextData(docType, SplitSections(title, text))
	}

	nodes := ChunkAndEmbed(ctx, data, o.embed, o.limiter)
	embedded := 0
	for _, n := range nodes {
		if n.HasEmbedding() {
			embedded++
		}
	}

	doc := &Document{Type: docType, SourceURI: path, Data: data}
	if err := o.store.ReplaceDocument(ctx, doc, nodes); err != nil {
		return IngestResult{}, fmt.Errorf("ingest store: %w", err)
	}
	engine.AddNodesIndexed(len(nodes))
	engine.AddNodesUnembedded(len(nodes) - embedded)

	if err := o.refresh(ctx); err != nil {
		// The document is committed; the next successful refresh will pick it up.
		slog.Warn("ingest: snapshot refresh failed", slog.Any("error", err))
	}
	return IngestResult{
		Success:    true,
		DocumentID: doc.ID,
		Type:       docType,
		NodeCount:  len(nodes),
		Embedded:   embedded,
	}, nil
}

// ProcessQuestion assembles the prompt injection for q. It returns nil when
// knowledge mode is inactive or q is blank, and never fails hard.
func (o *Orchestrator) ProcessQuestion(ctx context.Context, q string) *QuestionResult {
	if !o.IsKnowledgeMode() || strings.TrimSpace(q) == "" {
		return nil
	}
	engine.IncrQueries()

	snap := o.snap.Load()
	resume, jd := snap.ActiveResume(), snap.ActiveJD()

	if resume != nil && IsIntroQuestion(q) {
		return &QuestionResult{
			SystemPromptInjection: BuildSystemPrompt(resume, jd),
			IsIntroQuestion:       true,
			IntroResponse:         GenerateIntro(ctx, resume, jd, o.intro),
			Intent:                IntentIntro,
		}
	}

	res := &QuestionResult{Intent: Classify(q)}
	res.Nodes = Search(ctx, q, snap.Nodes, o.embed, SearchOptions{
		JDRequiredSkills: jd.RequiredSkills(),
		Scoring:          &o.scoring,
		Now:              o.now(),
	})

	needsResearch := res.Intent == IntentCompanyResearch || res.Intent == IntentNegotiation
	if needsResearch && o.researcher != nil && jd != nil && jd.Company != "" {
		d, err := o.researcher.Dossier(ctx, jd.Company)
		if err != nil {
			slog.Warn("company research unavailable", slog.String("company", jd.Company), slog.Any("error", err))
		} else {
			res.Dossier = d
		}
	}

	res.SystemPromptInjection = BuildSystemPrompt(resume, jd)
	block := FormatContextBlock(res.Nodes)
	if res.Dossier != nil {
		block = strings.TrimSpace(block + "\n\n" + FormatDossier(res.Dossier))
	}
	res.ContextBlock = block
	return res
}

// Search runs a hybrid search over the current snapshot.
func (o *Orchestrator) Search(ctx context.Context, q string, opts SearchOptions) []ScoredNode {
	snap := o.snap.Load()
	if opts.Scoring == nil {
		opts.Scoring = &o.scoring
	}
	if opts.Now.IsZero() {
		opts.Now = o.now()
	}
	if opts.JDRequiredSkills == nil {
		opts.JDRequiredSkills = snap.ActiveJD().RequiredSkills()
	}
	return Search(ctx, q, snap.Nodes, o.embed, opts)
}

// Status reports what is loaded. Summaries are best-effort.
func (o *Orchestrator) Status() Status {
	snap := o.snap.Load()
	return Status{
		HasResume:     snap.Resume != nil,
		HasActiveJD:   snap.JD != nil,
		ActiveMode:    o.IsKnowledgeMode(),
		ResumeSummary: resumeSummary(snap.ActiveResume()),
		JDSummary:     jdSummary(snap.ActiveJD()),
		NodeCount:     len(snap.Nodes),
		EmbeddedCount: snap.EmbeddedCount(),
	}
}

// SetKnowledgeMode toggles knowledge mode and returns the effective state.
// Enabling without a loaded résumé is refused.
func (o *Orchestrator) SetKnowledgeMode(on bool) bool {
	if on && o.snap.Load().Resume == nil {
		slog.Warn("knowledge mode requires a resume", slog.Any("error", ErrNoResume))
		return false
	}
	o.mode.Store(on)
	return o.IsKnowledgeMode()
}

// IsKnowledgeMode is true only while the flag is set and a résumé is loaded.
func (o *Orchestrator) IsKnowledgeMode() bool {
	return o.mode.Load() && o.snap.Load().Resume != nil
}

// DeleteDocumentsByType removes every document of t and its nodes.
func (o *Orchestrator) DeleteDocumentsByType(ctx context.Context, t DocType) (int64, error) {
	if !slices.Contains(DocTypes, t) {
		return 0, fmt.Errorf("delete: %w: %q", ErrInvalidDocType, t)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	n, err := o.store.DeleteDocumentsByType(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t, err)
	}
	if err := o.refresh(ctx); err != nil {
		return n, fmt.Errorf("delete %s: refresh: %w", t, err)
	}
	slog.Info("documents deleted", slog.String("type", string(t)), slog.Int64("count", n))
	return n, nil
}

// Documents lists stored documents of t, or all types when t is empty.
func (o *Orchestrator) Documents(ctx context.Context, t DocType) ([]Document, error) {
	docs, err := o.store.ListDocuments(ctx, t)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return docs, err
}

func resumeSummary(r *Resume) string {
	if r == nil || r.Identity.Name == "" {
		return ""
	}
	s := r.Identity.Name
	if cur, ok := r.CurrentRole(); ok && cur.Role != "" {
		s += ", " + joinNonEmpty(" at ", cur.Role, cur.Company)
	}
	if r.TotalExperienceYears > 0 {
		s += fmt.Sprintf(" (%.1f years)", r.TotalExperienceYears)
	}
	return s
}

func jdSummary(jd *JobDescription) string {
	if jd == nil || jd.Title == "" {
		return ""
	}
	s := joinNonEmpty(" at ", jd.Title, jd.Company)
	if jd.Level != "" {
		s += " (" + jd.Level + ")"
	}
	return s
}
