package knowledge

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/time/rate"
)

// ToNodes decomposes a structured record into atomic nodes, one per fact.
// Node IDs and document IDs are assigned by the store.
func ToNodes(data StructuredData) []Node {
	switch data.Kind {
	case DocResume:
		return resumeNodes(data.Resume)
	case DocJobDescription:
		return jdNodes(data.JD)
	case DocCompanyWiki, DocGeneric:
		return textNodes(data.Kind, data.Text)
	}
	return nil
}

func newNode(src DocType, category, title, org, text string, extraTags ...string) Node {
	tags := ExtractTags(title, org, text)
	for _, t := range extraTags {
		if !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return Node{
		SourceType:   src,
		Category:     category,
		Title:        title,
		Organization: org,
		TextContent:  text,
		Tags:         tags,
	}
}

func withDates(n Node, start, end string) Node {
	n.StartDate = start
	n.EndDate = end
	n.DurationMonths = DurationMonths(start, end)
	return n
}

func resumeNodes(r *Resume) []Node {
	if r == nil {
		return nil
	}
	var nodes []Node
	for _, e := range r.Experience {
		bullets := e.Bullets
		if len(bullets) == 0 {
			bullets = []string{joinNonEmpty(" at ", e.Role, e.Company)}
		}
		for _, b := range bullets {
			if b == "" {
				continue
			}
			nodes = append(nodes, withDates(newNode(DocResume, CategoryExperience, e.Role, e.Company, b), e.StartDate, e.EndDate))
		}
	}
	for _, p := range r.Projects {
		text := p.Description
		if len(p.Technologies) > 0 {
			text = joinNonEmpty(" ", text, "Technologies: "+strings.Join(p.Technologies, ", ")+".")
		}
		if text == "" {
			text = p.Name
		}
		nodes = append(nodes, withDates(newNode(DocResume, CategoryProject, p.Name, "", text), p.StartDate, p.EndDate))
	}
	for _, e := range r.Education {
		title := joinNonEmpty(" in ", e.Degree, e.Field)
		text := joinNonEmpty(", ", title, e.Institution)
		if text == "" {
			continue
		}
		nodes = append(nodes, withDates(newNode(DocResume, CategoryEducation, title, e.Institution, text), e.StartDate, e.EndDate))
	}
	for _, a := range r.Achievements {
		nodes = append(nodes, newNode(DocResume, CategoryAchievement, "", "", a))
	}
	for _, c := range r.Certifications {
		if c.Name == "" {
			continue
		}
		text := c.Name
		if c.Issuer != "" {
			text += " (" + c.Issuer + ")"
		}
		n := newNode(DocResume, CategoryCertification, c.Name, c.Issuer, text)
		n.StartDate = c.Date
		nodes = append(nodes, n)
	}
	for _, l := range r.Leadership {
		text := l.Description
		if text == "" {
			text = joinNonEmpty(" at ", l.Role, l.Organization)
		}
		if text == "" {
			continue
		}
		nodes = append(nodes, withDates(newNode(DocResume, CategoryLeadership, l.Role, l.Organization, text), l.StartDate, l.EndDate))
	}
	return nodes
}

func jdNodes(jd *JobDescription) []Node {
	if jd == nil {
		return nil
	}
	var extra []string
	if jd.Level != "" {
		extra = append(extra, "level:"+jd.Level)
	}
	var nodes []Node
	add := func(category string, items []string) {
		for _, it := range items {
			nodes = append(nodes, newNode(DocJobDescription, category, jd.Title, jd.Company, it, extra...))
		}
	}
	add(CategoryRequirement, jd.Requirements)
	add(CategoryNiceToHave, jd.NiceToHaves)
	add(CategoryResponsibility, jd.Responsibilities)
	add(CategoryKeyword, jd.Keywords)
	return nodes
}

func textNodes(kind DocType, t *TextRecord) []Node {
	if t == nil {
		return nil
	}
	nodes := make([]Node, 0, len(t.Sections))
	for _, s := range t.Sections {
		nodes = append(nodes, newNode(kind, CategorySection, t.Title, "", s))
	}
	return nodes
}

// ChunkAndEmbed builds the nodes of a record and embeds each one sequentially,
// waiting on limiter between calls. A failed embed leaves that node without a
// vector; a cancelled context leaves the remaining nodes unembedded.
func ChunkAndEmbed(ctx context.Context, data StructuredData, embed EmbedFunc, limiter *rate.Limiter) []Node {
	nodes := ToNodes(data)
	if embed == nil {
		return nodes
	}
	failed := 0
	for i := range nodes {
		if err := ctx.Err(); err != nil {
			slog.Warn("chunker: embedding stopped", slog.Int("remaining", len(nodes)-i), slog.Any("error", err))
			failed += len(nodes) - i
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				slog.Warn("chunker: embedding stopped", slog.Int("remaining", len(nodes)-i), slog.Any("error", err))
				failed += len(nodes) - i
				break
			}
		}
		vec, err := embed(ctx, nodes[i].TextContent)
		if err != nil || len(vec) == 0 {
			slog.Debug("chunker: embed failed, keeping node without vector",
				slog.String("category", nodes[i].Category), slog.Any("error", err))
			failed++
			continue
		}
		nodes[i].Embedding = vec
	}
	if failed > 0 {
		slog.Warn("chunker: partial embedding coverage",
			slog.String("type", string(data.Kind)),
			slog.Int("nodes", len(nodes)), slog.Int("unembedded", failed))
	}
	return nodes
}

// SplitSections turns free text into a TextRecord: blank-line separated
// paragraphs, merged until each section reaches minSectionRunes.
func SplitSections(title, text string) *TextRecord {
	const minSectionRunes = 200
	const maxSectionRunes = 1200

	rec := &TextRecord{Title: title, Sections: []string{}}
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			rec.Sections = append(rec.Sections, s)
		}
		cur.Reset()
	}
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		if cur.Len() > 0 && len([]rune(cur.String()))+len([]rune(para)) > maxSectionRunes {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(para)
		if len([]rune(cur.String())) >= minSectionRunes {
			flush()
		}
	}
	flush()
	return rec
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
