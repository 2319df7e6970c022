package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// introPhrases extends the classifier's intro patterns with looser variants.
var introPhrases = append([]string{
	"tell us about yourself", "a bit about yourself", "a little about yourself",
	"who are you", "quick intro", "tell me about your background",
}, introPatterns...)

// IsIntroQuestion reports whether q asks for a self-introduction.
func IsIntroQuestion(q string) bool {
	return countMatches(strings.ToLower(q), introPhrases) > 0
}

// GenerateIntro writes a spoken first-person introduction tailored to the
// active job. It never fails: without a working generate it returns a
// templated sentence built from the résumé.
func GenerateIntro(ctx context.Context, r *Resume, jd *JobDescription, generate GenerateFunc) string {
	if r == nil {
		return ""
	}
	if generate != nil {
		target := ""
		if jd != nil && jd.Title != "" {
			target = "The interview is for the " + jd.Title + " role"
			if jd.Company != "" {
				target += " at " + jd.Company
			}
			target += ".\n"
		}
		profile, _ := json.Marshal(introProfile(r))
		out, err := generate(ctx, fmt.Sprintf(introPrompt, target, profile))
		out = strings.TrimSpace(out)
		if err == nil && out != "" {
			return out
		}
		slog.Warn("assembler: intro generation failed, using template", slog.Any("error", err))
	}
	return fallbackIntro(r)
}

type introSummary struct {
	Name       string   `json:"name"`
	Summary    string   `json:"summary,omitempty"`
	Role       string   `json:"current_role,omitempty"`
	Company    string   `json:"current_company,omitempty"`
	Years      float64  `json:"total_experience_years"`
	Highlights []string `json:"highlights,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

func introProfile(r *Resume) introSummary {
	p := introSummary{
		Name:    r.Identity.Name,
		Summary: r.Identity.Summary,
		Years:   r.TotalExperienceYears,
		Skills:  firstN(r.Skills, 10),
	}
	if cur, ok := r.CurrentRole(); ok {
		p.Role, p.Company = cur.Role, cur.Company
	}
	for _, e := range r.Experience {
		p.Highlights = append(p.Highlights, firstN(e.Bullets, 2)...)
		if len(p.Highlights) >= 5 {
			break
		}
	}
	p.Highlights = append(p.Highlights, firstN(r.Achievements, 2)...)
	return p
}

func fallbackIntro(r *Resume) string {
	out := "Hi, I'm " + r.Identity.Name + "."
	cur, ok := r.CurrentRole()
	if !ok || cur.Role == "" {
		return out
	}
	out += " I'm currently working as " + cur.Role
	if cur.Company != "" {
		out += " at " + cur.Company
	}
	return out + "."
}

// FormatContextBlock renders retrieved nodes as numbered lines grouped by source.
func FormatContextBlock(nodes []ScoredNode) string {
	var cand, job, notes []string
	for _, n := range nodes {
		switch n.SourceType {
		case DocResume:
			cand = append(cand, nodeLine(len(cand)+1, n.Node))
		case DocJobDescription:
			job = append(job, nodeLine(len(job)+1, n.Node))
		default:
			notes = append(notes, nodeLine(len(notes)+1, n.Node))
		}
	}
	var sb strings.Builder
	writeBlock(&sb, "candidate_experience", cand)
	writeBlock(&sb, "target_job_context", job)
	writeBlock(&sb, "reference_notes", notes)
	return strings.TrimSpace(sb.String())
}

func nodeLine(i int, n Node) string {
	label := n.Category
	if n.Organization != "" && n.Title != "" {
		label = n.Title + " at " + n.Organization
	}
	return fmt.Sprintf("%d. [%s] %s", i, label, n.TextContent)
}

func writeBlock(sb *strings.Builder, tag string, lines []string) {
	if len(lines) == 0 {
		return
	}
	sb.WriteString("<" + tag + ">\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n</" + tag + ">\n\n")
}

// Tone modifiers, checked in order; the first match wins.
const (
	tonePragmatic = "Keep answers pragmatic and outcome-focused: lead with what shipped and the trade-offs made under constraints."
	toneResearch  = "Use a precise, citation-friendly tone: reference concrete methods, results and publications where relevant."
	toneStrategic = "Take a strategic tone: frame answers around technical direction, cross-team influence and long-term trade-offs."
	toneSenior    = "Be concise and technical: state the decision first, then the supporting detail."
)

// BuildSystemPrompt assembles the persona header injected ahead of the context.
func BuildSystemPrompt(r *Resume, jd *JobDescription) string {
	var sb strings.Builder
	if r != nil {
		sb.WriteString("You are " + r.Identity.Name)
		if cur, ok := r.CurrentRole(); ok && cur.Role != "" {
			sb.WriteString(", currently " + cur.Role)
			if cur.Company != "" {
				sb.WriteString(" at " + cur.Company)
			}
		}
		sb.WriteString(", answering interview questions about your own experience.\n")
	}
	if jd != nil && jd.Title != "" {
		sb.WriteString("You are interviewing for the " + jd.Title + " role")
		if jd.Company != "" {
			sb.WriteString(" at " + jd.Company)
		}
		sb.WriteString(".\n")
		if tone := toneFor(jd); tone != "" {
			sb.WriteString(tone + "\n")
		}
	}

	sb.WriteString("\nRules:\n")
	sb.WriteString("- Always speak in the first person as the candidate.\n")
	sb.WriteString("- Never say or imply that you are an AI or a language model.\n")
	sb.WriteString("- Never fabricate employers, dates, numbers or skills that are not in the provided context.\n")
	if jd != nil {
		sb.WriteString("- For compensation claims, cite the sources from the company research and state your confidence level.\n")
	}
	return sb.String()
}

func toneFor(jd *JobDescription) string {
	parts := []string{jd.Title, jd.Summary}
	parts = append(parts, jd.Responsibilities...)
	parts = append(parts, jd.Requirements...)
	text := strings.ToLower(strings.Join(parts, " "))
	switch {
	case strings.Contains(text, "startup") || strings.Contains(text, "fast-paced") || strings.Contains(text, "fast paced"):
		return tonePragmatic
	case strings.Contains(text, "research") || strings.Contains(text, "academic"):
		return toneResearch
	case jd.Level == "staff" || jd.Level == "principal":
		return toneStrategic
	case jd.Level == "senior":
		return toneSenior
	}
	return ""
}

// FormatDossier renders company research for injection. Stale dossiers are
// annotated so the answer can hedge.
func FormatDossier(d *Dossier) string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<company_research company=\"" + d.CompanyName + "\">\n")
	if d.Stale {
		sb.WriteString("Note: this research was last checked " + d.LastChecked.Format("2006-01-02") + " and may be out of date.\n")
	}
	if d.HiringStrategy != "" {
		sb.WriteString("Hiring strategy: " + d.HiringStrategy + "\n")
	}
	writeList(&sb, "Interview focus", d.InterviewFocus)
	if len(d.SalaryEstimates) > 0 {
		sb.WriteString("Salary estimates:\n")
		for _, s := range d.SalaryEstimates {
			line := fmt.Sprintf("- %s: %d-%d %s (confidence: %s", s.Title, s.Min, s.Max, s.Currency, s.Confidence)
			if s.Location != "" {
				line += ", " + s.Location
			}
			if s.Source != "" {
				line += ", source: " + s.Source
			}
			sb.WriteString(line + ")\n")
		}
	}
	writeList(&sb, "Competitors", d.Competitors)
	writeList(&sb, "Recent news", d.RecentNews)
	writeList(&sb, "Sources", d.SourceTrace)
	sb.WriteString("</company_research>")
	return sb.String()
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	for _, it := range items {
		sb.WriteString("- " + it + "\n")
	}
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
