package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatContextBlock(t *testing.T) {
	nodes := []ScoredNode{
		{Node: Node{SourceType: DocResume, Category: CategoryExperience, Title: "Backend Engineer", Organization: "Acme Corp", TextContent: "Built a cache layer"}},
		{Node: Node{SourceType: DocJobDescription, Category: CategoryRequirement, Title: "Staff Engineer", TextContent: "5+ years of Go"}},
		{Node: Node{SourceType: DocResume, Category: CategoryAchievement, TextContent: "Cut p99 latency by 40%"}},
		{Node: Node{SourceType: DocCompanyWiki, Category: CategorySection, TextContent: "Acme values ownership."}},
	}
	want := `<candidate_experience>
1. [Backend Engineer at Acme Corp] Built a cache layer
2. [achievement] Cut p99 latency by 40%
</candidate_experience>

<target_job_context>
1. [requirement] 5+ years of Go
</target_job_context>

<reference_notes>
1. [section] Acme values ownership.
</reference_notes>`
	assert.Equal(t, want, FormatContextBlock(nodes))
	assert.Equal(t, "", FormatContextBlock(nil))
}

func TestBuildSystemPrompt(t *testing.T) {
	r := sampleResume()

	p := BuildSystemPrompt(r, nil)
	assert.True(t, strings.HasPrefix(p, "You are Jane Doe, currently Backend Engineer at Acme Corp"))
	assert.Contains(t, p, "first person")
	assert.Contains(t, p, "Never say or imply that you are an AI")
	assert.NotContains(t, p, "compensation")

	tests := []struct {
		name string
		jd   JobDescription
		tone string
	}{
		{"startup beats level", JobDescription{Title: "Staff Engineer", Level: "staff", Summary: "A fast-paced startup"}, tonePragmatic},
		{"research", JobDescription{Title: "ML Engineer", Level: "senior", Responsibilities: []string{"Publish research"}}, toneResearch},
		{"staff", JobDescription{Title: "Staff Engineer", Level: "staff"}, toneStrategic},
		{"principal", JobDescription{Title: "Architect", Level: "principal"}, toneStrategic},
		{"senior", JobDescription{Title: "Engineer", Level: "senior"}, toneSenior},
		{"none", JobDescription{Title: "Engineer", Level: "mid"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildSystemPrompt(r, &tt.jd)
			assert.Contains(t, p, "You are interviewing for the "+tt.jd.Title+" role.")
			assert.Contains(t, p, "state your confidence level")
			for _, tone := range []string{tonePragmatic, toneResearch, toneStrategic, toneSenior} {
				assert.Equal(t, tone == tt.tone, strings.Contains(p, tone), tone)
			}
		})
	}
}

func TestGenerateIntro(t *testing.T) {
	r := sampleResume()
	jd := &JobDescription{Title: "Staff Engineer", Company: "Globex"}

	var prompt string
	gen := func(_ context.Context, parts ...string) (string, error) {
		prompt = strings.Join(parts, "\n")
		return "  Hi, I'm Jane and I build caches.  ", nil
	}
	assert.Equal(t, "Hi, I'm Jane and I build caches.", GenerateIntro(context.Background(), r, jd, gen))
	assert.Contains(t, prompt, "Staff Engineer role at Globex")
	assert.Contains(t, prompt, `"name":"Jane Doe"`)

	failing := staticGenerate("", errors.New("timeout"))
	assert.Equal(t, "Hi, I'm Jane Doe. I'm currently working as Backend Engineer at Acme Corp.",
		GenerateIntro(context.Background(), r, jd, failing))
	assert.Equal(t, "Hi, I'm Jane Doe. I'm currently working as Backend Engineer at Acme Corp.",
		GenerateIntro(context.Background(), r, nil, nil))

	bare := &Resume{Identity: Identity{Name: "Sam"}}
	assert.Equal(t, "Hi, I'm Sam.", GenerateIntro(context.Background(), bare, nil, nil))
	assert.Equal(t, "", GenerateIntro(context.Background(), nil, nil, gen))
}

func TestFormatDossier(t *testing.T) {
	d := &Dossier{
		CompanyName:    "acme corp",
		HiringStrategy: "Hires senior generalists.",
		InterviewFocus: []string{"system design"},
		SalaryEstimates: []SalaryEstimate{{
			Title: "Staff Engineer", Currency: "USD", Min: 200000, Max: 260000,
			Confidence: "medium", Source: "levels.fyi",
		}},
		LastChecked: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	out := FormatDossier(d)
	require.True(t, strings.HasPrefix(out, `<company_research company="acme corp">`))
	assert.Contains(t, out, "- Staff Engineer: 200000-260000 USD (confidence: medium, source: levels.fyi)")
	assert.Contains(t, out, "Interview focus:\n- system design")
	assert.NotContains(t, out, "out of date")

	d.Stale = true
	assert.Contains(t, FormatDossier(d), "last checked 2024-01-02 and may be out of date")
	assert.Equal(t, "", FormatDossier(nil))
}
