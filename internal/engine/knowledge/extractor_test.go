package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeJSON = `{
  "identity": {"name": "  Jane Doe ", "email": "jane@example.com"},
  "skills": ["Go", " ", "Redis"],
  "experience": [{
    "company": "Acme Corp", "role": "Backend Engineer",
    "start_date": "2019-01", "end_date": "Present",
    "bullets": ["Built a cache layer", "Led a team of 4"]
  }]
}`

func staticGenerate(out string, err error) GenerateFunc {
	return func(context.Context, ...string) (string, error) { return out, err }
}

func TestExtractResume(t *testing.T) {
	var gotParts []string
	gen := func(_ context.Context, parts ...string) (string, error) {
		gotParts = parts
		return "```json\n" + resumeJSON + "\n```", nil
	}
	data, err := Extract(context.Background(), "raw resume text", DocResume, gen)
	require.NoError(t, err)

	require.Len(t, gotParts, 2)
	assert.Contains(t, gotParts[0], `"identity"`)
	assert.Equal(t, "Document:\n\"\"\"\nraw resume text\n\"\"\"", gotParts[1])

	require.Equal(t, DocResume, data.Kind)
	r := data.Resume
	assert.Equal(t, "Jane Doe", r.Identity.Name)
	assert.Equal(t, []string{"Go", "Redis"}, r.Skills)
	assert.Equal(t, "", r.Experience[0].EndDate, "present maps to ongoing")
	assert.NotNil(t, r.Projects)
	assert.NotNil(t, r.Education)
	assert.NotNil(t, r.Achievements)
	assert.NotNil(t, r.Certifications)
	assert.NotNil(t, r.Leadership)
	assert.NoError(t, data.Validate())
}

func TestExtractJobDescription(t *testing.T) {
	raw := `{"title": "Platform Engineer", "company": "Acme Corp", "level": "Sr", "employment_type": "Full-Time",
	         "technologies": ["Go", "Kafka"], "keywords": ["kafka", "SRE"]}`
	data, err := Extract(context.Background(), "jd text", DocJobDescription, staticGenerate(raw, nil))
	require.NoError(t, err)

	jd := data.JD
	assert.Equal(t, "senior", jd.Level)
	assert.Equal(t, "full_time", jd.EmploymentType)
	assert.Equal(t, []string{}, jd.Requirements)
	assert.Equal(t, []string{"Go", "Kafka", "SRE"}, jd.RequiredSkills())
}

func TestNormalizeEnums(t *testing.T) {
	levels := map[string]string{
		"Senior": "senior", "entry level": "junior", "Principal": "principal",
		"": "mid", "wizard": "mid", "Tech Lead": "lead",
	}
	for in, want := range levels {
		assert.Equal(t, want, NormalizeLevel(in), in)
	}
	types := map[string]string{
		"contractor": "contract", "Part-time": "part_time", "permanent": "full_time",
		"gig": "full_time", "Internship": "internship",
	}
	for in, want := range types {
		assert.Equal(t, want, NormalizeEmploymentType(in), in)
	}
}

func TestExtractErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Extract(ctx, "x", DocResume, staticGenerate("Sure! Here is the JSON you asked for.", nil))
	assert.True(t, errors.Is(err, ErrParseFailure), "got %v", err)

	_, err = Extract(ctx, "x", DocResume, staticGenerate(`{"identity": {"email": "a@b.c"}}`, nil))
	assert.True(t, errors.Is(err, ErrSchemaViolation), "got %v", err)
	assert.Contains(t, err.Error(), "Name")

	_, err = Extract(ctx, "x", DocJobDescription, staticGenerate(`{"company": "Acme"}`, nil))
	assert.True(t, errors.Is(err, ErrSchemaViolation), "got %v", err)

	_, err = Extract(ctx, "x", DocResume, staticGenerate("", errors.New("quota exceeded")))
	assert.True(t, errors.Is(err, ErrGenerationFailed), "got %v", err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = Extract(ctx, "x", DocGeneric, staticGenerate(resumeJSON, nil))
	assert.True(t, errors.Is(err, ErrInvalidDocType), "got %v", err)
}

func TestExtractTruncatesInput(t *testing.T) {
	var doc string
	gen := func(_ context.Context, parts ...string) (string, error) {
		doc = parts[1]
		return resumeJSON, nil
	}
	_, err := Extract(context.Background(), strings.Repeat("é", maxExtractRunes+500), DocResume, gen)
	require.NoError(t, err)
	n := strings.Count(doc, "é")
	assert.LessOrEqual(t, n, maxExtractRunes)
	assert.Greater(t, n, maxExtractRunes-10)
}

func TestStructuredDataRoundTrip(t *testing.T) {
	data, err := ParseStructured(resumeJSON, DocResume)
	require.NoError(t, err)

	raw, err := data.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Kind", "only the payload is serialized")

	back, err := DecodeStructuredData(DocResume, raw)
	require.NoError(t, err)
	assert.Equal(t, data.Resume.Identity.Name, back.Resume.Identity.Name)
	assert.Nil(t, back.JD)

	_, err = DecodeStructuredData("spreadsheet", raw)
	assert.True(t, errors.Is(err, ErrInvalidDocType))
	assert.Error(t, StructuredData{Kind: DocJobDescription}.Validate())
}
