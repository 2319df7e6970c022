package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anatolykoptev/go_kb/internal/engine"
)

// maxExtractRunes bounds the raw text sent to the generation call.
const maxExtractRunes = 24000

var validate = validator.New()

// Closed enumerations for job-description normalization.
var (
	JDLevels          = []string{"intern", "junior", "mid", "senior", "lead", "staff", "principal"}
	JDEmploymentTypes = []string{"full_time", "part_time", "contract", "internship", "freelance", "temporary"}
)

var levelSynonyms = map[string]string{
	"entry": "junior", "entry_level": "junior", "jr": "junior", "graduate": "junior",
	"mid_level": "mid", "middle": "mid", "intermediate": "mid",
	"sr": "senior", "snr": "senior",
	"team_lead": "lead", "tech_lead": "lead", "lead_engineer": "lead",
	"internship": "intern",
}

var employmentSynonyms = map[string]string{
	"fulltime": "full_time", "full": "full_time", "permanent": "full_time",
	"parttime": "part_time", "part": "part_time",
	"contractor": "contract", "fixed_term": "contract",
	"intern": "internship",
	"temp": "temporary",
}

// Extract turns raw document text into a structured record with one
// generation call. Only résumés and job descriptions are supported.
func Extract(ctx context.Context, rawText string, docType DocType, generate GenerateFunc) (StructuredData, error) {
	var prompt string
	switch docType {
	case DocResume:
		prompt = resumeExtractPrompt
	case DocJobDescription:
		prompt = jdExtractPrompt
	default:
		return StructuredData{}, fmt.Errorf("extract: %w: %q has no schema", ErrInvalidDocType, docType)
	}
	if generate == nil {
		return StructuredData{}, fmt.Errorf("extract: %w: no generate function", ErrGenerationFailed)
	}

	doc := "Document:\n\"\"\"\n" + engine.TruncateRunes(rawText, maxExtractRunes, "") + "\n\"\"\""
	raw, err := generate(ctx, prompt, doc)
	if err != nil {
		return StructuredData{}, fmt.Errorf("extract %s: %w: %v", docType, ErrGenerationFailed, err)
	}
	return ParseStructured(raw, docType)
}

// ParseStructured decodes and validates a generation response.
func ParseStructured(raw string, docType DocType) (StructuredData, error) {
	body := []byte(engine.StripFences(raw))

	switch docType {
	case DocResume:
		var r Resume
		if err := json.Unmarshal(body, &r); err != nil {
			return StructuredData{}, parseErr(docType, err, raw)
		}
		backfillResume(&r)
		if err := checkRequired(&r); err != nil {
			return StructuredData{}, err
		}
		return ResumeData(&r), nil

	case DocJobDescription:
		var jd JobDescription
		if err := json.Unmarshal(body, &jd); err != nil {
			return StructuredData{}, parseErr(docType, err, raw)
		}
		backfillJD(&jd)
		if err := checkRequired(&jd); err != nil {
			return StructuredData{}, err
		}
		return JDData(&jd), nil
	}
	return StructuredData{}, fmt.Errorf("%w: %q", ErrInvalidDocType, docType)
}

func parseErr(docType DocType, err error, raw string) error {
	return fmt.Errorf("%s parse: %w: %v (raw: %s)", docType, ErrParseFailure, err, engine.TruncateRunes(raw, 200, "..."))
}

func checkRequired(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, e.Namespace()+" ("+e.Tag()+")")
		}
		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
}

func backfillResume(r *Resume) {
	id := &r.Identity
	for _, s := range []*string{&id.Name, &id.Email, &id.Phone, &id.Location, &id.LinkedIn, &id.GitHub, &id.Website, &id.Summary} {
		*s = strings.TrimSpace(*s)
	}
	r.Skills = cleanList(r.Skills)
	r.Achievements = cleanList(r.Achievements)

	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	for i := range r.Experience {
		e := &r.Experience[i]
		e.Company = strings.TrimSpace(e.Company)
		e.Role = strings.TrimSpace(e.Role)
		e.Location = strings.TrimSpace(e.Location)
		e.StartDate = normalizeDate(e.StartDate)
		e.EndDate = normalizeDate(e.EndDate)
		e.Bullets = cleanList(e.Bullets)
		e.Technologies = cleanList(e.Technologies)
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		p := &r.Projects[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Description = strings.TrimSpace(p.Description)
		p.URL = strings.TrimSpace(p.URL)
		p.StartDate = normalizeDate(p.StartDate)
		p.EndDate = normalizeDate(p.EndDate)
		p.Technologies = cleanList(p.Technologies)
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	for i := range r.Education {
		e := &r.Education[i]
		e.Institution = strings.TrimSpace(e.Institution)
		e.Degree = strings.TrimSpace(e.Degree)
		e.Field = strings.TrimSpace(e.Field)
		e.StartDate = normalizeDate(e.StartDate)
		e.EndDate = normalizeDate(e.EndDate)
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	for i := range r.Certifications {
		c := &r.Certifications[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Issuer = strings.TrimSpace(c.Issuer)
		c.Date = normalizeDate(c.Date)
	}
	if r.Leadership == nil {
		r.Leadership = []Leadership{}
	}
	for i := range r.Leadership {
		l := &r.Leadership[i]
		l.Role = strings.TrimSpace(l.Role)
		l.Organization = strings.TrimSpace(l.Organization)
		l.Description = strings.TrimSpace(l.Description)
		l.StartDate = normalizeDate(l.StartDate)
		l.EndDate = normalizeDate(l.EndDate)
	}
	if r.SkillExperience == nil {
		r.SkillExperience = map[string]int{}
	}
}

func backfillJD(jd *JobDescription) {
	for _, s := range []*string{&jd.Title, &jd.Company, &jd.Location, &jd.Summary} {
		*s = strings.TrimSpace(*s)
	}
	jd.Level = NormalizeLevel(jd.Level)
	jd.EmploymentType = NormalizeEmploymentType(jd.EmploymentType)
	jd.Requirements = cleanList(jd.Requirements)
	jd.NiceToHaves = cleanList(jd.NiceToHaves)
	jd.Responsibilities = cleanList(jd.Responsibilities)
	jd.Technologies = cleanList(jd.Technologies)
	jd.Keywords = cleanList(jd.Keywords)
}

// NormalizeLevel folds a free-form seniority into JDLevels, defaulting to "mid".
func NormalizeLevel(s string) string {
	return foldEnum(s, JDLevels, levelSynonyms, "mid")
}

// NormalizeEmploymentType folds into JDEmploymentTypes, defaulting to "full_time".
func NormalizeEmploymentType(s string) string {
	return foldEnum(s, JDEmploymentTypes, employmentSynonyms, "full_time")
}

func foldEnum(s string, allowed []string, synonyms map[string]string, def string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_", ".", "").Replace(key)
	for _, a := range allowed {
		if key == a {
			return a
		}
	}
	if v, ok := synonyms[key]; ok {
		return v
	}
	return def
}

// normalizeDate trims and maps "present"-style markers to the empty (ongoing) date.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "present", "current", "now", "ongoing", "today", "-":
		return ""
	}
	return s
}

// cleanList trims items, drops empties and never returns nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
