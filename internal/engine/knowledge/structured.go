package knowledge

import (
	"encoding/json"
	"fmt"
)

// Identity is the résumé header.
type Identity struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
}

// Experience is one role. Dates are YYYY-MM; an empty EndDate means ongoing.
type Experience struct {
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	Location     string   `json:"location"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Bullets      []string `json:"bullets"`
	Technologies []string `json:"technologies"`
}

// Project is a side or work project.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
}

// Education is one degree or program.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

type Leadership struct {
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Description  string `json:"description"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// Resume is the structured résumé record. TotalExperienceYears and
// SkillExperience are derived by PostProcess.
type Resume struct {
	Identity       Identity        `json:"identity"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Projects       []Project       `json:"projects"`
	Education      []Education     `json:"education"`
	Achievements   []string        `json:"achievements"`
	Certifications []Certification `json:"certifications"`
	Leadership     []Leadership    `json:"leadership"`

	TotalExperienceYears float64        `json:"total_experience_years"`
	SkillExperience      map[string]int `json:"skill_experience_months"`
}

// CurrentRole returns the first experience entry, which after
// NormalizeTimeline is the most recent one.
func (r *Resume) CurrentRole() (Experience, bool) {
	if r == nil || len(r.Experience) == 0 {
		return Experience{}, false
	}
	return r.Experience[0], true
}

// JobDescription is the structured job posting record.
type JobDescription struct {
	Title            string   `json:"title" validate:"required"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Level            string   `json:"level"`
	EmploymentType   string   `json:"employment_type"`
	Summary          string   `json:"summary"`
	Requirements     []string `json:"requirements"`
	NiceToHaves      []string `json:"nice_to_haves"`
	Responsibilities []string `json:"responsibilities"`
	Technologies     []string `json:"technologies"`
	Keywords         []string `json:"keywords"`
}

// RequiredSkills feeds the JD-skill boost: technologies first, then keywords.
func (jd *JobDescription) RequiredSkills() []string {
	if jd == nil {
		return nil
	}
	out := make([]string, 0, len(jd.Technologies)+len(jd.Keywords))
	out = append(out, jd.Technologies...)
	out = append(out, jd.Keywords...)
	return DedupeFold(out)
}

// TextRecord is the payload of company_wiki and generic documents, which are
// split into sections instead of going through the extractor.
type TextRecord struct {
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
}

// StructuredData is the tagged union stored in knowledge_documents.structured_data.
// Exactly one payload is set and it matches Kind.
type StructuredData struct {
	Kind   DocType
	Resume *Resume
	JD     *JobDescription
	Text   *TextRecord
}

func ResumeData(r *Resume) StructuredData { return StructuredData{Kind: DocResume, Resume: r} }
func JDData(jd *JobDescription) StructuredData {
	return StructuredData{Kind: DocJobDescription, JD: jd}
}
func TextData(kind DocType, t *TextRecord) StructuredData {
	return StructuredData{Kind: kind, Text: t}
}

// Validate checks that the payload matches Kind.
func (s StructuredData) Validate() error {
	switch s.Kind {
	case DocResume:
		if s.Resume == nil {
			return fmt.Errorf("%w: resume payload missing", ErrSchemaViolation)
		}
	case DocJobDescription:
		if s.JD == nil {
			return fmt.Errorf("%w: job description payload missing", ErrSchemaViolation)
		}
	case DocCompanyWiki, DocGeneric:
		if s.Text == nil {
			return fmt.Errorf("%w: text payload missing", ErrSchemaViolation)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDocType, s.Kind)
	}
	return nil
}

// MarshalJSON emits only the type-specific payload.
func (s StructuredData) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case DocResume:
		return json.Marshal(s.Resume)
	case DocJobDescription:
		return json.Marshal(s.JD)
	case DocCompanyWiki, DocGeneric:
		return json.Marshal(s.Text)
	}
	return []byte("null"), nil
}

// DecodeStructuredData rebuilds the union from a stored payload.
func DecodeStructuredData(kind DocType, raw []byte) (StructuredData, error) {
	out := StructuredData{Kind: kind}
	var err error
	switch kind {
	case DocResume:
		out.Resume = &Resume{}
		err = json.Unmarshal(raw, out.Resume)
	case DocJobDescription:
		out.JD = &JobDescription{}
		err = json.Unmarshal(raw, out.JD)
	case DocCompanyWiki, DocGeneric:
		out.Text = &TextRecord{}
		err = json.Unmarshal(raw, out.Text)
	default:
		return out, fmt.Errorf("%w: %q", ErrInvalidDocType, kind)
	}
	if err != nil {
		return out, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return out, nil
}
