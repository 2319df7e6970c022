package knowledge

import "errors"

// Sentinel errors. Callers match them with errors.Is; the wrapping message
// carries the detail.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrParseFailure      = errors.New("structured output is not valid JSON")
	ErrSchemaViolation   = errors.New("structured output violates schema")
	ErrGenerationFailed  = errors.New("generation call failed")
	ErrInvalidDocType    = errors.New("invalid document type")
	ErrNotFound          = errors.New("not found")
	ErrNoResume          = errors.New("no resume loaded")
	ErrResearchFailed    = errors.New("company research failed")
)
