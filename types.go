package rpgtl

// TextUnit is one translatable string found in a document.
type TextUnit struct {
	Path      Path   `json:"path"`       // Location of the string in the document
	Text      string `json:"text"`       // Original text, untrimmed
	FieldName string `json:"field_name"` // Diagnostic label, e.g. "parameters[0]"
}

// Hash returns the cache hash of the unit's text.
func (u TextUnit) Hash() string {
	return HashText(u.Text)
}

// TranslateRequest is a single string to translate.
type TranslateRequest struct {
	Text       string
	SourceLang string // "auto" lets the backend detect the language
	TargetLang string
}

// UnitFailure records a unit that stayed untranslated.
type UnitFailure struct {
	Unit TextUnit
	Err  error
}

// ProcessedDocument summarises a translation pass over one document.
type ProcessedDocument struct {
	TotalUnits      int           // Units found by Extract
	TranslatedCount int           // Units patched with a fresh translation
	CachedCount     int           // Units patched from the cache
	FailedCount     int           // Units left untranslated
	PatchFailures   int           // Translations that could not be written back
	Failures        []UnitFailure // Details for FailedCount and PatchFailures
}

// Complete reports whether every unit was translated and written back.
func (p *ProcessedDocument) Complete() bool {
	return p.FailedCount == 0 && p.PatchFailures == 0
}

// DefaultEndpoints are public Lingva instances, tried in this order.
var DefaultEndpoints = []string{
	"https://lingva.lunar.icu/api/v1",
	"https://lingva.ml/api/v1",
	"https://translate.plausibility.cloud/api/v1",
}

// AutoDetect asks the backend to detect the source language.
const AutoDetect = "auto"
