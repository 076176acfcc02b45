package diag

import (
	"encoding/json"
	"errors"

	"github.com/chic-lang/chic/internal/mir"
)

// reportSchema is the schema tag stamped on every Report, matching the
// teacher's "ailang.error/v1" convention.
const reportSchema = "chic.diag/v1"

// Fix is a suggested remediation, mirroring the teacher's errors.Fix.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Report is the canonical structured diagnostic chic's lowering pipeline
// emits. All diagnostic-producing code returns *Report (or wraps one as
// a ReportError), matching the teacher's errors.Report/ReportError split.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *mir.Span      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// New builds a Report for code, looking up its phase from the registry.
// An unregistered code gets phase "unknown" rather than panicking, since
// Report must remain constructible for ad-hoc/runtime diagnostics too.
func New(code, message string, span *mir.Span) *Report {
	phase := "unknown"
	if info, ok := Lookup(code); ok {
		phase = info.Phase
	}
	return &Report{
		Schema:  reportSchema,
		Code:    code,
		Phase:   phase,
		Message: message,
		Span:    span,
	}
}

// WithData attaches structured context data and returns r for chaining.
func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

// WithFix attaches a suggested fix and returns r for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// ToJSON renders r as JSON. encoding/json sorts map keys when marshaling
// map[string]any, so Data serializes deterministically without a custom
// encoder.
func (r *Report) ToJSON(indent bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReportError wraps a Report as an error so structured diagnostics
// survive errors.As() unwrapping through ordinary Go error-handling
// paths.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps r as an error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}
