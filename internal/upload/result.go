// Package upload posts encoded stills to the analysis service and decodes
// its verdict.
package upload

// Verdict is the analysis outcome as the booth understands it.
type Verdict int

const (
	// VerdictUnknown covers any answer that is not literally yes or no.
	VerdictUnknown Verdict = iota
	VerdictPositive
	VerdictNegative
)

// String returns the verdict's identifier for logs.
func (v Verdict) String() string {
	switch v {
	case VerdictPositive:
		return "positive"
	case VerdictNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// VerdictFromAnswer maps the service's analysisResult field onto a verdict.
// The comparison is exact; the service already normalizes its answer.
func VerdictFromAnswer(answer string) Verdict {
	switch answer {
	case "yes":
		return VerdictPositive
	case "no":
		return VerdictNegative
	default:
		return VerdictUnknown
	}
}

// Result is a successful analysis response.
type Result struct {
	Verdict    Verdict
	Answer     string
	ImageURL   string
	FrameStyle string
	Message    string
}
