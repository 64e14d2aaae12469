package present

import "github.com/example/snapcheck/internal/upload"

// Accent colors for the result panel, one per verdict.
const (
	accentPositive = "#e63946"
	accentNegative = "#2a9d8f"
	accentUnknown  = "#e9c46a"
)

// Result copy is fixed; the booth never shows service-provided text for a
// successful analysis.
const (
	titlePositive = "hell yeah"
	titleNegative = "nah"
	titleUnknown  = "Analysis Complete"

	captionPositive = "That's a software issue alright. Grab your framed evidence below and file the ticket."
	captionNegative = "No software issue detected. Have you tried turning it off and on again anyway?"
	captionUnknown  = "The analysis finished without a clear verdict. Keep the photo, just in case."
)

// ViewFor builds the result view for a verdict. The image fields are left
// empty; the presenter fills them after the fetch completes.
func ViewFor(result *upload.Result) ResultView {
	view := ResultView{Answer: result.Answer}
	switch result.Verdict {
	case upload.VerdictPositive:
		view.Title = titlePositive
		view.Caption = captionPositive
		view.Accent = accentPositive
	case upload.VerdictNegative:
		view.Title = titleNegative
		view.Caption = captionNegative
		view.Accent = accentNegative
	default:
		view.Title = titleUnknown
		view.Caption = captionUnknown
		view.Accent = accentUnknown
	}
	return view
}
