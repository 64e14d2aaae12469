// Package present maps analysis results onto the booth's UI surface. The
// surface itself (markup, styling) lives outside this module; everything
// here talks to it through the Surface interface.
package present

import "github.com/example/snapcheck/internal/stats"

// ResultView is everything the surface needs to render a finished
// analysis. Image holds the fully fetched framed photo; the surface never
// has to load it over the network.
type ResultView struct {
	Title     string
	Caption   string
	Accent    string
	Answer    string
	Image     []byte
	ImageMIME string
}

// Surface renders booth output. Implementations must tolerate calls from
// the workflow goroutine.
type Surface interface {
	// PreviewFrame delivers the latest encoded preview frame.
	PreviewFrame(jpegData []byte)
	// ShowProcessing and HideProcessing toggle the in-flight indicator.
	ShowProcessing(caption string)
	HideProcessing()
	// ShowResult reveals a finished analysis; HideResult dismisses it.
	ShowResult(view ResultView)
	HideResult()
	// ShowError renders a single-line failure banner; ClearError removes it.
	ShowError(message string)
	ClearError()
	// StatsChanged reports updated usage counters.
	StatsChanged(s stats.Stats)
}
