package kiosk

import (
	"encoding/base64"

	"github.com/example/snapcheck/internal/booth"
	"github.com/example/snapcheck/internal/present"
	"github.com/example/snapcheck/internal/stats"
)

// Wire events pushed to kiosk pages. Preview frames travel as binary
// websocket messages instead; everything else is a typed JSON object.
type stateEvent struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type processingEvent struct {
	Type    string `json:"type"`
	Active  bool   `json:"active"`
	Caption string `json:"caption,omitempty"`
}

type resultEvent struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Caption string `json:"caption"`
	Accent  string `json:"accent"`
	Answer  string `json:"answer"`
	// Image is a data URL so the page can render the photo without a
	// second fetch; the download button uses /result/image instead.
	Image string `json:"image"`
}

type resultClosedEvent struct {
	Type string `json:"type"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type statsEvent struct {
	Type            string `json:"type"`
	PhotosProcessed int64  `json:"photosProcessed"`
	FramesApplied   int64  `json:"framesApplied"`
	AIAnalyses      int64  `json:"aiAnalyses"`
}

func newStateEvent(state booth.State) stateEvent {
	return stateEvent{Type: "state", State: state.String()}
}

func newStatsEvent(s stats.Stats) statsEvent {
	return statsEvent{
		Type:            "stats",
		PhotosProcessed: s.PhotosProcessed,
		FramesApplied:   s.FramesApplied,
		AIAnalyses:      s.AIAnalyses,
	}
}

// Surface broadcasts booth output to every connected kiosk page. It is
// the websocket-backed implementation of present.Surface.
type Surface struct {
	hub *Hub
}

func NewSurface(hub *Hub) *Surface {
	return &Surface{hub: hub}
}

// StateChanged mirrors workflow state transitions onto the pages. Wire
// it up with the workflow's state listener.
func (s *Surface) StateChanged(state booth.State) {
	s.hub.BroadcastEvent(newStateEvent(state))
}

func (s *Surface) PreviewFrame(jpegData []byte) {
	s.hub.BroadcastFrame(jpegData)
}

func (s *Surface) ShowProcessing(caption string) {
	s.hub.BroadcastEvent(processingEvent{Type: "processing", Active: true, Caption: caption})
}

func (s *Surface) HideProcessing() {
	s.hub.BroadcastEvent(processingEvent{Type: "processing", Active: false})
}

func (s *Surface) ShowResult(view present.ResultView) {
	s.hub.BroadcastEvent(resultEvent{
		Type:    "result",
		Title:   view.Title,
		Caption: view.Caption,
		Accent:  view.Accent,
		Answer:  view.Answer,
		Image:   dataURL(view.ImageMIME, view.Image),
	})
}

func (s *Surface) HideResult() {
	s.hub.BroadcastEvent(resultClosedEvent{Type: "resultClosed"})
}

func (s *Surface) ShowError(message string) {
	s.hub.BroadcastEvent(errorEvent{Type: "error", Message: message})
}

func (s *Surface) ClearError() {
	s.hub.BroadcastEvent(errorEvent{Type: "errorCleared"})
}

func (s *Surface) StatsChanged(st stats.Stats) {
	s.hub.BroadcastEvent(newStatsEvent(st))
}

func dataURL(mime string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
