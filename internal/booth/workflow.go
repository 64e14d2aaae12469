package booth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/camera"
	"github.com/example/snapcheck/internal/logging"
	"github.com/example/snapcheck/internal/photo"
	"github.com/example/snapcheck/internal/present"
	"github.com/example/snapcheck/internal/stats"
	"github.com/example/snapcheck/internal/upload"
)

// Uploader sends an encoded still to the analysis service.
type Uploader interface {
	Send(ctx context.Context, p *photo.EncodedPhoto) (*upload.Result, error)
}

// ResultPresenter reveals and dismisses finished analyses.
type ResultPresenter interface {
	Show(ctx context.Context, result *upload.Result) error
	Close()
}

// DefaultPreviewInterval paces the preview pump.
const DefaultPreviewInterval = 100 * time.Millisecond

// previewMaxDimension keeps preview frames cheap to encode and push.
const previewMaxDimension = 640

// Config wires the workflow's collaborators. Everything is injected; the
// workflow holds no globals and UI controls reach it only through handler
// references.
type Config struct {
	Manager         *camera.Manager
	Compressor      *photo.Compressor
	Uploader        Uploader
	Presenter       ResultPresenter
	Stats           *stats.Store
	Surface         present.Surface
	Logger          *zap.Logger
	Facing          camera.Facing
	PreviewInterval time.Duration
}

// Workflow owns the capture cycle. At most one cycle is in flight: capture
// requests are ignored unless the preview is active, which closes the
// overlapping-upload gap by construction.
type Workflow struct {
	manager    *camera.Manager
	compressor *photo.Compressor
	preview    *photo.Compressor
	uploader   Uploader
	presenter  ResultPresenter
	stats      *stats.Store
	surface    present.Surface
	logger     *zap.Logger

	facing          camera.Facing
	previewInterval time.Duration

	mu            sync.Mutex
	state         State
	session       *camera.Session
	stateListener func(State)
	pumpStarted   bool
}

// New builds a workflow in the Idle state.
func New(cfg Config) *Workflow {
	facing := cfg.Facing
	if facing == "" {
		facing = camera.FacingUser
	}
	interval := cfg.PreviewInterval
	if interval <= 0 {
		interval = DefaultPreviewInterval
	}
	compressor := cfg.Compressor
	if compressor == nil {
		compressor = photo.NewCompressor()
	}
	return &Workflow{
		manager:         cfg.Manager,
		compressor:      compressor,
		preview:         &photo.Compressor{MaxDimension: previewMaxDimension, Quality: photo.DefaultQuality},
		uploader:        cfg.Uploader,
		presenter:       cfg.Presenter,
		stats:           cfg.Stats,
		surface:         cfg.Surface,
		logger:          cfg.Logger.Named("booth"),
		facing:          facing,
		previewInterval: interval,
		state:           StateIdle,
	}
}

// SetStateListener registers the single observer notified on every state
// change. Set it before Start.
func (w *Workflow) SetStateListener(fn func(State)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stateListener = fn
}

// State returns the current pipeline state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start acquires the camera and brings the preview up. The context should
// live as long as the application; it also bounds the preview pump.
func (w *Workflow) Start(ctx context.Context) error {
	if !w.tryTransition(StateIdle, StateAcquiringCamera) {
		w.logger.Debug("start ignored", zap.String("state", w.State().String()))
		return nil
	}
	return w.finishAcquisition(ctx, func() (*camera.Session, error) {
		return w.manager.Acquire(ctx, w.facing)
	})
}

// Retry re-attempts camera acquisition after a failure. It only acts in
// the Error state; the user decides when to retry.
func (w *Workflow) Retry(ctx context.Context) error {
	if !w.tryTransition(StateError, StateAcquiringCamera) {
		w.logger.Debug("retry ignored", zap.String("state", w.State().String()))
		return nil
	}
	return w.finishAcquisition(ctx, func() (*camera.Session, error) {
		return w.manager.Retry(ctx)
	})
}

func (w *Workflow) finishAcquisition(ctx context.Context, open func() (*camera.Session, error)) error {
	session, err := open()
	if err != nil {
		return w.fail("booth.acquire_camera", err)
	}

	w.mu.Lock()
	w.session = session
	w.mu.Unlock()

	w.ensurePump(ctx)
	w.surface.ClearError()
	w.transition(StatePreviewActive)
	return nil
}

// CaptureAndSend runs one full cycle: capture, compress, upload, count,
// present. Requests are ignored unless the preview is active, so pressing
// capture during an in-flight cycle does nothing.
func (w *Workflow) CaptureAndSend(ctx context.Context) error {
	if !w.tryTransition(StatePreviewActive, StateCapturing) {
		w.logger.Debug("capture request ignored", zap.String("state", w.State().String()))
		return nil
	}

	still, err := w.compressor.Capture(ctx, w.currentSession())
	if err != nil {
		return w.fail("booth.capture", err)
	}
	if still == nil {
		w.logger.Info("capture skipped, no live frame")
		w.transition(StatePreviewActive)
		return nil
	}
	w.logger.Info("photo captured",
		zap.Int("width", still.Width),
		zap.Int("height", still.Height),
		zap.Int("bytes", len(still.Data)))

	w.transition(StateUploading)
	w.surface.ShowProcessing(processingCaption)
	result, err := w.uploader.Send(ctx, still)
	w.surface.HideProcessing()
	if err != nil {
		return w.fail("booth.upload", err)
	}

	counters, err := w.stats.Increment()
	if err != nil {
		w.logger.Warn("failed to persist usage counters", zap.Error(err))
	}
	w.surface.StatsChanged(counters)

	if err := w.presenter.Show(ctx, result); err != nil {
		return w.fail("booth.present", err)
	}
	w.transition(StateResultShown)
	return nil
}

// CloseResult dismisses the result view and hands control back to the
// preview, reacquiring the camera if it was lost in the meantime.
func (w *Workflow) CloseResult(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateResultShown {
		w.mu.Unlock()
		return nil
	}
	session := w.session
	needsCamera := session == nil || !session.Active()
	w.mu.Unlock()

	w.presenter.Close()

	if !needsCamera {
		w.transition(StatePreviewActive)
		return nil
	}

	w.transition(StateAcquiringCamera)
	return w.finishAcquisition(ctx, func() (*camera.Session, error) {
		return w.manager.Retry(ctx)
	})
}

// Shutdown releases the camera and parks the workflow. The preview pump
// exits when the context passed to Start is cancelled.
func (w *Workflow) Shutdown() {
	w.presenter.Close()
	w.manager.Release()

	w.mu.Lock()
	w.session = nil
	w.mu.Unlock()

	w.transition(StateIdle)
	w.logger.Info("workflow stopped")
}

func (w *Workflow) currentSession() *camera.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// fail converts a pipeline error into the Error state with a one-line
// message on the surface. The process stays alive; recovery is always an
// explicit user action.
func (w *Workflow) fail(operation string, err error) error {
	wrapped := logging.NewOperationError(operation, "", err)
	w.logger.Error("pipeline step failed", zap.Error(wrapped))
	w.surface.ShowError(UserMessage(err))
	w.transition(StateError)
	return wrapped
}

func (w *Workflow) transition(next State) {
	w.mu.Lock()
	prev := w.state
	w.state = next
	listener := w.stateListener
	w.mu.Unlock()

	if prev != next {
		w.logger.Debug("state changed",
			zap.String("from", prev.String()),
			zap.String("to", next.String()))
		if listener != nil {
			listener(next)
		}
	}
}

func (w *Workflow) tryTransition(from, next State) bool {
	w.mu.Lock()
	if w.state != from {
		w.mu.Unlock()
		return false
	}
	w.state = next
	listener := w.stateListener
	w.mu.Unlock()

	if listener != nil {
		listener(next)
	}
	return true
}

// ensurePump starts the preview pump once. The pump pushes downscaled
// frames to the surface whenever a session is live and stops with ctx.
func (w *Workflow) ensurePump(ctx context.Context) {
	w.mu.Lock()
	if w.pumpStarted {
		w.mu.Unlock()
		return
	}
	w.pumpStarted = true
	w.mu.Unlock()

	go w.pump(ctx)
}

func (w *Workflow) pump(ctx context.Context) {
	ticker := time.NewTicker(w.previewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		session := w.currentSession()
		if session == nil || !session.Active() {
			continue
		}

		frame, err := session.Frame(ctx)
		if err != nil || frame == nil {
			continue
		}
		encoded, err := w.preview.Encode(frame)
		if err != nil {
			continue
		}
		w.surface.PreviewFrame(encoded.Data)
	}
}
