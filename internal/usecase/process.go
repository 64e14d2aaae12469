package usecase

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/snapcheck/internal/analyzer"
	"github.com/example/snapcheck/internal/framer"
	"github.com/example/snapcheck/internal/logging"
	"github.com/example/snapcheck/internal/storage"
)

// cacheTTL keeps identical uploads from burning a second vision call for
// a day.
const cacheTTL = 24 * time.Hour

// Compositor renders the verdict frame around a photo.
type Compositor interface {
	Compose(photo image.Image, style string) (image.Image, error)
}

// PhotoStore persists framed output and reports its public URL.
type PhotoStore interface {
	SaveFramed(data []byte, style string) (path string, url string, err error)
}

// AnalysisRepository defines the persistence operations needed by the use case.
type AnalysisRepository interface {
	Save(ctx context.Context, record *storage.AnalysisRecord) error
	Recent(ctx context.Context, limit int) ([]storage.AnalysisRecord, error)
	FindByHash(ctx context.Context, hash string) (*storage.AnalysisRecord, error)
	AggregateMetrics(ctx context.Context) (total, positive int64, err error)
}

// ProcessUseCase encapsulates the photo processing flow: analyze, frame,
// store, record.
type ProcessUseCase struct {
	analyzer       analyzer.Analyzer
	compositor     Compositor
	photos         PhotoStore
	repo           AnalysisRepository
	cache          Cache
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ProcessResult is what the handler turns into the success response.
type ProcessResult struct {
	RequestID      string
	ImageURL       string
	FrameStyle     string
	AnalysisResult string
	Message        string
}

type cachedAnalysis struct {
	RequestID  string    `json:"request_id"`
	ImageURL   string    `json:"image_url"`
	FrameStyle string    `json:"frame_style"`
	Answer     string    `json:"analysis_result"`
	Hash       string    `json:"sha1_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewProcessUseCase constructs a new use case instance.
func NewProcessUseCase(a analyzer.Analyzer, compositor Compositor, photos PhotoStore, repo AnalysisRepository, cache Cache, logger *zap.Logger) *ProcessUseCase {
	return &ProcessUseCase{
		analyzer:       a,
		compositor:     compositor,
		photos:         photos,
		repo:           repo,
		cache:          cache,
		logger:         logger.Named("process_usecase"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// Process runs one photo through analysis, framing and storage. An
// identical photo seen before is served from the cache without another
// vision call. Analyzer failures degrade to a "no" verdict and framing
// failures degrade to the unframed photo; only storage failures abort.
func (uc *ProcessUseCase) Process(ctx context.Context, photoBytes []byte, mimeType string) (*ProcessResult, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.process_photo", requestID)

	hash := sha1.Sum(photoBytes)
	hashHex := hex.EncodeToString(hash[:])
	cacheKey := fmt.Sprintf("analysis:%s", hashHex)

	if cached, err := uc.withRedisGet(ctx, requestID, "cache.get.analysis", cacheKey); err == nil {
		var payload cachedAnalysis
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			opLogger.Warn("failed to decode cached analysis", zap.Error(err))
		} else {
			opLogger.Info("analysis served from cache",
				zap.String("hash", hashHex),
				zap.String("cached_request_id", payload.RequestID))
			return &ProcessResult{
				RequestID:      payload.RequestID,
				ImageURL:       payload.ImageURL,
				FrameStyle:     payload.FrameStyle,
				AnalysisResult: payload.Answer,
				Message:        successMessage(payload.FrameStyle),
			}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		opLogger.Warn("failed to read analysis cache", zap.Error(err))
	}

	// The record store is the second dedupe tier; it survives a Redis
	// restart. A hit refills the cache for the next repeat.
	if record, err := uc.repo.FindByHash(ctx, hashHex); err == nil {
		opLogger.Info("analysis served from stored record",
			zap.String("hash", hashHex),
			zap.String("stored_request_id", record.RequestID))
		uc.storeInCache(ctx, opLogger, requestID, cacheKey, cachedAnalysis{
			RequestID:  record.RequestID,
			ImageURL:   record.ImageURL,
			FrameStyle: record.FrameStyle,
			Answer:     record.Verdict,
			Hash:       record.SHA1Hash,
			CreatedAt:  record.CreatedAt,
		})
		return &ProcessResult{
			RequestID:      record.RequestID,
			ImageURL:       record.ImageURL,
			FrameStyle:     record.FrameStyle,
			AnalysisResult: record.Verdict,
			Message:        successMessage(record.FrameStyle),
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		opLogger.Warn("failed to look up stored analysis", zap.Error(err))
	}

	answer, err := uc.analyzer.Analyze(ctx, photoBytes, mimeType)
	if err != nil {
		opLogger.Warn("analysis failed, defaulting verdict to no", zap.Error(err))
		answer = "no"
	}

	style := framer.StyleNo
	if answer == "yes" {
		style = framer.StyleYes
	}

	photo, _, err := image.Decode(bytes.NewReader(photoBytes))
	if err != nil {
		wrapped := logging.NewOperationError("usecase.decode_photo", requestID, err)
		opLogger.Error("failed to decode photo", zap.Error(wrapped))
		return nil, wrapped
	}

	output := photo
	if composited, err := uc.compositor.Compose(photo, style); err != nil {
		// Ship the unframed photo rather than failing the whole request.
		opLogger.Warn("frame composition failed, storing unframed photo", zap.Error(err))
	} else {
		output = composited
	}

	framedData, err := framer.EncodeJPEG(output)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.encode_photo", requestID, err)
		opLogger.Error("failed to encode framed photo", zap.Error(wrapped))
		return nil, wrapped
	}

	relPath, imageURL, err := uc.photos.SaveFramed(framedData, style)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.store_photo", requestID, err)
		opLogger.Error("failed to store framed photo", zap.Error(wrapped))
		return nil, wrapped
	}

	record := &storage.AnalysisRecord{
		RequestID:  requestID,
		SHA1Hash:   hashHex,
		Verdict:    answer,
		FrameStyle: style,
		ImagePath:  relPath,
		ImageURL:   imageURL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.repo.Save(ctx, record); err != nil {
		// The photo is already stored and servable; losing the record
		// only degrades the gallery.
		opLogger.Warn("failed to persist analysis record", zap.Error(err))
	}

	uc.storeInCache(ctx, opLogger, requestID, cacheKey, cachedAnalysis{
		RequestID:  requestID,
		ImageURL:   imageURL,
		FrameStyle: style,
		Answer:     answer,
		Hash:       hashHex,
		CreatedAt:  record.CreatedAt,
	})

	opLogger.Info("photo processed",
		zap.String("verdict", answer),
		zap.String("style", style),
		zap.String("image_url", imageURL))

	return &ProcessResult{
		RequestID:      requestID,
		ImageURL:       imageURL,
		FrameStyle:     style,
		AnalysisResult: answer,
		Message:        successMessage(style),
	}, nil
}

// Recent lists the newest analysis records for the gallery.
func (uc *ProcessUseCase) Recent(ctx context.Context, limit int) ([]storage.AnalysisRecord, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.repo.Recent(ctx, limit)
}

func successMessage(style string) string {
	return fmt.Sprintf("Photo processed successfully with %s frame", style)
}

// storeInCache serializes the analysis and writes it through the retrying
// cache path. Failures are logged and swallowed; the response has already
// been produced.
func (uc *ProcessUseCase) storeInCache(ctx context.Context, opLogger *zap.Logger, requestID, cacheKey string, payload cachedAnalysis) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		opLogger.Warn("failed to serialize analysis for cache", zap.Error(err))
		return
	}
	if err := uc.withRedisRetry(ctx, requestID, "cache.set.analysis", func() error {
		return uc.cache.Set(ctx, cacheKey, string(serialized), cacheTTL)
	}); err != nil {
		opLogger.Warn("failed to cache analysis", zap.Error(err))
	}
}

func (uc *ProcessUseCase) withRedisRetry(ctx context.Context, requestID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		if err := fn(); err != nil {
			return logging.NewOperationError(operation, requestID, err)
		}
		return nil
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			// A cache miss is an answer, not a failure.
			if !errors.Is(err, redis.Nil) {
				opLogger.Error("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			}
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *ProcessUseCase) withRedisGet(ctx context.Context, requestID, operation, cacheKey string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, requestID, operation, func() error {
		value, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
