package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vocabforge/vocab-api/internal/api/shared"
	"github.com/vocabforge/vocab-api/internal/config"
	"github.com/vocabforge/vocab-api/internal/domain/srs"
	"github.com/vocabforge/vocab-api/internal/platform/logger"
	"github.com/vocabforge/vocab-api/internal/redact"
	"github.com/vocabforge/vocab-api/internal/service/progress"
)

// ProgressHandler serves the /api/progress endpoints.
type ProgressHandler struct {
	progressService progress.Service
	scheduler       srs.Service
	defaultLimit    int
	maxLimit        int
	logger          *slog.Logger
	now             func() time.Time
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(
	progressService progress.Service,
	scheduler srs.Service,
	cfg config.ProgressConfig,
	logger *slog.Logger,
) *ProgressHandler {
	if progressService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progressService cannot be nil for ProgressHandler")
	}
	if scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("scheduler cannot be nil for ProgressHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProgressHandler")
	}

	maxLimit := cfg.MaxDueLimit
	if maxLimit <= 0 {
		maxLimit = progress.DefaultMaxDueLimit
	}
	defaultLimit := cfg.DefaultDueLimit
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(20, maxLimit)
	}

	return &ProgressHandler{
		progressService: progressService,
		scheduler:       scheduler,
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
		logger:          logger.With(slog.String("component", "progress_handler")),
		now:             time.Now,
	}
}

// RecordReview handles POST /api/progress/review.
func (h *ProgressHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req ReviewRequest
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}
	req.IdempotencyKey = idempotencyKey(r, req.IdempotencyKey)

	record, err := h.progressService.RecordReview(r.Context(), req.toInput(userID))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	log.Debug("review recorded",
		slog.String("word_id", record.WordID.String()),
		slog.Int("strength", record.Strength))
	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(record, h.scheduler, h.now()))
}

// RecordSession handles POST /api/progress/session.
func (h *ProgressHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req SessionRequest
	if !h.decodeAndValidate(w, r, log, &req) {
		return
	}

	inputs := make([]progress.ReviewInput, 0, len(req.Reviews))
	for _, review := range req.Reviews {
		inputs = append(inputs, review.toInput(userID))
	}

	result, err := h.progressService.RecordReviewSession(r.Context(), userID, inputs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review session")
		return
	}

	log.Debug("review session recorded",
		slog.Int("words_reviewed", result.WordsReviewed),
		slog.Int("correct_answers", result.CorrectAnswers))
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(result, h.scheduler, h.now()))
}

// GetDueWords handles GET /api/progress/due?limit=&order=.
func (h *ProgressHandler) GetDueWords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	limit, err := getQueryInt(r, "limit", h.defaultLimit)
	if err == nil && (limit < 1 || limit > h.maxLimit) {
		err = fmt.Errorf("%w: must be between 1 and %d", progress.ErrInvalidLimit, h.maxLimit)
	}
	if err != nil {
		log.Warn("invalid limit", slog.String("limit", r.URL.Query().Get("limit")))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			fmt.Sprintf("Invalid limit: must be between 1 and %d", h.maxLimit), err)
		return
	}

	order, err := progress.ParseDueOrder(r.URL.Query().Get("order"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	words, err := h.progressService.GetDueWords(r.Context(), userID, limit, order)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due words")
		return
	}

	summary, err := h.progressService.GetDueSummary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due words")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dueWordsToResponse(words, summary, h.scheduler, h.now()))
}

// GetStats handles GET /api/progress/stats.
func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.progressService.GetLearningStats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get learning stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LearningStatsResponse{LearningStats: *stats})
}

// EnsureProgress handles PUT /api/progress/words/{wordID}. It returns the
// existing record or starts tracking the word.
func (h *ProgressHandler) EnsureProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserIDAndPathUUID(w, r, "wordID", log)
	if !ok {
		return
	}

	record, err := h.progressService.GetOrCreateProgress(r.Context(), userID, wordID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(record, h.scheduler, h.now()))
}

// decodeAndValidate reads the JSON body into v and validates it. On failure
// it writes a 400 and returns false.
func (h *ProgressHandler) decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	v interface{},
) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		message := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			message = GetSafeErrorMessage(err)
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err)
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		message := "Validation error"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			message = SanitizeValidationError(err)
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err)
		return false
	}
	return true
}
