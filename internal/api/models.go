package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/domain/srs"
	"github.com/vocabforge/vocab-api/internal/service/progress"
)

// ReviewRequest is the body of POST /api/progress/review and one entry of a session.
type ReviewRequest struct {
	WordID         uuid.UUID `json:"word_id"                    validate:"required"`
	IsCorrect      *bool     `json:"is_correct"                 validate:"required"`
	QuizType       string    `json:"quiz_type"                  validate:"required,quiztype"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty" validate:"omitempty,gte=0"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"  validate:"omitempty,min=1,max=255"`
}

// toInput converts the request into a service input for userID.
// The request must already have passed validation.
func (r ReviewRequest) toInput(userID uuid.UUID) progress.ReviewInput {
	quizType, _ := domain.ParseQuizType(r.QuizType)
	return progress.ReviewInput{
		UserID:         userID,
		WordID:         r.WordID,
		IsCorrect:      *r.IsCorrect,
		QuizType:       quizType,
		ResponseTimeMs: r.ResponseTimeMs,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// SessionRequest is the body of POST /api/progress/session.
type SessionRequest struct {
	Reviews []ReviewRequest `json:"reviews" validate:"required,min=1,max=50,dive"`
}

// ProgressResponse is a progress record as returned to clients.
type ProgressResponse struct {
	ID                  string     `json:"id"`
	WordID              string     `json:"word_id"`
	Strength            int        `json:"strength"`
	StrengthDescription string     `json:"strength_description"`
	TotalReviews        int        `json:"total_reviews"`
	CorrectReviews      int        `json:"correct_reviews"`
	ConsecutiveCorrect  int        `json:"consecutive_correct"`
	RetentionRate       float64    `json:"retention_rate"`
	NextReviewDate      time.Time  `json:"next_review_date"`
	LastReviewed        *time.Time `json:"last_reviewed,omitempty"`
	IsDue               bool       `json:"is_due"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DueWordResponse is one entry in DueWordsResponse.
type DueWordResponse struct {
	Progress ProgressResponse    `json:"progress"`
	Word     *domain.WordSummary `json:"word"`
	Priority int                 `json:"priority"`
}

// DueWordsResponse is the body of GET /api/progress/due.
type DueWordsResponse struct {
	Words         []DueWordResponse `json:"words"`
	TotalDue      int               `json:"total_due"`
	OverdueCount  int               `json:"overdue_count"`
	NewWordsCount int               `json:"new_words_count"`
}

// ReviewSessionResponse is the body of POST /api/progress/session.
type ReviewSessionResponse struct {
	WordsReviewed  int                `json:"words_reviewed"`
	CorrectAnswers int                `json:"correct_answers"`
	Accuracy       float64            `json:"accuracy"`
	UpdatedWords   []ProgressResponse `json:"updated_words"`
}

// LearningStatsResponse is the body of GET /api/progress/stats.
type LearningStatsResponse struct {
	domain.LearningStats
}

// progressToResponse converts a record for output. now decides IsDue.
func progressToResponse(p *domain.ProgressRecord, scheduler srs.Service, now time.Time) ProgressResponse {
	return ProgressResponse{
		ID:                  p.ID.String(),
		WordID:              p.WordID.String(),
		Strength:            p.Strength,
		StrengthDescription: scheduler.DescribeStrength(p.Strength),
		TotalReviews:        p.TotalReviews,
		CorrectReviews:      p.CorrectReviews,
		ConsecutiveCorrect:  p.ConsecutiveCorrect,
		RetentionRate:       scheduler.Retention(p.CorrectReviews, p.TotalReviews),
		NextReviewDate:      p.NextReviewDate,
		LastReviewed:        p.LastReviewed,
		IsDue:               scheduler.IsDue(p.NextReviewDate, now),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func dueWordsToResponse(
	words []progress.DueWord,
	summary *progress.DueSummary,
	scheduler srs.Service,
	now time.Time,
) DueWordsResponse {
	resp := DueWordsResponse{
		Words: make([]DueWordResponse, 0, len(words)),
	}
	for _, dw := range words {
		resp.Words = append(resp.Words, DueWordResponse{
			Progress: progressToResponse(dw.Progress, scheduler, now),
			Word:     dw.Word,
			Priority: dw.Priority,
		})
	}
	if summary != nil {
		resp.TotalDue = summary.TotalDue
		resp.OverdueCount = summary.OverdueCount
		resp.NewWordsCount = summary.NewWordsCount
	}
	return resp
}

func sessionToResponse(result *progress.SessionResult, scheduler srs.Service, now time.Time) ReviewSessionResponse {
	resp := ReviewSessionResponse{
		WordsReviewed:  result.WordsReviewed,
		CorrectAnswers: result.CorrectAnswers,
		Accuracy:       result.Accuracy,
		UpdatedWords:   make([]ProgressResponse, 0, len(result.UpdatedWords)),
	}
	for _, p := range result.UpdatedWords {
		resp.UpdatedWords = append(resp.UpdatedWords, progressToResponse(p, scheduler, now))
	}
	return resp
}
