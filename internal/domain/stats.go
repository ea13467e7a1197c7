package domain

// StrengthBand groups strengths for reporting.
type StrengthBand string

// Strength bands: learning is 0-2, strong is 3-5, mastered is MaxStrength.
const (
	BandLearning StrengthBand = "learning"
	BandStrong   StrengthBand = "strong"
	BandMastered StrengthBand = "mastered"
)

// BandFor returns the reporting band for a strength value.
func BandFor(strength int) StrengthBand {
	switch {
	case strength >= MaxStrength:
		return BandMastered
	case strength >= 3:
		return BandStrong
	default:
		return BandLearning
	}
}

// StreakInfo holds a user's daily study streak.
type StreakInfo struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// UserStat names a counter on the user profile aggregate.
type UserStat string

// Known user counters.
const (
	StatTotalQuizzesTaken UserStat = "total_quizzes_taken"
)

// LearningStats is a point-in-time snapshot of a user's progress. It is
// computed on demand and never stored.
type LearningStats struct {
	TotalWords      int     `json:"total_words_learning"`
	LearningWords   int     `json:"words_learning"`
	StrongWords     int     `json:"words_strong"`
	MasteredWords   int     `json:"words_mastered"`
	DueForReview    int     `json:"words_due_review"`
	OverdueWords    int     `json:"words_overdue"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	ReviewsToday    int     `json:"reviews_today"`
	ReviewsThisWeek int     `json:"reviews_this_week"`
	ReviewsTotal    int     `json:"reviews_total"`
	CurrentStreak   int     `json:"current_streak"`
	LongestStreak   int     `json:"longest_streak"`
}
