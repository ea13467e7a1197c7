package srs

import (
	"math"
	"time"

	"github.com/vocabforge/vocab-api/internal/domain"
)

const day = 24 * time.Hour

// priorityNotDueBase is added to the strength of words that are not yet due,
// so every due word ranks ahead of every word that is not.
const priorityNotDueBase = 1000

// maxIntervalDays caps a single interval at 100 years. Streak bonuses are
// unbounded, and larger values overflow time.Duration.
const maxIntervalDays = 36500

var strengthLabels = [domain.MaxStrength + 1]string{
	"New",
	"Learning",
	"Familiar",
	"Good",
	"Strong",
	"Very Strong",
	"Mastered",
}

// clampStrength forces a stored strength into the valid range. Records are
// validated on write, so this only matters for hand-edited or legacy rows.
func clampStrength(strength int) int {
	if strength < domain.MinStrength {
		return domain.MinStrength
	}
	if strength > domain.MaxStrength {
		return domain.MaxStrength
	}
	return strength
}

// calculateNewStrength moves strength up one level on a correct answer and
// down two on an incorrect one, within [MinStrength, MaxStrength].
func calculateNewStrength(currentStrength int, isCorrect bool, params *Params) int {
	current := clampStrength(currentStrength)
	if isCorrect {
		return min(current+params.CorrectStrengthStep, domain.MaxStrength)
	}
	return max(current-params.IncorrectStrengthStep, domain.MinStrength)
}

// calculateStreakBonus rewards long runs of correct answers. Incorrect answers
// get no bonus regardless of the streak passed in.
func calculateStreakBonus(isCorrect bool, consecutiveCorrect int, params *Params) float64 {
	if !isCorrect {
		return 1.0
	}
	if consecutiveCorrect < 0 {
		consecutiveCorrect = 0
	}
	return 1.0 + params.StreakBonusPerReview*float64(consecutiveCorrect)
}

// difficultyMultiplier returns the interval multiplier for a word difficulty.
// Absent or unrecognised difficulties use the default multiplier.
func difficultyMultiplier(difficulty *domain.Difficulty, params *Params) float64 {
	if difficulty == nil {
		return params.DefaultDifficultyMultiplier
	}
	if m, ok := params.DifficultyMultiplier[*difficulty]; ok {
		return m
	}
	return params.DefaultDifficultyMultiplier
}

// jitterFactor maps a uniform sample u in [0, 1) onto [JitterMin, JitterMax].
func jitterFactor(u float64, params *Params) float64 {
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	return params.JitterMin + u*(params.JitterMax-params.JitterMin)
}

// calculateIntervalDays combines the base interval for the new strength with
// the difficulty multiplier, streak bonus and jitter, capped at maxIntervalDays.
func calculateIntervalDays(
	newStrength int,
	difficulty *domain.Difficulty,
	streakBonus float64,
	jitter float64,
	params *Params,
) float64 {
	base := params.BaseIntervalDays[clampStrength(newStrength)]
	days := base * difficultyMultiplier(difficulty, params) * streakBonus * jitter
	return min(days, maxIntervalDays)
}

// daysToDuration converts fractional days to an absolute duration, clamped to
// [0, maxIntervalDays].
func daysToDuration(days float64) time.Duration {
	days = max(0, min(days, maxIntervalDays))
	return time.Duration(days * float64(day))
}

// calculatePriority scores a word for review ordering; lower is more urgent.
// Due words score 10*strength minus the whole days overdue, so weak and long
// overdue words come first. Words not yet due score above every due word.
func calculatePriority(nextReview time.Time, strength int, now time.Time) int {
	if nextReview.After(now) {
		return priorityNotDueBase + strength
	}
	daysOverdue := int(math.Floor(now.Sub(nextReview).Hours() / 24))
	return strength*10 - daysOverdue
}

// calculateRetention returns the percentage of correct reviews.
func calculateRetention(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// describeStrength returns the display label for a strength level.
func describeStrength(strength int) string {
	if strength < domain.MinStrength || strength > domain.MaxStrength {
		return "Unknown"
	}
	return strengthLabels[strength]
}
