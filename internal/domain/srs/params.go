package srs

import (
	"github.com/vocabforge/vocab-api/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// Base interval in days for each strength level, indexed by strength
	BaseIntervalDays [domain.MaxStrength + 1]float64

	// Multiplier applied per word difficulty; missing levels use DefaultDifficultyMultiplier
	DifficultyMultiplier        map[domain.Difficulty]float64
	DefaultDifficultyMultiplier float64

	// Streak bonus is 1 + StreakBonusPerReview * consecutiveCorrect on a correct answer
	StreakBonusPerReview float64

	// Strength changes per outcome
	CorrectStrengthStep   int
	IncorrectStrengthStep int

	// Jitter bounds, applied multiplicatively to the final interval
	JitterMin float64
	JitterMax float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	EasyMultiplier         float64
	IntermediateMultiplier float64
	HardMultiplier         float64

	StreakBonusPerReview float64

	JitterMin float64
	JitterMax float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		BaseIntervalDays: [domain.MaxStrength + 1]float64{1, 2, 4, 8, 16, 32, 64},

		DifficultyMultiplier: map[domain.Difficulty]float64{
			domain.DifficultyEasy:         1.2,
			domain.DifficultyIntermediate: 1.0,
			domain.DifficultyHard:         0.8,
		},
		DefaultDifficultyMultiplier: 1.0,

		StreakBonusPerReview: 0.1,

		CorrectStrengthStep:   1,
		IncorrectStrengthStep: 2,

		JitterMin: 0.8,
		JitterMax: 1.2,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.EasyMultiplier > 0 {
		params.DifficultyMultiplier[domain.DifficultyEasy] = config.EasyMultiplier
	}
	if config.IntermediateMultiplier > 0 {
		params.DifficultyMultiplier[domain.DifficultyIntermediate] = config.IntermediateMultiplier
	}
	if config.HardMultiplier > 0 {
		params.DifficultyMultiplier[domain.DifficultyHard] = config.HardMultiplier
	}

	if config.StreakBonusPerReview > 0 {
		params.StreakBonusPerReview = config.StreakBonusPerReview
	}

	// Jitter bounds are only taken as a pair so the range stays ordered
	if config.JitterMin > 0 && config.JitterMax >= config.JitterMin {
		params.JitterMin = config.JitterMin
		params.JitterMax = config.JitterMax
	}

	return params
}
