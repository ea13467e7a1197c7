package domain

import "strings"

// QuizType identifies the kind of exercise a review was answered in.
type QuizType string

// Known quiz types.
const (
	QuizTypeMultipleChoice QuizType = "mcq"
	QuizTypeFillBlank      QuizType = "fill_blank"
	QuizTypeMatching       QuizType = "matching"
	QuizTypeDefToWord      QuizType = "def_to_word"
	QuizTypeWordToDef      QuizType = "word_to_def"
)

// QuizTypes lists every accepted quiz type in display order.
var QuizTypes = []QuizType{
	QuizTypeMultipleChoice,
	QuizTypeFillBlank,
	QuizTypeMatching,
	QuizTypeDefToWord,
	QuizTypeWordToDef,
}

// IsValid reports whether q is one of the known quiz types.
func (q QuizType) IsValid() bool {
	for _, known := range QuizTypes {
		if q == known {
			return true
		}
	}
	return false
}

// ParseQuizType converts a raw string into a QuizType.
// Surrounding whitespace and case are ignored.
func ParseQuizType(raw string) (QuizType, error) {
	q := QuizType(strings.ToLower(strings.TrimSpace(raw)))
	if !q.IsValid() {
		return "", ErrInvalidQuizType
	}
	return q, nil
}
