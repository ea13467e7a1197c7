package domain

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty is the difficulty level a user assigned to a word.
type Difficulty string

// Known difficulty levels.
const (
	DifficultyEasy         Difficulty = "easy"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyHard         Difficulty = "hard"
)

// IsValid reports whether d is a known difficulty level.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyIntermediate, DifficultyHard:
		return true
	}
	return false
}

// Definition is a single dictionary sense of a word.
type Definition struct {
	PartOfSpeech string   `json:"part_of_speech"`
	Definition   string   `json:"definition"`
	Example      string   `json:"example,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Antonyms     []string `json:"antonyms,omitempty"`
}

// Phonetic is a pronunciation entry.
type Phonetic struct {
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"`
}

// Word is a vocabulary entry owned by a single user.
type Word struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Text        string       `json:"word"`
	Definitions []Definition `json:"definitions"`
	Phonetics   []Phonetic   `json:"phonetics"`
	Synonyms    []string     `json:"synonyms"`
	Antonyms    []string     `json:"antonyms"`
	UserNotes   *string      `json:"user_notes,omitempty"`
	Difficulty  *Difficulty  `json:"difficulty_level,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// WordSummary is the subset of a Word shown next to a due review.
type WordSummary struct {
	ID          uuid.UUID    `json:"id"`
	Text        string       `json:"word"`
	Definitions []Definition `json:"definitions"`
	Phonetics   []Phonetic   `json:"phonetics"`
	Synonyms    []string     `json:"synonyms"`
	Antonyms    []string     `json:"antonyms"`
	UserNotes   *string      `json:"user_notes,omitempty"`
}

// Summary returns the display summary of the word.
func (w *Word) Summary() WordSummary {
	return WordSummary{
		ID:          w.ID,
		Text:        w.Text,
		Definitions: w.Definitions,
		Phonetics:   w.Phonetics,
		Synonyms:    w.Synonyms,
		Antonyms:    w.Antonyms,
		UserNotes:   w.UserNotes,
	}
}
