package core

import (
	"fmt"
	"math"
	"time"
)

// ActivityType enumerates the point-worthy activities. The set is closed:
// unrecognized tags are rejected rather than silently falling back to a
// default score.
type ActivityType string

const (
	ActivityAIVocabGeneration ActivityType = "ai_vocab_generation"
	ActivityAIPronunciation   ActivityType = "ai_pronunciation"
	ActivityFlashcardReview   ActivityType = "flashcard_review"
	ActivitySpacedRepetition  ActivityType = "spaced_repetition"
	ActivityChatTurn          ActivityType = "chat_turn"
)

// ActivityTypes lists every recognized activity tag.
var ActivityTypes = []ActivityType{
	ActivityAIVocabGeneration,
	ActivityAIPronunciation,
	ActivityFlashcardReview,
	ActivitySpacedRepetition,
	ActivityChatTurn,
}

// Valid reports whether the tag is one of the recognized activity types.
func (t ActivityType) Valid() bool {
	for _, k := range ActivityTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Difficulty grades a flashcard batch.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ActivityEvent describes one completed activity. It is transient: it exists
// only for the duration of a single award computation and is never persisted.
type ActivityEvent struct {
	Type       ActivityType `json:"activity_type"`
	Level      CEFRLevel    `json:"level,omitempty"`
	Quantity   int          `json:"quantity"`
	OccurredAt time.Time    `json:"occurred_at,omitempty"`

	// Type-specific metadata. Absent fields simply contribute no bonus.
	Difficulty      Difficulty `json:"difficulty,omitempty"`
	MasteryAchieved bool       `json:"mastery_achieved,omitempty"`
	RetentionRate   float64    `json:"retention_rate,omitempty"`
	SessionMinutes  int        `json:"session_minutes,omitempty"`
}

// Validate checks the event against the closed activity set and rejects
// malformed metadata. A non-CEFR level string and negative quantities are
// caller errors; a missing level is not (the policy falls back to the
// type's lowest tier).
func (e ActivityEvent) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidActivityType, e.Type)
	}
	if e.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0, got %d", ErrInvalidMetadata, e.Quantity)
	}
	if e.Level != "" && !e.Level.Known() {
		return fmt.Errorf("%w: unknown CEFR level %q", ErrInvalidMetadata, e.Level)
	}
	switch e.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidMetadata, e.Difficulty)
	}
	if math.IsNaN(e.RetentionRate) || e.RetentionRate < 0 || e.RetentionRate > 1 {
		return fmt.Errorf("%w: retention_rate must be within [0,1]", ErrInvalidMetadata)
	}
	if e.SessionMinutes < 0 {
		return fmt.Errorf("%w: session_minutes must be >= 0", ErrInvalidMetadata)
	}
	return nil
}
