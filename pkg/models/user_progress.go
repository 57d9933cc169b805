package models

import "time"

// Review sub-states, only meaningful while Pool is one of R1..R5.
const (
	ReviewStageDisplay  = "display"
	ReviewStagePractice = "practice"
)

// WordProgress is the heart of the scheduling model: one row per
// (user, word), holding the word's current pool and the timestamps that
// gate its next activity. A word with no WordProgress row is implicitly
// in pool P0 for that user.
type WordProgress struct {
	ID                int64      `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id"`
	WordID            string     `json:"word_id" db:"word_id"`
	Pool              string     `json:"pool" db:"pool"`
	LearnedAt         *time.Time `json:"learned_at,omitempty" db:"learned_at"`
	NextAvailableTime *time.Time `json:"next_available_time,omitempty" db:"next_available_time"`
	ReviewStage       string     `json:"review_stage,omitempty" db:"review_stage"`
	LastOutcomeAt     *time.Time `json:"last_outcome_at,omitempty" db:"last_outcome_at"`
	CorrectCount      int        `json:"correct_count" db:"correct_count"`
	IncorrectCount    int        `json:"incorrect_count" db:"incorrect_count"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
