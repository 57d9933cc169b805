package models

import "time"

// Answer sources recorded on AnswerHistory rows.
const (
	SourcePractice     = "practice"
	SourceReviewDisplay = "review_display"
	SourceReviewTest    = "review_test"
)

// AnswerHistory is an append-only audit record of a single submitted
// answer. It is never read by the Scheduler or by admission rules; it
// backs statistics only (SPEC_FULL.md §4.3 NEW / §4.5 NEW).
type AnswerHistory struct {
	ID              int64     `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	WordID          string    `json:"word_id" db:"word_id"`
	Word            string    `json:"word" db:"word"`
	IsCorrect       bool      `json:"is_correct" db:"is_correct"`
	ExerciseType    string    `json:"exercise_type" db:"exercise_type"`
	Source          string    `json:"source" db:"source"`
	Pool            string    `json:"pool" db:"pool"`
	UserAnswer      string    `json:"user_answer,omitempty" db:"user_answer"`
	ResponseTimeMS  int       `json:"response_time_ms,omitempty" db:"response_time_ms"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
