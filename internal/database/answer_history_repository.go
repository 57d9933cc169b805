package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordpool/pkg/models"
)

// AnswerHistoryRepository handles database operations for the append-only
// answer log backing statistics.
type AnswerHistoryRepository struct{}

// NewAnswerHistoryRepository creates a new repository instance.
func NewAnswerHistoryRepository() *AnswerHistoryRepository {
	return &AnswerHistoryRepository{}
}

// CountTodayCompleted counts practice and review answers submitted on
// the current UTC calendar day (SPEC_FULL.md §4.5 NEW today_completed).
func (r *AnswerHistoryRepository) CountTodayCompleted(userID string, now time.Time) (int, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	query, args, err := sqlxIn(
		"SELECT COUNT(*) FROM answer_history WHERE user_id = ? AND source IN (?) AND created_at >= ?",
		userID, []string{models.SourcePractice, models.SourceReviewDisplay, models.SourceReviewTest}, dayStart,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to build completed-today query: %v", err)
	}
	var n int
	if err := DB.Get(&n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count today completed: %v", err)
	}
	return n, nil
}

// Create inserts a single answer history record, typically inside the
// same transaction as the progress row it documents.
func (r *AnswerHistoryRepository) Create(tx *sqlx.Tx, a *models.AnswerHistory) error {
	query := rebind(`
		INSERT INTO answer_history (user_id, word_id, word, is_correct, exercise_type, source, pool, user_answer, response_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.Exec(
		query,
		a.UserID, a.WordID, a.Word, a.IsCorrect, a.ExerciseType, a.Source, a.Pool, a.UserAnswer, a.ResponseTimeMS,
	)
	if err != nil {
		return fmt.Errorf("failed to create answer history: %v", err)
	}
	return nil
}

// CreateBatch inserts several answer history records in one transaction,
// used by Practice submit, Review complete and Review submit to log a
// batch's outcomes alongside its progress updates.
func (r *AnswerHistoryRepository) CreateBatch(tx *sqlx.Tx, answers []models.AnswerHistory) error {
	for i := range answers {
		if err := r.Create(tx, &answers[i]); err != nil {
			return err
		}
	}
	return nil
}

// PoolDistribution counts a user's answered exercises grouped by the pool
// the word was in when answered. Home's pool_distribution stat is not
// built from this: it counts current progress rows per pool instead.
func (r *AnswerHistoryRepository) PoolDistribution(userID string) (map[string]int, error) {
	var rows []struct {
		Pool  string `db:"pool"`
		Count int    `db:"count"`
	}
	query := rebind("SELECT pool, COUNT(*) as count FROM answer_history WHERE user_id = ? GROUP BY pool")
	if err := DB.Select(&rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get pool distribution: %v", err)
	}
	dist := make(map[string]int, len(rows))
	for _, row := range rows {
		dist[row.Pool] = row.Count
	}
	return dist, nil
}
