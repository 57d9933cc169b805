package database

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordpool/internal/corerr"
	"github.com/example/wordpool/pkg/models"
)

// Admission thresholds from spec.md §4.
const (
	DailyLearnLimit  = 50
	P1UpcomingLimit  = 10
	PracticeMinWords = 3
	ReviewMinWords   = 3
)

// ProgressRepository handles database operations for per-user word
// progress: the pool ladder state every Learn/Practice/Review call reads
// and advances.
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance.
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// GetByUserAndWord returns progress for a specific user and word.
func (r *ProgressRepository) GetByUserAndWord(userID, wordID string) (*models.WordProgress, error) {
	var p models.WordProgress
	query := rebind("SELECT * FROM word_progress WHERE user_id = ? AND word_id = ?")
	if err := DB.Get(&p, query, userID, wordID); err != nil {
		return nil, fmt.Errorf("failed to get word progress: %v", err)
	}
	return &p, nil
}

// GetUserProgress returns every progress row for a user.
func (r *ProgressRepository) GetUserProgress(userID string) ([]models.WordProgress, error) {
	var rows []models.WordProgress
	query := rebind("SELECT * FROM word_progress WHERE user_id = ?")
	if err := DB.Select(&rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user progress: %v", err)
	}
	return rows, nil
}

// CountWordsInPool counts a user's rows sitting in one named pool
// ("P0".."P6", "R1".."R5").
func (r *ProgressRepository) CountWordsInPool(userID, pool string) (int, error) {
	var n int
	query := rebind("SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND pool = ?")
	if err := DB.Get(&n, query, userID, pool); err != nil {
		return 0, fmt.Errorf("failed to count pool: %v", err)
	}
	return n, nil
}

// CountWordsInCatalogNotStarted counts catalog words with no progress row
// yet for this user: the synthesized P0 population (Learn intake draws
// from the catalog directly, not from a materialized P0 row per word).
func (r *ProgressRepository) CountWordsInCatalogNotStarted(userID string) (int, error) {
	var n int
	query := rebind(`
		SELECT COUNT(*) FROM words w
		WHERE NOT EXISTS (
			SELECT 1 FROM word_progress wp WHERE wp.user_id = ? AND wp.word_id = w.id
		)
	`)
	if err := DB.Get(&n, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unstarted words: %v", err)
	}
	return n, nil
}

// GetUnstartedAny returns up to limit catalog words with no progress row
// yet for this user, ordered by headword. Backs the plain-order curriculum
// fallback.
func (r *ProgressRepository) GetUnstartedAny(userID string, limit int) ([]models.Word, error) {
	var words []models.Word
	query := rebind(`
		SELECT w.* FROM words w
		WHERE NOT EXISTS (
			SELECT 1 FROM word_progress wp WHERE wp.user_id = ? AND wp.word_id = w.id
		)
		ORDER BY w.word
		LIMIT ?
	`)
	if err := DB.Select(&words, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get unstarted words: %v", err)
	}
	return words, nil
}

// GetUnstartedByLevelCategory returns up to limit catalog words in one
// grid cell with no progress row yet for this user, in catalog order.
// Backs the level/category curriculum walker.
func (r *ProgressRepository) GetUnstartedByLevelCategory(userID string, levelID, categoryID int64, limit int) ([]models.Word, error) {
	var words []models.Word
	query := rebind(`
		SELECT w.* FROM words w
		WHERE w.level_id = ? AND w.category_id = ?
		AND NOT EXISTS (
			SELECT 1 FROM word_progress wp WHERE wp.user_id = ? AND wp.word_id = w.id
		)
		ORDER BY w.word
		LIMIT ?
	`)
	if err := DB.Select(&words, query, levelID, categoryID, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get unstarted words by level/category: %v", err)
	}
	return words, nil
}

// CountTodayLearned counts words whose learned_at falls on the current
// UTC calendar day.
func (r *ProgressRepository) CountTodayLearned(userID string, now time.Time) (int, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	var n int
	query := rebind("SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND learned_at >= ?")
	if err := DB.Get(&n, query, userID, dayStart); err != nil {
		return 0, fmt.Errorf("failed to count today's learned words: %v", err)
	}
	return n, nil
}

var practicePools = []string{"P1", "P2", "P3", "P4", "P5"}

// GetAvailablePracticeWords returns P1-P5 rows whose next_available_time
// has passed, ordered oldest-due-first, capped at limit.
func (r *ProgressRepository) GetAvailablePracticeWords(userID string, now time.Time, limit int) ([]models.WordProgress, error) {
	var rows []models.WordProgress
	query, args, err := sqlxIn(
		"SELECT * FROM word_progress WHERE user_id = ? AND pool IN (?) AND next_available_time <= ? ORDER BY next_available_time LIMIT ?",
		userID, practicePools, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build practice query: %v", err)
	}
	if err := DB.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get available practice words: %v", err)
	}
	return rows, nil
}

// CountAvailablePractice counts P1-P5 rows currently due.
func (r *ProgressRepository) CountAvailablePractice(userID string, now time.Time) (int, error) {
	var n int
	query, args, err := sqlxIn(
		"SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND pool IN (?) AND next_available_time <= ?",
		userID, practicePools, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to build practice count query: %v", err)
	}
	if err := DB.Get(&n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count available practice: %v", err)
	}
	return n, nil
}

var reviewPools = []string{"R1", "R2", "R3", "R4", "R5"}

// GetAvailableReviewDisplayWords returns R-pool rows in the display phase
// whose next_available_time has passed.
func (r *ProgressRepository) GetAvailableReviewDisplayWords(userID string, now time.Time, limit int) ([]models.WordProgress, error) {
	var rows []models.WordProgress
	query, args, err := sqlxIn(
		"SELECT * FROM word_progress WHERE user_id = ? AND pool IN (?) AND review_stage = ? AND next_available_time <= ? ORDER BY next_available_time LIMIT ?",
		userID, reviewPools, models.ReviewStageDisplay, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build review display query: %v", err)
	}
	if err := DB.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get review display words: %v", err)
	}
	return rows, nil
}

// CountAvailableReview counts R-pool rows currently due in the display
// phase, the population that gates a Review session per spec.md §4.4.
func (r *ProgressRepository) CountAvailableReview(userID string, now time.Time) (int, error) {
	var n int
	query, args, err := sqlxIn(
		"SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND pool IN (?) AND review_stage = ? AND next_available_time <= ?",
		userID, reviewPools, models.ReviewStageDisplay, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to build review count query: %v", err)
	}
	if err := DB.Get(&n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count available review: %v", err)
	}
	return n, nil
}

// CountReviewTest counts R-pool rows in the practice (test) phase whose
// next_available_time has passed.
func (r *ProgressRepository) CountReviewTest(userID string, now time.Time) (int, error) {
	var n int
	query, args, err := sqlxIn(
		"SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND pool IN (?) AND review_stage = ? AND next_available_time <= ?",
		userID, reviewPools, models.ReviewStagePractice, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to build review test count query: %v", err)
	}
	if err := DB.Get(&n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count review test: %v", err)
	}
	return n, nil
}

// GetReviewTestWords returns R-pool rows in the practice (test) phase
// whose next_available_time has passed.
func (r *ProgressRepository) GetReviewTestWords(userID string, now time.Time, limit int) ([]models.WordProgress, error) {
	var rows []models.WordProgress
	query, args, err := sqlxIn(
		"SELECT * FROM word_progress WHERE user_id = ? AND pool IN (?) AND review_stage = ? AND next_available_time <= ? ORDER BY next_available_time LIMIT ?",
		userID, reviewPools, models.ReviewStagePractice, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build review test query: %v", err)
	}
	if err := DB.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get review test words: %v", err)
	}
	return rows, nil
}

// CountUpcoming24h counts rows that will become available within the
// next 24 hours.
func (r *ProgressRepository) CountUpcoming24h(userID string, now time.Time) (int, error) {
	var n int
	future := now.Add(24 * time.Hour)
	query := rebind("SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND next_available_time > ? AND next_available_time <= ?")
	if err := DB.Get(&n, query, userID, now, future); err != nil {
		return 0, fmt.Errorf("failed to count upcoming words: %v", err)
	}
	return n, nil
}

// CountP1Upcoming counts P1 rows that will become available within the
// next 10 minutes but aren't yet (spec.md §4 upcoming = next_available_time
// strictly after now), the backpressure check that blocks Learn
// (spec.md §4.2).
func (r *ProgressRepository) CountP1Upcoming(userID string, now time.Time) (int, error) {
	var n int
	future := now.Add(10 * time.Minute)
	query := rebind("SELECT COUNT(*) FROM word_progress WHERE user_id = ? AND pool = 'P1' AND next_available_time > ? AND next_available_time <= ?")
	if err := DB.Get(&n, query, userID, now, future); err != nil {
		return 0, fmt.Errorf("failed to count p1 upcoming: %v", err)
	}
	return n, nil
}

// GetNextAvailableTime returns the earliest future next_available_time
// across a user's rows, or nil if none is pending.
func (r *ProgressRepository) GetNextAvailableTime(userID string, now time.Time) (*time.Time, error) {
	var t sql.NullTime
	query := rebind("SELECT MIN(next_available_time) FROM word_progress WHERE user_id = ? AND next_available_time > ?")
	if err := DB.Get(&t, query, userID, now); err != nil {
		return nil, fmt.Errorf("failed to get next available time: %v", err)
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// CreateProgress inserts a new progress row with the fields of p, outside
// any transaction. complete_learn uses CreateProgressTx instead.
func (r *ProgressRepository) CreateProgress(p *models.WordProgress) error {
	query := rebind(`
		INSERT INTO word_progress (user_id, word_id, pool, learned_at, next_available_time, review_stage, last_outcome_at, correct_count, incorrect_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	result, err := DB.Exec(
		query,
		p.UserID, p.WordID, p.Pool, p.LearnedAt, p.NextAvailableTime, p.ReviewStage, p.LastOutcomeAt, p.CorrectCount, p.IncorrectCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress: %v", err)
	}
	if id, err := result.LastInsertId(); err == nil && id > 0 {
		p.ID = id
	}
	return nil
}

// GetByUserAndWordTx is GetByUserAndWord scoped to an open transaction, so
// a batch caller can check for an existing row without leaving the
// transaction that will also write the batch's new rows.
func (r *ProgressRepository) GetByUserAndWordTx(tx *sqlx.Tx, userID, wordID string) (*models.WordProgress, error) {
	var p models.WordProgress
	query := rebind("SELECT * FROM word_progress WHERE user_id = ? AND word_id = ?")
	if err := tx.Get(&p, query, userID, wordID); err != nil {
		return nil, fmt.Errorf("failed to get word progress: %v", err)
	}
	return &p, nil
}

// CreateProgressTx is CreateProgress scoped to an open transaction, used
// by complete_learn so a whole batch of new P0->P1 rows commits together.
func (r *ProgressRepository) CreateProgressTx(tx *sqlx.Tx, p *models.WordProgress) error {
	query := rebind(`
		INSERT INTO word_progress (user_id, word_id, pool, learned_at, next_available_time, review_stage, last_outcome_at, correct_count, incorrect_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	result, err := tx.Exec(
		query,
		p.UserID, p.WordID, p.Pool, p.LearnedAt, p.NextAvailableTime, p.ReviewStage, p.LastOutcomeAt, p.CorrectCount, p.IncorrectCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress: %v", err)
	}
	if id, err := result.LastInsertId(); err == nil && id > 0 {
		p.ID = id
	}
	return nil
}

// UpdateProgress persists the mutable fields of a progress row inside an
// open transaction. Callers hold the row lock for the duration of tx.
func (r *ProgressRepository) UpdateProgress(tx *sqlx.Tx, p models.WordProgress) error {
	query := rebind(`
		UPDATE word_progress SET
			pool = ?, learned_at = ?, next_available_time = ?, review_stage = ?,
			last_outcome_at = ?, correct_count = ?, incorrect_count = ?
		WHERE id = ?
	`)
	_, err := tx.Exec(
		query,
		p.Pool, p.LearnedAt, p.NextAvailableTime, p.ReviewStage, p.LastOutcomeAt, p.CorrectCount, p.IncorrectCount,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %v", err)
	}
	return nil
}

// ResetUserProgress deletes every progress row for a user, returning
// every word to the synthesized P0 population.
func (r *ProgressRepository) ResetUserProgress(userID string) (int64, error) {
	query := rebind("DELETE FROM word_progress WHERE user_id = ?")
	result, err := DB.Exec(query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset progress: %v", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// PoolEntry is one row of a pool summary: a word plus its scheduling
// state, shaped for display rather than further computation.
type PoolEntry struct {
	WordID            string     `json:"word_id"`
	Word              string     `json:"word"`
	Translation       string     `json:"translation"`
	NextAvailableTime *time.Time `json:"next_available_time,omitempty"`
}

// GetPoolSummary groups every word into its current pool, synthesizing
// the P0 bucket from catalog words that have no progress row yet.
func (r *ProgressRepository) GetPoolSummary(userID string) (map[string][]PoolEntry, error) {
	summary := map[string][]PoolEntry{
		"P0": {}, "P1": {}, "P2": {}, "P3": {}, "P4": {}, "P5": {}, "P6": {},
		"R1": {}, "R2": {}, "R3": {}, "R4": {}, "R5": {},
	}

	var rows []struct {
		Pool              string     `db:"pool"`
		WordID            string     `db:"word_id"`
		Word              string     `db:"word"`
		Translation       string     `db:"translation"`
		NextAvailableTime *time.Time `db:"next_available_time"`
	}
	query := rebind(`
		SELECT wp.pool, wp.word_id, w.word, w.translation, wp.next_available_time
		FROM word_progress wp JOIN words w ON w.id = wp.word_id
		WHERE wp.user_id = ?
	`)
	if err := DB.Select(&rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get pool summary: %v", err)
	}
	for _, row := range rows {
		summary[row.Pool] = append(summary[row.Pool], PoolEntry{
			WordID:            row.WordID,
			Word:              row.Word,
			Translation:       row.Translation,
			NextAvailableTime: row.NextAvailableTime,
		})
	}

	var unstarted []struct {
		ID          string `db:"id"`
		Word        string `db:"word"`
		Translation string `db:"translation"`
	}
	unstartedQuery := rebind(`
		SELECT w.id, w.word, w.translation FROM words w
		WHERE NOT EXISTS (SELECT 1 FROM word_progress wp WHERE wp.user_id = ? AND wp.word_id = w.id)
	`)
	if err := DB.Select(&unstarted, unstartedQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to get unstarted words: %v", err)
	}
	for _, w := range unstarted {
		summary["P0"] = append(summary["P0"], PoolEntry{WordID: w.ID, Word: w.Word, Translation: w.Translation})
	}

	return summary, nil
}

// CanLearn applies the Learn admission rules (spec.md §4.2).
func (r *ProgressRepository) CanLearn(userID string, now time.Time) (bool, string, error) {
	todayLearned, err := r.CountTodayLearned(userID, now)
	if err != nil {
		return false, "", err
	}
	if todayLearned >= DailyLearnLimit {
		return false, corerr.ReasonDailyLimitReached, nil
	}

	p1Upcoming, err := r.CountP1Upcoming(userID, now)
	if err != nil {
		return false, "", err
	}
	if p1Upcoming >= P1UpcomingLimit {
		return false, corerr.ReasonP1PoolFull, nil
	}

	p0Count, err := r.CountWordsInCatalogNotStarted(userID)
	if err != nil {
		return false, "", err
	}
	if p0Count == 0 {
		return false, corerr.ReasonNoWordsInP0, nil
	}

	return true, "", nil
}

// CanPractice applies the Practice admission rule: at least
// PracticeMinWords P1-P5 candidates due.
func (r *ProgressRepository) CanPractice(userID string, now time.Time) (bool, string, error) {
	n, err := r.CountAvailablePractice(userID, now)
	if err != nil {
		return false, "", err
	}
	if n < PracticeMinWords {
		return false, corerr.ReasonNotEnoughWords, nil
	}
	return true, "", nil
}

// CanReview applies the Review admission rule: at least ReviewMinWords
// R-pool display candidates due.
func (r *ProgressRepository) CanReview(userID string, now time.Time) (bool, string, error) {
	n, err := r.CountAvailableReview(userID, now)
	if err != nil {
		return false, "", err
	}
	if n < ReviewMinWords {
		return false, corerr.ReasonNotEnoughWords, nil
	}
	return true, "", nil
}

// BeginTx starts a transaction for a Practice/Review submission.
func (r *ProgressRepository) BeginTx() (*sqlx.Tx, error) {
	return DB.Beginx()
}

// LockRows locks the named progress rows in ascending word_id order
// inside tx, returning them in that order. On postgres this takes row
// locks with SELECT ... FOR UPDATE; sqlite serializes through the
// single shared connection instead (see internal/database/connection.go).
func (r *ProgressRepository) LockRows(tx *sqlx.Tx, userID string, wordIDs []string) ([]models.WordProgress, error) {
	sort.Strings(wordIDs)

	query := "SELECT * FROM word_progress WHERE user_id = ? AND word_id IN (?) ORDER BY word_id"
	if DB.DriverName() == "postgres" {
		query += " FOR UPDATE"
	}
	query, args, err := sqlx.In(query, userID, wordIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build lock query: %v", err)
	}
	query = rebind(query)

	var rows []models.WordProgress
	if err := tx.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to lock progress rows: %v", err)
	}
	return rows, nil
}
