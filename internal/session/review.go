package session

import (
	"fmt"
	"log"
	"time"

	"github.com/example/wordpool/internal/corerr"
	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/internal/spacedrep"
	"github.com/example/wordpool/pkg/models"
)

// ReviewBatchSize is the spec.md §6 constant governing a Review session.
// The admission threshold is database.ReviewMinWords, the same constant
// GetHomeStats.CanReview checks, so the two never drift apart.
const ReviewBatchSize = 5

// ReviewSession is the get_review_session response.
type ReviewSession struct {
	Available bool       `json:"available"`
	Reason    string     `json:"reason,omitempty"`
	Words     []WordView `json:"words,omitempty"`
	Exercises []Exercise `json:"exercises,omitempty"`
}

// GetReviewSession assembles up to ReviewBatchSize R-pool words due for
// re-exposure, bundling full word content plus a preview of the
// practice-phase exercise each word will surface (the matching P-level
// exercise type, per spec.md §4.4 NEW).
func (a *Assembler) GetReviewSession(userID string, now time.Time) (ReviewSession, error) {
	n, err := a.progress.CountAvailableReview(userID, now)
	if err != nil {
		return ReviewSession{}, err
	}
	if n < database.ReviewMinWords {
		return ReviewSession{Available: false, Reason: corerr.ReasonNotEnoughWords}, nil
	}

	candidates, err := a.progress.GetAvailableReviewDisplayWords(userID, now, ReviewBatchSize)
	if err != nil {
		return ReviewSession{}, err
	}

	wordIDs := make([]string, len(candidates))
	for i, c := range candidates {
		wordIDs[i] = c.WordID
	}
	words, err := a.words.GetByIDs(wordIDs)
	if err != nil {
		return ReviewSession{}, err
	}
	wordByID := make(map[string]models.Word, len(words))
	for _, w := range words {
		wordByID[w.ID] = w
	}

	catalogWords, err := a.words.GetAll()
	if err != nil {
		return ReviewSession{}, err
	}

	rnd := newRand()
	views := make([]WordView, 0, len(candidates))
	exercises := make([]Exercise, 0, len(candidates))
	for _, c := range candidates {
		word, ok := wordByID[c.WordID]
		if !ok {
			continue
		}
		pool, err := spacedrep.ParsePool(c.Pool)
		if err != nil {
			continue
		}
		previewType, ok := pool.ExerciseType()
		if !ok {
			continue
		}
		views = append(views, wordView(word))
		exercises = append(exercises, buildExercise(rnd, word, c.Pool, previewType, catalogWords, words))
	}

	return ReviewSession{Available: true, Words: views, Exercises: exercises}, nil
}

// GetReviewTestSession assembles up to ReviewBatchSize R-pool words that
// have cleared the 20h display-to-practice wait and are ready for the
// graded test phase, one exercise per word typed by the word's pool
// (spec.md §4.4).
func (a *Assembler) GetReviewTestSession(userID string, now time.Time) (PracticeSession, error) {
	n, err := a.progress.CountReviewTest(userID, now)
	if err != nil {
		return PracticeSession{}, err
	}
	if n < database.ReviewMinWords {
		return PracticeSession{Available: false, Reason: corerr.ReasonNotEnoughWords}, nil
	}

	candidates, err := a.progress.GetReviewTestWords(userID, now, ReviewBatchSize)
	if err != nil {
		return PracticeSession{}, err
	}

	wordIDs := make([]string, len(candidates))
	for i, c := range candidates {
		wordIDs[i] = c.WordID
	}
	words, err := a.words.GetByIDs(wordIDs)
	if err != nil {
		return PracticeSession{}, err
	}
	wordByID := make(map[string]models.Word, len(words))
	for _, w := range words {
		wordByID[w.ID] = w
	}

	catalogWords, err := a.words.GetAll()
	if err != nil {
		return PracticeSession{}, err
	}

	rnd := newRand()
	exercises := make([]Exercise, 0, len(candidates))
	for _, c := range candidates {
		word, ok := wordByID[c.WordID]
		if !ok {
			continue
		}
		pool, err := spacedrep.ParsePool(c.Pool)
		if err != nil {
			continue
		}
		exerciseType, ok := pool.ExerciseType()
		if !ok {
			continue
		}
		exercises = append(exercises, buildExercise(rnd, word, c.Pool, exerciseType, catalogWords, words))
	}

	return PracticeSession{
		Available:     true,
		Exercises:     exercises,
		ExerciseOrder: exerciseOrder(exercises),
	}, nil
}

// ReviewCompleteResult is the complete_review response.
type ReviewCompleteResult struct {
	WordsCompleted   int        `json:"words_completed"`
	NextPracticeTime *time.Time `json:"next_practice_time,omitempty"`
}

// CompleteReview moves the listed R-pool words from display to practice
// phase, one transaction for the whole batch (spec.md §4.4, §5). Idempotent
// per word: a row already in practice phase is a no-op and not counted.
// Each completed row is also logged to AnswerHistory as a
// SourceReviewDisplay event, so today_completed (SPEC_FULL.md §4.5) counts
// review-display completions alongside practice and review-test answers.
func (a *Assembler) CompleteReview(userID string, wordIDs []string, now time.Time) (ReviewCompleteResult, error) {
	wordsCompleted := 0
	var nextPracticeTime *time.Time
	headwords := a.headwords(wordIDs)

	tx, err := a.progress.BeginTx()
	if err != nil {
		return ReviewCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	rows, err := a.progress.LockRows(tx, userID, wordIDs)
	if err != nil {
		return ReviewCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}

	var historyRows []models.AnswerHistory
	for _, row := range rows {
		if row.ReviewStage != models.ReviewStageDisplay {
			continue
		}

		previousPool := row.Pool
		updated := a.scheduler.CompleteReviewDisplay(row, now)
		if err := a.progress.UpdateProgress(tx, updated); err != nil {
			return ReviewCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}

		wordsCompleted++
		nextPracticeTime = updated.NextAvailableTime

		historyRows = append(historyRows, models.AnswerHistory{
			UserID:       userID,
			WordID:       row.WordID,
			Word:         headwords[row.WordID],
			IsCorrect:    true,
			ExerciseType: mustExerciseType(previousPool),
			Source:       models.SourceReviewDisplay,
			Pool:         previousPool,
		})
	}

	if len(historyRows) > 0 {
		if err := a.answers.CreateBatch(tx, historyRows); err != nil {
			return ReviewCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("session: complete_review rollback user=%s words=%d: %v", userID, len(wordIDs), err)
		return ReviewCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	log.Printf("session: complete_review commit user=%s words_completed=%d", userID, wordsCompleted)

	return ReviewCompleteResult{WordsCompleted: wordsCompleted, NextPracticeTime: nextPracticeTime}, nil
}

// ReviewSummary tallies a review submission, distinguishing how many
// rows graduated back to the P ladder.
type ReviewSummary struct {
	Correct      int `json:"correct"`
	Incorrect    int `json:"incorrect"`
	ReturnedToP  int `json:"returned_to_p"`
}

// ReviewSubmitResult is the submit_review response.
type ReviewSubmitResult struct {
	Results []PracticeResult `json:"results"`
	Summary ReviewSummary    `json:"summary"`
}

// SubmitReview is analogous to SubmitPractice but transitions follow the
// R-row test-phase rules in internal/spacedrep (spec.md §4.4).
func (a *Assembler) SubmitReview(userID string, answers []PracticeAnswer, now time.Time) (ReviewSubmitResult, error) {
	wordIDs := make([]string, len(answers))
	for i, ans := range answers {
		wordIDs[i] = ans.WordID
	}
	answerByWord := make(map[string]bool, len(answers))
	for _, ans := range answers {
		answerByWord[ans.WordID] = ans.Correct
	}
	headwords := a.headwords(wordIDs)

	tx, err := a.progress.BeginTx()
	if err != nil {
		return ReviewSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	rows, err := a.progress.LockRows(tx, userID, wordIDs)
	if err != nil {
		return ReviewSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}

	var results []PracticeResult
	var historyRows []models.AnswerHistory
	summary := ReviewSummary{}

	for _, row := range rows {
		correct, asked := answerByWord[row.WordID]
		if !asked {
			continue
		}
		previousPool := row.Pool

		if !a.scheduler.EligibleForReviewTest(&row, now) {
			results = append(results, PracticeResult{
				WordID:            row.WordID,
				PreviousPool:      previousPool,
				NewPool:           previousPool,
				NextAvailableTime: row.NextAvailableTime,
			})
			continue
		}

		updated, err := a.scheduler.Transition(row, correct, now)
		if err != nil {
			continue
		}
		if err := a.progress.UpdateProgress(tx, updated); err != nil {
			return ReviewSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}

		results = append(results, PracticeResult{
			WordID:            row.WordID,
			PreviousPool:      previousPool,
			NewPool:           updated.Pool,
			NextAvailableTime: updated.NextAvailableTime,
		})

		if correct {
			summary.Correct++
			if updated.Pool[0] == 'P' {
				summary.ReturnedToP++
			}
		} else {
			summary.Incorrect++
		}

		historyRows = append(historyRows, models.AnswerHistory{
			UserID:       userID,
			WordID:       row.WordID,
			Word:         headwords[row.WordID],
			IsCorrect:    correct,
			ExerciseType: mustExerciseType(previousPool),
			Source:       models.SourceReviewTest,
			Pool:         previousPool,
		})
	}

	if len(historyRows) > 0 {
		if err := a.answers.CreateBatch(tx, historyRows); err != nil {
			return ReviewSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("session: submit_review rollback user=%s rows=%d: %v", userID, len(rows), err)
		return ReviewSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	log.Printf("session: submit_review commit user=%s rows=%d correct=%d incorrect=%d returned_to_p=%d",
		userID, len(rows), summary.Correct, summary.Incorrect, summary.ReturnedToP)

	return ReviewSubmitResult{Results: results, Summary: summary}, nil
}
