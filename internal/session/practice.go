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

// PracticeBatchSize is the spec.md §6 constant governing a Practice
// session. The admission threshold is database.PracticeMinWords, the
// same constant GetHomeStats.CanPractice checks, so the two never drift
// apart.
const PracticeBatchSize = 5

// PracticeSession is the get_practice_session response.
type PracticeSession struct {
	Available     bool       `json:"available"`
	Reason        string     `json:"reason,omitempty"`
	Exercises     []Exercise `json:"exercises,omitempty"`
	ExerciseOrder []string   `json:"exercise_order,omitempty"`
}

// GetPracticeSession assembles up to PracticeBatchSize due P-pool words,
// one exercise per word, typed by the word's current pool.
func (a *Assembler) GetPracticeSession(userID string, now time.Time) (PracticeSession, error) {
	n, err := a.progress.CountAvailablePractice(userID, now)
	if err != nil {
		return PracticeSession{}, err
	}
	if n < database.PracticeMinWords {
		return PracticeSession{Available: false, Reason: corerr.ReasonNotEnoughWords}, nil
	}

	candidates, err := a.progress.GetAvailablePracticeWords(userID, now, PracticeBatchSize)
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

// PracticeAnswer is a single submitted answer.
type PracticeAnswer struct {
	WordID  string `json:"word_id"`
	Correct bool   `json:"correct"`
}

// PracticeResult reports one word's before/after transition.
type PracticeResult struct {
	WordID            string     `json:"word_id"`
	PreviousPool      string     `json:"previous_pool"`
	NewPool           string     `json:"new_pool"`
	NextAvailableTime *time.Time `json:"next_available_time,omitempty"`
}

// PracticeSummary tallies a submission's outcomes.
type PracticeSummary struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// PracticeSubmitResult is the submit_practice response.
type PracticeSubmitResult struct {
	Results []PracticeResult `json:"results"`
	Summary PracticeSummary  `json:"summary"`
}

// SubmitPractice applies the submitted answers transactionally: rows are
// locked in ascending word_id order, re-checked for eligibility at
// transaction-start now, transitioned, and the outcomes logged to
// AnswerHistory, all before a single commit (spec.md §4.3, §5).
func (a *Assembler) SubmitPractice(userID string, answers []PracticeAnswer, now time.Time) (PracticeSubmitResult, error) {
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
		return PracticeSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	rows, err := a.progress.LockRows(tx, userID, wordIDs)
	if err != nil {
		return PracticeSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}

	var results []PracticeResult
	var historyRows []models.AnswerHistory
	summary := PracticeSummary{}

	for _, row := range rows {
		correct, asked := answerByWord[row.WordID]
		if !asked {
			continue
		}
		previousPool := row.Pool

		if !a.scheduler.EligibleForPractice(&row, now) {
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
			return PracticeSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}

		results = append(results, PracticeResult{
			WordID:            row.WordID,
			PreviousPool:      previousPool,
			NewPool:           updated.Pool,
			NextAvailableTime: updated.NextAvailableTime,
		})

		if correct {
			summary.Correct++
		} else {
			summary.Incorrect++
		}

		historyRows = append(historyRows, models.AnswerHistory{
			UserID:       userID,
			WordID:       row.WordID,
			Word:         headwords[row.WordID],
			IsCorrect:    correct,
			ExerciseType: mustExerciseType(previousPool),
			Source:       models.SourcePractice,
			Pool:         previousPool,
		})
	}

	if len(historyRows) > 0 {
		if err := a.answers.CreateBatch(tx, historyRows); err != nil {
			return PracticeSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("session: submit_practice rollback user=%s rows=%d: %v", userID, len(rows), err)
		return PracticeSubmitResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	log.Printf("session: submit_practice commit user=%s rows=%d correct=%d incorrect=%d", userID, len(rows), summary.Correct, summary.Incorrect)

	return PracticeSubmitResult{Results: results, Summary: summary}, nil
}

// headwords maps word IDs to their headwords for AnswerHistory rows. It
// runs before a submission opens its transaction: against sqlite the
// transaction holds the only connection, so a lookup inside it would block.
// A failed lookup leaves the headwords empty.
func (a *Assembler) headwords(wordIDs []string) map[string]string {
	out := make(map[string]string, len(wordIDs))
	if words, err := a.words.GetByIDs(wordIDs); err == nil {
		for _, w := range words {
			out[w.ID] = w.Word
		}
	}
	return out
}

func mustExerciseType(poolName string) string {
	pool, err := spacedrep.ParsePool(poolName)
	if err != nil {
		return ""
	}
	exerciseType, _ := pool.ExerciseType()
	return exerciseType
}
