package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/wordpool/internal/corerr"
	"github.com/example/wordpool/internal/curriculum"
	"github.com/example/wordpool/pkg/models"
)

// LearnBatchSize is the max number of new words a Learn session offers
// (spec.md §6 constants).
const LearnBatchSize = 5

// LearnSession is the get_learn_session response.
type LearnSession struct {
	Available bool       `json:"available"`
	Reason    string     `json:"reason,omitempty"`
	Words     []WordView `json:"words,omitempty"`
	Exercises []Exercise `json:"exercises,omitempty"`
}

// WordView is the catalog content bundled alongside an exercise.
type WordView struct {
	WordID      string `json:"word_id"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Sentence    string `json:"sentence,omitempty"`
	SentenceZH  string `json:"sentence_zh,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

func wordView(w models.Word) WordView {
	return WordView{
		WordID:      w.ID,
		Word:        w.Word,
		Translation: w.Translation,
		Sentence:    w.Sentence,
		SentenceZH:  w.SentenceZH,
		ImageURL:    w.ImageURL,
		AudioURL:    w.AudioURL,
	}
}

// GetLearnSession assembles up to LearnBatchSize new words per the
// preconditions and selection rule of spec.md §4.2.
func (a *Assembler) GetLearnSession(ctx context.Context, userID string, now time.Time) (LearnSession, error) {
	ok, reason, err := a.progress.CanLearn(userID, now)
	if err != nil {
		return LearnSession{}, err
	}
	if !ok {
		return LearnSession{Available: false, Reason: reason}, nil
	}

	picked, err := a.selector.NextWords(ctx, userID, LearnBatchSize)
	if err != nil {
		return LearnSession{}, err
	}
	if len(picked) == 0 {
		return LearnSession{Available: false, Reason: corerr.ReasonNoWordsInP0}, nil
	}

	catalogWords, err := a.words.GetAll()
	if err != nil {
		return LearnSession{}, err
	}

	rnd := newRand()
	words := make([]WordView, 0, len(picked))
	exercises := make([]Exercise, 0, len(picked))
	for _, w := range picked {
		words = append(words, wordView(w))
		exercises = append(exercises, buildExercise(rnd, w, "P0", "reading_lv1", catalogWords, picked))
	}

	return LearnSession{Available: true, Words: words, Exercises: exercises}, nil
}

// LearnCompleteResult is the complete_learn response.
type LearnCompleteResult struct {
	WordsMoved   int `json:"words_moved"`
	TodayLearned int `json:"today_learned"`
}

// CompleteLearn moves the given words from P0 into P1, inserting a
// WordProgress row per word inside a single transaction. Idempotent per
// word: a word that already has a progress row is skipped and not
// counted (spec.md §4.2, §5 — one transaction per batch, no per-row
// commits).
func (a *Assembler) CompleteLearn(ctx context.Context, userID string, wordIDs []string, now time.Time) (LearnCompleteResult, error) {
	wordsMoved := 0
	var learnedWords []models.Word

	// Catalog lookups run before the transaction opens: against sqlite the
	// transaction holds the only connection, so a query outside it would
	// block until commit.
	var candidates []models.Word
	for _, wordID := range wordIDs {
		word, err := a.words.GetByID(wordID)
		if errors.Is(err, corerr.ErrUnknownWord) {
			continue
		}
		if err != nil {
			return LearnCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}
		candidates = append(candidates, *word)
	}

	tx, err := a.progress.BeginTx()
	if err != nil {
		return LearnCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	for _, word := range candidates {
		wordID := word.ID
		existing, err := a.progress.GetByUserAndWordTx(tx, userID, wordID)
		if err == nil && existing != nil {
			continue
		}

		p := models.WordProgress{
			UserID:            userID,
			WordID:            wordID,
			Pool:              "P0",
			CorrectCount:      0,
			IncorrectCount:    0,
		}
		p = a.scheduler.CompleteLearn(p, now)
		if err := a.progress.CreateProgressTx(tx, &p); err != nil {
			return LearnCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
		}
		wordsMoved++
		learnedWords = append(learnedWords, word)
	}

	if err := tx.Commit(); err != nil {
		log.Printf("session: complete_learn rollback user=%s words=%d: %v", userID, len(wordIDs), err)
		return LearnCompleteResult{}, fmt.Errorf("%w: %v", corerr.ErrStorageFailure, err)
	}

	if len(learnedWords) > 0 {
		if err := a.advanceCurriculumPointer(userID, learnedWords); err != nil {
			return LearnCompleteResult{}, err
		}
	}

	todayLearned, err := a.progress.CountTodayLearned(userID, now)
	if err != nil {
		return LearnCompleteResult{}, err
	}

	log.Printf("session: complete_learn commit user=%s words_moved=%d today_learned=%d", userID, wordsMoved, todayLearned)
	return LearnCompleteResult{WordsMoved: wordsMoved, TodayLearned: todayLearned}, nil
}

// advanceCurriculumPointer moves a user's (level, category) pointer
// forward to the highest-ranked cell among the words just learned, if
// that rank exceeds the user's current pointer. Bookkeeping only: it
// never feeds the Scheduler (spec.md §4.2 NEW).
func (a *Assembler) advanceCurriculumPointer(userID string, learnedWords []models.Word) error {
	user, err := a.users.GetByID(userID)
	if err != nil {
		return err
	}

	levels, err := a.curriculum.GetLevels()
	if err != nil {
		return err
	}
	categories, err := a.curriculum.GetCategories()
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		return nil
	}

	currentLevelRank, currentCatRank := -1, -1
	if user.CurrentLevelID != nil && user.CurrentCategoryID != nil {
		currentLevelRank, currentCatRank, _ = curriculum.RankOf(levels, categories, models.Word{
			LevelID:    user.CurrentLevelID,
			CategoryID: user.CurrentCategoryID,
		})
	}

	bestLevelID, bestCatID := user.CurrentLevelID, user.CurrentCategoryID
	bestLevelRank, bestCatRank := currentLevelRank, currentCatRank
	advanced := false

	for _, w := range learnedWords {
		levelRank, catRank, ok := curriculum.RankOf(levels, categories, w)
		if !ok {
			continue
		}
		if levelRank > bestLevelRank || (levelRank == bestLevelRank && catRank > bestCatRank) {
			bestLevelRank, bestCatRank = levelRank, catRank
			bestLevelID, bestCatID = w.LevelID, w.CategoryID
			advanced = true
		}
	}

	if !advanced {
		return nil
	}
	return a.users.UpdateCurriculumPointer(userID, bestLevelID, bestCatID)
}
