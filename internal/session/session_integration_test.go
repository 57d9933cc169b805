package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/pkg/models"
	"github.com/google/uuid"
)

// withTestAssembler points database.Connect at a throwaway sqlite file in
// the test's own temp directory (Connect always writes to ./data relative
// to the working directory) and returns an Assembler wired to it.
func withTestAssembler(t *testing.T) (*Assembler, *models.User) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("failed to chdir into temp dir: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("failed to close test db: %v", err)
		}
		os.Chdir(wd)
	})

	os.Setenv("DB_TYPE", "sqlite")
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to connect test db: %v", err)
	}

	words := database.NewWordRepository()
	progress := database.NewProgressRepository()
	answers := database.NewAnswerHistoryRepository()
	curriculum := database.NewCurriculumRepository()
	users := database.NewUserRepository()

	assembler, err := New(words, progress, answers, curriculum, users)
	if err != nil {
		t.Fatalf("failed to build assembler: %v", err)
	}

	user := &models.User{ID: uuid.NewString(), TelegramID: 1, NotificationEnabled: true, NotificationHour: 9}
	if err := users.Create(user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return assembler, user
}

func seedCatalog(t *testing.T, words *database.WordRepository, n int) []models.Word {
	t.Helper()
	out := make([]models.Word, n)
	for i := 0; i < n; i++ {
		w := models.Word{ID: uuid.NewString(), Word: uuid.NewString(), Translation: "tr"}
		if err := words.Create(&w); err != nil {
			t.Fatalf("failed to seed word: %v", err)
		}
		out[i] = w
	}
	return out
}

func TestGetLearnSession_ReturnsNewWordsWhenCatalogHasSpace(t *testing.T) {
	a, user := withTestAssembler(t)
	seedCatalog(t, database.NewWordRepository(), 3)

	now := time.Now().UTC()
	sess, err := a.GetLearnSession(context.Background(), user.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.Available {
		t.Fatalf("expected a learn session to be available, reason=%s", sess.Reason)
	}
	if len(sess.Words) != 3 {
		t.Fatalf("len(sess.Words) = %d, want 3", len(sess.Words))
	}
}

func TestGetLearnSession_UnavailableOnEmptyCatalog(t *testing.T) {
	a, user := withTestAssembler(t)

	sess, err := a.GetLearnSession(context.Background(), user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Available {
		t.Fatalf("expected no learn session with an empty catalog")
	}
	if sess.Reason != "no_words_in_p0" {
		t.Fatalf("Reason = %q, want no_words_in_p0", sess.Reason)
	}
}

func TestCompleteLearn_MovesWordsToP1AndIsIdempotent(t *testing.T) {
	a, user := withTestAssembler(t)
	words := seedCatalog(t, database.NewWordRepository(), 2)
	wordIDs := []string{words[0].ID, words[1].ID}

	now := time.Now().UTC()
	result, err := a.CompleteLearn(context.Background(), user.ID, wordIDs, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.WordsMoved != 2 {
		t.Fatalf("WordsMoved = %d, want 2", result.WordsMoved)
	}

	// Re-running with the same words should be a no-op: already-progressed
	// words are skipped and not double-counted.
	result2, err := a.CompleteLearn(context.Background(), user.ID, wordIDs, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2.WordsMoved != 0 {
		t.Fatalf("WordsMoved on repeat call = %d, want 0", result2.WordsMoved)
	}
}

func TestPracticeSession_UnavailableBelowMinCandidates(t *testing.T) {
	a, user := withTestAssembler(t)

	sess, err := a.GetPracticeSession(user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Available {
		t.Fatalf("expected no practice session with zero due words")
	}
	if sess.Reason != "not_enough_words" {
		t.Fatalf("Reason = %q, want not_enough_words", sess.Reason)
	}
}

func TestPracticeSubmit_AdvancesPoolAndRecordsHistory(t *testing.T) {
	a, user := withTestAssembler(t)
	wordRepo := database.NewWordRepository()
	progressRepo := database.NewProgressRepository()
	words := seedCatalog(t, wordRepo, 3)

	now := time.Now().UTC()
	due := now.Add(-time.Minute)
	for _, w := range words {
		if err := progressRepo.CreateProgress(&models.WordProgress{
			UserID: user.ID, WordID: w.ID, Pool: "P1", NextAvailableTime: &due,
		}); err != nil {
			t.Fatalf("failed to seed progress: %v", err)
		}
	}

	sess, err := a.GetPracticeSession(user.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.Available {
		t.Fatalf("expected a practice session to be available, reason=%s", sess.Reason)
	}
	if len(sess.Exercises) != 3 {
		t.Fatalf("len(sess.Exercises) = %d, want 3", len(sess.Exercises))
	}

	answers := make([]PracticeAnswer, len(sess.Exercises))
	for i, ex := range sess.Exercises {
		answers[i] = PracticeAnswer{WordID: ex.WordID, Correct: true}
	}

	result, err := a.SubmitPractice(user.ID, answers, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Correct != 3 {
		t.Fatalf("Summary.Correct = %d, want 3", result.Summary.Correct)
	}
	for _, r := range result.Results {
		if r.NewPool != "P2" {
			t.Fatalf("word %s: NewPool = %s, want P2", r.WordID, r.NewPool)
		}
	}

	for _, w := range words {
		p, err := progressRepo.GetByUserAndWord(user.ID, w.ID)
		if err != nil {
			t.Fatalf("failed to fetch progress: %v", err)
		}
		if p.Pool != "P2" {
			t.Fatalf("persisted pool = %s, want P2", p.Pool)
		}
	}
}

func TestReviewFlow_DisplayThenTestReturnsToP(t *testing.T) {
	a, user := withTestAssembler(t)
	wordRepo := database.NewWordRepository()
	progressRepo := database.NewProgressRepository()
	words := seedCatalog(t, wordRepo, 3)

	now := time.Now().UTC()
	due := now.Add(-time.Minute)
	for _, w := range words {
		if err := progressRepo.CreateProgress(&models.WordProgress{
			UserID: user.ID, WordID: w.ID, Pool: "R2",
			ReviewStage: models.ReviewStageDisplay, NextAvailableTime: &due,
		}); err != nil {
			t.Fatalf("failed to seed progress: %v", err)
		}
	}

	display, err := a.GetReviewSession(user.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !display.Available {
		t.Fatalf("expected a review session to be available, reason=%s", display.Reason)
	}

	wordIDs := make([]string, len(words))
	for i, w := range words {
		wordIDs[i] = w.ID
	}
	completeResult, err := a.CompleteReview(user.ID, wordIDs, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completeResult.WordsCompleted != 3 {
		t.Fatalf("WordsCompleted = %d, want 3", completeResult.WordsCompleted)
	}

	testNow := now.Add(21 * time.Hour)
	testSess, err := a.GetReviewTestSession(user.ID, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !testSess.Available {
		t.Fatalf("expected a review test session to be available, reason=%s", testSess.Reason)
	}

	answers := make([]PracticeAnswer, len(testSess.Exercises))
	for i, ex := range testSess.Exercises {
		answers[i] = PracticeAnswer{WordID: ex.WordID, Correct: true}
	}
	submitResult, err := a.SubmitReview(user.ID, answers, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submitResult.Summary.ReturnedToP != 3 {
		t.Fatalf("Summary.ReturnedToP = %d, want 3", submitResult.Summary.ReturnedToP)
	}
	for _, r := range submitResult.Results {
		if r.NewPool != "P2" {
			t.Fatalf("word %s: NewPool = %s, want P2", r.WordID, r.NewPool)
		}
	}
}

func TestGetHomeStats_ReflectsSeededProgress(t *testing.T) {
	a, user := withTestAssembler(t)
	wordRepo := database.NewWordRepository()
	progressRepo := database.NewProgressRepository()
	words := seedCatalog(t, wordRepo, 2)

	now := time.Now().UTC()
	due := now.Add(-time.Minute)
	if err := progressRepo.CreateProgress(&models.WordProgress{
		UserID: user.ID, WordID: words[0].ID, Pool: "P1", NextAvailableTime: &due,
	}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	stats, err := a.GetHomeStats(user.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.PoolDistribution["P1"] != 1 {
		t.Fatalf("PoolDistribution[P1] = %d, want 1", stats.PoolDistribution["P1"])
	}
	if stats.PoolDistribution["P0"] != 1 {
		t.Fatalf("PoolDistribution[P0] = %d, want 1 (the unseeded second word)", stats.PoolDistribution["P0"])
	}
}
