package database

import (
	"testing"
	"time"

	"github.com/example/wordpool/pkg/models"
	"github.com/google/uuid"
)

func seedUser(t *testing.T, telegramID int64) *models.User {
	t.Helper()
	users := NewUserRepository()
	u := &models.User{ID: uuid.NewString(), TelegramID: telegramID, NotificationEnabled: true, NotificationHour: 9}
	if err := users.Create(u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func seedWord(t *testing.T, word string) *models.Word {
	t.Helper()
	words := NewWordRepository()
	w := &models.Word{ID: uuid.NewString(), Word: word, Translation: word + "-tr"}
	if err := words.Create(w); err != nil {
		t.Fatalf("failed to create word: %v", err)
	}
	return w
}

func TestProgressRepository_CanLearn_NoWordsInP0(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, 1)
	progress := NewProgressRepository()

	ok, reason, err := progress.CanLearn(user.ID, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected CanLearn=false with an empty catalog")
	}
	if reason != "no_words_in_p0" {
		t.Fatalf("reason = %q, want no_words_in_p0", reason)
	}
}

func TestProgressRepository_CreateAndFetchProgress(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, 1)
	word := seedWord(t, "apple")
	progress := NewProgressRepository()

	now := time.Now().UTC().Truncate(time.Second)
	p := &models.WordProgress{
		UserID:            user.ID,
		WordID:            word.ID,
		Pool:              "P1",
		LearnedAt:         &now,
		NextAvailableTime: &now,
	}
	if err := progress.CreateProgress(p); err != nil {
		t.Fatalf("failed to create progress: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("expected CreateProgress to populate the row ID")
	}

	got, err := progress.GetByUserAndWord(user.ID, word.ID)
	if err != nil {
		t.Fatalf("failed to fetch progress: %v", err)
	}
	if got.Pool != "P1" {
		t.Fatalf("Pool = %s, want P1", got.Pool)
	}
}

func TestProgressRepository_GetAvailablePracticeWords_OrdersByDueTime(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, 1)
	wordSoon := seedWord(t, "soon")
	wordLater := seedWord(t, "later")
	progress := NewProgressRepository()

	now := time.Now().UTC()
	dueLater := now.Add(-time.Minute)
	dueSoon := now.Add(-time.Hour)

	if err := progress.CreateProgress(&models.WordProgress{UserID: user.ID, WordID: wordLater.ID, Pool: "P2", NextAvailableTime: &dueLater}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}
	if err := progress.CreateProgress(&models.WordProgress{UserID: user.ID, WordID: wordSoon.ID, Pool: "P2", NextAvailableTime: &dueSoon}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	rows, err := progress.GetAvailablePracticeWords(user.ID, now, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].WordID != wordSoon.ID {
		t.Fatalf("expected the earlier-due word first, got %s", rows[0].WordID)
	}
}

func TestProgressRepository_LockRowsAndUpdateProgress(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, 1)
	word := seedWord(t, "apple")
	progress := NewProgressRepository()

	now := time.Now().UTC()
	p := &models.WordProgress{UserID: user.ID, WordID: word.ID, Pool: "P1", NextAvailableTime: &now}
	if err := progress.CreateProgress(p); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	tx, err := progress.BeginTx()
	if err != nil {
		t.Fatalf("failed to begin tx: %v", err)
	}
	rows, err := progress.LockRows(tx, user.ID, []string{word.ID})
	if err != nil {
		t.Fatalf("failed to lock rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	rows[0].Pool = "P2"
	rows[0].CorrectCount = 1
	if err := progress.UpdateProgress(tx, rows[0]); err != nil {
		t.Fatalf("failed to update progress: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	got, err := progress.GetByUserAndWord(user.ID, word.ID)
	if err != nil {
		t.Fatalf("failed to fetch progress: %v", err)
	}
	if got.Pool != "P2" || got.CorrectCount != 1 {
		t.Fatalf("update did not persist: %+v", got)
	}
}

func TestProgressRepository_CountP1Upcoming_ExcludesOverdueAndFarFutureRows(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, 1)
	wordOverdue := seedWord(t, "overdue")
	wordUpcoming := seedWord(t, "upcoming")
	wordFar := seedWord(t, "far")
	progress := NewProgressRepository()

	now := time.Now().UTC()
	overdue := now.Add(-time.Minute)
	upcoming := now.Add(5 * time.Minute)
	far := now.Add(time.Hour)

	if err := progress.CreateProgress(&models.WordProgress{UserID: user.ID, WordID: wordOverdue.ID, Pool: "P1", NextAvailableTime: &overdue}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}
	if err := progress.CreateProgress(&models.WordProgress{UserID: user.ID, WordID: wordUpcoming.ID, Pool: "P1", NextAvailableTime: &upcoming}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}
	if err := progress.CreateProgress(&models.WordProgress{UserID: user.ID, WordID: wordFar.ID, Pool: "P1", NextAvailableTime: &far}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	n, err := progress.CountP1Upcoming(user.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("CountP1Upcoming = %d, want 1 (only the row due in 5m, not the overdue or 1h-out rows)", n)
	}
}

func TestProgressRepository_ResetUserProgress(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, 1)
	word := seedWord(t, "apple")
	progress := NewProgressRepository()

	now := time.Now().UTC()
	if err := progress.CreateProgress(&models.WordProgress{UserID: user.ID, WordID: word.ID, Pool: "P1", NextAvailableTime: &now}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	n, err := progress.ResetUserProgress(user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows deleted = %d, want 1", n)
	}

	rows, err := progress.GetUserProgress(user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no progress rows after reset, got %d", len(rows))
	}
}
