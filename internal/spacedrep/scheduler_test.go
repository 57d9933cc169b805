package spacedrep

import (
	"testing"
	"time"

	"github.com/example/wordpool/pkg/models"
)

var fixedNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func progressAt(pool string, reviewStage string) models.WordProgress {
	return models.WordProgress{
		UserID:            "u1",
		WordID:            "w1",
		Pool:              pool,
		ReviewStage:       reviewStage,
		NextAvailableTime: timePtr(fixedNow.Add(-time.Minute)),
	}
}

func TestTransition_P1WrongStaysAtP1(t *testing.T) {
	s := New()
	p := progressAt("P1", "")
	updated, err := s.Transition(p, false, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Pool != "P1" {
		t.Fatalf("P1 wrong answer must never demote below P1, got %s", updated.Pool)
	}
	if got, want := *updated.NextAvailableTime, fixedNow.Add(retryWait); !got.Equal(want) {
		t.Fatalf("next_available_time = %v, want %v", got, want)
	}
	if updated.IncorrectCount != 1 {
		t.Fatalf("IncorrectCount = %d, want 1", updated.IncorrectCount)
	}
}

func TestTransition_PCorrectAdvancesLevel(t *testing.T) {
	s := New()
	for level := 1; level <= 5; level++ {
		p := progressAt(PAtLevel(level).String(), "")
		updated, err := s.Transition(p, true, fixedNow)
		if err != nil {
			t.Fatalf("P%d: unexpected error: %v", level, err)
		}
		want := PAtLevel(level + 1).String()
		if updated.Pool != want {
			t.Fatalf("P%d correct: Pool = %s, want %s", level, updated.Pool, want)
		}
		if updated.ReviewStage != "" {
			t.Fatalf("P%d correct: ReviewStage = %q, want empty", level, updated.ReviewStage)
		}
	}
}

func TestTransition_P6CorrectHasNoWait(t *testing.T) {
	s := New()
	p := progressAt("P5", "")
	updated, err := s.Transition(p, true, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Pool != "P6" {
		t.Fatalf("Pool = %s, want P6", updated.Pool)
	}
	if updated.NextAvailableTime != nil {
		t.Fatalf("P6 should carry no next_available_time, got %v", updated.NextAvailableTime)
	}
}

func TestTransition_P2ThroughP5WrongDemoteToMatchingR(t *testing.T) {
	s := New()
	for level := 2; level <= 5; level++ {
		p := progressAt(PAtLevel(level).String(), "")
		updated, err := s.Transition(p, false, fixedNow)
		if err != nil {
			t.Fatalf("P%d: unexpected error: %v", level, err)
		}
		want := RAtLevel(level).String()
		if updated.Pool != want {
			t.Fatalf("P%d wrong: Pool = %s, want %s", level, updated.Pool, want)
		}
		if updated.ReviewStage != models.ReviewStageDisplay {
			t.Fatalf("P%d wrong: ReviewStage = %q, want display", level, updated.ReviewStage)
		}
		if got, want := *updated.NextAvailableTime, fixedNow.Add(retryWait); !got.Equal(want) {
			t.Fatalf("P%d wrong: next_available_time = %v, want %v", level, got, want)
		}
	}
}

func TestTransition_RTestCorrectReturnsToMatchingP(t *testing.T) {
	s := New()
	for level := 1; level <= 5; level++ {
		p := progressAt(RAtLevel(level).String(), models.ReviewStagePractice)
		updated, err := s.Transition(p, true, fixedNow)
		if err != nil {
			t.Fatalf("R%d: unexpected error: %v", level, err)
		}
		want := PAtLevel(level).String()
		if updated.Pool != want {
			t.Fatalf("R%d correct test: Pool = %s, want %s", level, updated.Pool, want)
		}
		if updated.ReviewStage != "" {
			t.Fatalf("R%d correct test: ReviewStage = %q, want empty", level, updated.ReviewStage)
		}
	}
}

func TestTransition_RTestIncorrectReturnsToDisplay(t *testing.T) {
	s := New()
	p := progressAt("R3", models.ReviewStagePractice)
	updated, err := s.Transition(p, false, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Pool != "R3" {
		t.Fatalf("R3 incorrect test must stay in R3, got %s", updated.Pool)
	}
	if updated.ReviewStage != models.ReviewStageDisplay {
		t.Fatalf("ReviewStage = %q, want display", updated.ReviewStage)
	}
	if got, want := *updated.NextAvailableTime, fixedNow.Add(retryWait); !got.Equal(want) {
		t.Fatalf("next_available_time = %v, want %v", got, want)
	}
}

func TestCompleteReviewDisplay(t *testing.T) {
	s := New()
	p := progressAt("R2", models.ReviewStageDisplay)
	updated := s.CompleteReviewDisplay(p, fixedNow)
	if updated.ReviewStage != models.ReviewStagePractice {
		t.Fatalf("ReviewStage = %q, want practice", updated.ReviewStage)
	}
	if got, want := *updated.NextAvailableTime, fixedNow.Add(reviewDisplayWait); !got.Equal(want) {
		t.Fatalf("next_available_time = %v, want %v", got, want)
	}
}

func TestCompleteLearn(t *testing.T) {
	s := New()
	p := models.WordProgress{UserID: "u1", WordID: "w1", Pool: "P0"}
	updated := s.CompleteLearn(p, fixedNow)
	if updated.Pool != "P1" {
		t.Fatalf("Pool = %s, want P1", updated.Pool)
	}
	if updated.LearnedAt == nil || !updated.LearnedAt.Equal(fixedNow) {
		t.Fatalf("LearnedAt = %v, want %v", updated.LearnedAt, fixedNow)
	}
	if got, want := *updated.NextAvailableTime, fixedNow.Add(retryWait); !got.Equal(want) {
		t.Fatalf("next_available_time = %v, want %v", got, want)
	}
}

func TestEligibleForPractice(t *testing.T) {
	s := New()
	due := progressAt("P2", "")
	if !s.EligibleForPractice(&due, fixedNow) {
		t.Fatalf("expected eligible")
	}

	notYet := progressAt("P2", "")
	notYet.NextAvailableTime = timePtr(fixedNow.Add(time.Hour))
	if s.EligibleForPractice(&notYet, fixedNow) {
		t.Fatalf("expected not eligible before next_available_time")
	}

	p0 := progressAt("P0", "")
	if s.EligibleForPractice(&p0, fixedNow) {
		t.Fatalf("P0 should never be eligible for practice")
	}

	rpool := progressAt("R2", models.ReviewStageDisplay)
	if s.EligibleForPractice(&rpool, fixedNow) {
		t.Fatalf("R-pool should never be eligible for practice")
	}
}

func TestEligibleForReviewDisplayAndTest(t *testing.T) {
	s := New()
	display := progressAt("R1", models.ReviewStageDisplay)
	if !s.EligibleForReviewDisplay(&display, fixedNow) {
		t.Fatalf("expected eligible for display")
	}
	if s.EligibleForReviewTest(&display, fixedNow) {
		t.Fatalf("display-stage row should not be eligible for test")
	}

	test := progressAt("R1", models.ReviewStagePractice)
	if !s.EligibleForReviewTest(&test, fixedNow) {
		t.Fatalf("expected eligible for test")
	}
	if s.EligibleForReviewDisplay(&test, fixedNow) {
		t.Fatalf("practice-stage row should not be eligible for display")
	}
}

func TestOrderByNextAvailable(t *testing.T) {
	t1 := fixedNow
	t2 := fixedNow.Add(time.Hour)
	rows := []models.WordProgress{
		{WordID: "later", NextAvailableTime: &t2},
		{WordID: "nil", NextAvailableTime: nil},
		{WordID: "earlier", NextAvailableTime: &t1},
	}
	OrderByNextAvailable(rows)
	want := []string{"earlier", "later", "nil"}
	for i, id := range want {
		if rows[i].WordID != id {
			t.Fatalf("position %d: WordID = %s, want %s", i, rows[i].WordID, id)
		}
	}
}
