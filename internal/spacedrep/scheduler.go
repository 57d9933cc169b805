package spacedrep

import (
	"sort"
	"time"

	"github.com/example/wordpool/pkg/models"
)

// Scheduler is a pure function layer: every decision here is determined
// by (pool, next_available_time, now) and the outcome bit. It holds no
// state and performs no I/O; New returns a zero-size value purely for
// symmetry with the rest of the codebase's constructor convention.
type Scheduler struct{}

// New creates a new Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

func poolOf(p *models.WordProgress) (Pool, error) {
	return ParsePool(p.Pool)
}

// EligibleForPractice reports whether a P-pool word is due.
func (s *Scheduler) EligibleForPractice(p *models.WordProgress, now time.Time) bool {
	pool, err := poolOf(p)
	if err != nil || !pool.IsP() || pool.Level < 1 || pool.Level > 5 {
		return false
	}
	return p.NextAvailableTime != nil && !now.Before(*p.NextAvailableTime)
}

// EligibleForReviewDisplay reports whether an R-pool word is due for
// re-exposure (display phase).
func (s *Scheduler) EligibleForReviewDisplay(p *models.WordProgress, now time.Time) bool {
	pool, err := poolOf(p)
	if err != nil || !pool.IsR() {
		return false
	}
	return p.ReviewStage == models.ReviewStageDisplay &&
		p.NextAvailableTime != nil && !now.Before(*p.NextAvailableTime)
}

// EligibleForReviewTest reports whether an R-pool word is due for its
// re-test.
func (s *Scheduler) EligibleForReviewTest(p *models.WordProgress, now time.Time) bool {
	pool, err := poolOf(p)
	if err != nil || !pool.IsR() {
		return false
	}
	return p.ReviewStage == models.ReviewStagePractice &&
		p.NextAvailableTime != nil && !now.Before(*p.NextAvailableTime)
}

// Transition applies the state machine described in spec.md §4.1 to a
// copy of progress and returns the updated value. The caller is
// responsible for persisting the result inside the same transaction
// every other row in the batch is written in, all sharing the same now.
func (s *Scheduler) Transition(p models.WordProgress, correct bool, now time.Time) (models.WordProgress, error) {
	pool, err := poolOf(&p)
	if err != nil {
		return p, err
	}

	switch {
	case pool.IsP():
		p = s.transitionFromP(p, pool, correct, now)
	case pool.IsR():
		p = s.transitionFromR(p, pool, correct, now)
	}

	p.LastOutcomeAt = timePtr(now)
	if correct {
		p.CorrectCount++
	} else {
		p.IncorrectCount++
	}
	return p, nil
}

func (s *Scheduler) transitionFromP(p models.WordProgress, pool Pool, correct bool, now time.Time) models.WordProgress {
	if correct {
		next := PAtLevel(pool.Level + 1)
		p.Pool = next.String()
		p.ReviewStage = ""
		if wait, ok := next.Wait(); ok {
			p.NextAvailableTime = timePtr(now.Add(wait))
		} else {
			p.NextAvailableTime = nil
		}
		return p
	}

	// Incorrect.
	if pool.Level == 1 {
		// No R0: P1 stays at P1 with the shared retry wait.
		p.NextAvailableTime = timePtr(now.Add(retryWait))
		return p
	}

	// P2..P5 demote to the matching R-pool, display phase.
	demoted := RAtLevel(pool.Level)
	p.Pool = demoted.String()
	p.ReviewStage = models.ReviewStageDisplay
	p.NextAvailableTime = timePtr(now.Add(retryWait))
	return p
}

func (s *Scheduler) transitionFromR(p models.WordProgress, pool Pool, correct bool, now time.Time) models.WordProgress {
	// Display-phase completion (no correctness bit involved) is handled
	// by CompleteReviewDisplay, not Transition: Transition here only
	// covers the test (practice-phase) submission.
	if correct {
		// Return to the P pool at the matching level.
		restored := PAtLevel(pool.Level)
		p.Pool = restored.String()
		p.ReviewStage = ""
		if wait, ok := restored.Wait(); ok {
			p.NextAvailableTime = timePtr(now.Add(wait))
		} else {
			p.NextAvailableTime = nil
		}
		return p
	}

	// Incorrect: stay in the R pool, back to display.
	p.ReviewStage = models.ReviewStageDisplay
	p.NextAvailableTime = timePtr(now.Add(retryWait))
	return p
}

// CompleteReviewDisplay applies the display->practice transition
// (spec.md §4.1 "Display-phase completion"). It carries no correctness
// bit: the word has simply been re-seen.
func (s *Scheduler) CompleteReviewDisplay(p models.WordProgress, now time.Time) models.WordProgress {
	p.ReviewStage = models.ReviewStagePractice
	p.NextAvailableTime = timePtr(now.Add(reviewDisplayWait))
	return p
}

// CompleteLearn applies the Learn-completion transition (P0 -> P1).
func (s *Scheduler) CompleteLearn(p models.WordProgress, now time.Time) models.WordProgress {
	p.Pool = P1.String()
	p.LearnedAt = timePtr(now)
	p.NextAvailableTime = timePtr(now.Add(retryWait))
	return p
}

// OrderByNextAvailable sorts progress rows ascending by next_available_time,
// the ordering every candidate-selection query in the Assembler uses
// (adapted from the teacher's SM2.GetNextWords priority sort, narrowed to
// the single criterion spec.md §4.3/§4.4 name).
func OrderByNextAvailable(rows []models.WordProgress) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].NextAvailableTime, rows[j].NextAvailableTime
		if ti == nil || tj == nil {
			return ti != nil // nils sort last
		}
		return ti.Before(*tj)
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}
