package session

import (
	"time"

	"github.com/example/wordpool/internal/database"
)

// HomeStats is the get_home_stats response (spec.md §4.5, plus the NEW
// today_completed/pool_distribution fields of SPEC_FULL.md §4.5).
type HomeStats struct {
	TodayLearned      int              `json:"today_learned"`
	AvailablePractice int              `json:"available_practice"`
	AvailableReview   int              `json:"available_review"`
	Upcoming24h       int              `json:"upcoming_24h"`
	CanLearn          bool             `json:"can_learn"`
	CanPractice       bool             `json:"can_practice"`
	CanReview         bool             `json:"can_review"`
	NextAvailableTime *time.Time       `json:"next_available_time,omitempty"`
	TodayCompleted    int              `json:"today_completed"`
	PoolDistribution  map[string]int   `json:"pool_distribution"`
}

// GetHomeStats computes the full Home summary in a single read-only pass
// over a user's progress rows and the catalog.
func (a *Assembler) GetHomeStats(userID string, now time.Time) (HomeStats, error) {
	todayLearned, err := a.progress.CountTodayLearned(userID, now)
	if err != nil {
		return HomeStats{}, err
	}
	availablePractice, err := a.progress.CountAvailablePractice(userID, now)
	if err != nil {
		return HomeStats{}, err
	}
	availableReviewDisplay, err := a.progress.CountAvailableReview(userID, now)
	if err != nil {
		return HomeStats{}, err
	}
	availableReviewTest, err := a.progress.CountReviewTest(userID, now)
	if err != nil {
		return HomeStats{}, err
	}
	availableReview := availableReviewDisplay + availableReviewTest

	upcoming24h, err := a.progress.CountUpcoming24h(userID, now)
	if err != nil {
		return HomeStats{}, err
	}

	canLearn, _, err := a.progress.CanLearn(userID, now)
	if err != nil {
		return HomeStats{}, err
	}
	canPractice := availablePractice >= database.PracticeMinWords
	// A Review session is actually offerable only if one of the two phases
	// clears the threshold on its own (GetReviewSession/GetReviewTestSession
	// each gate on their own candidate count, not the combined total).
	canReview := availableReviewDisplay >= database.ReviewMinWords || availableReviewTest >= database.ReviewMinWords

	var nextAvailableTime *time.Time
	if !canLearn && !canPractice && !canReview {
		nextAvailableTime, err = a.progress.GetNextAvailableTime(userID, now)
		if err != nil {
			return HomeStats{}, err
		}
	}

	todayCompleted, err := a.answers.CountTodayCompleted(userID, now)
	if err != nil {
		return HomeStats{}, err
	}
	poolDistribution, err := a.poolDistribution(userID)
	if err != nil {
		return HomeStats{}, err
	}

	return HomeStats{
		TodayLearned:      todayLearned,
		AvailablePractice: availablePractice,
		AvailableReview:   availableReview,
		Upcoming24h:       upcoming24h,
		CanLearn:          canLearn,
		CanPractice:       canPractice,
		CanReview:         canReview,
		NextAvailableTime: nextAvailableTime,
		TodayCompleted:    todayCompleted,
		PoolDistribution:  poolDistribution,
	}, nil
}

// poolDistribution counts a user's progress rows per pool, synthesizing
// the P0 count from catalog size minus progress-row count.
func (a *Assembler) poolDistribution(userID string) (map[string]int, error) {
	dist := map[string]int{
		"P0": 0, "P1": 0, "P2": 0, "P3": 0, "P4": 0, "P5": 0, "P6": 0,
		"R1": 0, "R2": 0, "R3": 0, "R4": 0, "R5": 0,
	}

	rows, err := a.progress.GetUserProgress(userID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		dist[row.Pool]++
	}

	p0, err := a.progress.CountWordsInCatalogNotStarted(userID)
	if err != nil {
		return nil, err
	}
	dist["P0"] = p0

	return dist, nil
}

// ResetResult is the reset_progress response.
type ResetResult struct {
	WordsReset int64 `json:"words_reset"`
}

// ResetProgress deletes every progress row for a user, returning every
// word to the synthesized P0 population (spec.md §6 admin/reset-progress).
func (a *Assembler) ResetProgress(userID string) (ResetResult, error) {
	n, err := a.progress.ResetUserProgress(userID)
	if err != nil {
		return ResetResult{}, err
	}
	return ResetResult{WordsReset: n}, nil
}

// ListPool is the list_pool admin diagnostic.
func (a *Assembler) ListPool(userID string) (map[string][]database.PoolEntry, error) {
	return a.progress.GetPoolSummary(userID)
}
