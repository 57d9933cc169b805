// Package spacedrep implements the pool state machine that drives the
// vocabulary scheduler: twelve time-gated pools (P0-P6, R1-R5), the wait
// each pool imposes before its word becomes eligible again, and the pure
// transition function applied on a Learn/Practice/Review outcome.
//
// Every decision here is a function of (pool, next_available_time, now)
// plus the outcome bit. There is no global clock and no I/O in this
// package; callers always pass now explicitly.
package spacedrep

import (
	"fmt"
	"time"
)

// Pool is the tagged-enum scheduling state of a single (user, word) pair:
// either a P-pool (learning ladder, level 0..6) or an R-pool (remedial
// review ladder, level 1..5 matching the P-level the word fell from).
type Pool struct {
	kind  poolKind
	Level int
}

type poolKind int

const (
	kindP poolKind = iota
	kindR
)

var (
	P0 = Pool{kind: kindP, Level: 0}
	P1 = Pool{kind: kindP, Level: 1}
	P2 = Pool{kind: kindP, Level: 2}
	P3 = Pool{kind: kindP, Level: 3}
	P4 = Pool{kind: kindP, Level: 4}
	P5 = Pool{kind: kindP, Level: 5}
	P6 = Pool{kind: kindP, Level: 6}
	R1 = Pool{kind: kindR, Level: 1}
	R2 = Pool{kind: kindR, Level: 2}
	R3 = Pool{kind: kindR, Level: 3}
	R4 = Pool{kind: kindR, Level: 4}
	R5 = Pool{kind: kindR, Level: 5}
)

// retryWait is the shared 10-minute retry constant: a P1 wrong answer and
// an R-pool re-entry both land here (spec.md §4.1 ties-and-edge-cases).
const retryWait = 10 * time.Minute

// reviewDisplayWait is how long an R-pool word sits in the display phase
// before becoming eligible for its test phase.
const reviewDisplayWait = 20 * time.Hour

// waitByPLevel is the wait a P-pool word must serve after entering that
// pool before it is eligible again. P0 and P6 have no wait: P0 has no
// eligibility concept (Learn intake only) and P6 never surfaces again.
var waitByPLevel = map[int]time.Duration{
	1: 10 * time.Minute,
	2: 20 * time.Hour,
	3: 44 * time.Hour,
	4: 68 * time.Hour,
	5: 164 * time.Hour,
}

// exerciseTypeByLevel maps a P-level (1..5) to the exercise surfaced when
// a word in that pool (or the matching R-pool) becomes eligible.
var exerciseTypeByLevel = map[int]string{
	1: "reading_lv1",
	2: "listening_lv1",
	3: "speaking_lv1",
	4: "reading_lv2",
	5: "speaking_lv2",
}

func (p Pool) String() string {
	if p.kind == kindR {
		return fmt.Sprintf("R%d", p.Level)
	}
	return fmt.Sprintf("P%d", p.Level)
}

// IsP reports whether this is a P-pool (learning ladder).
func (p Pool) IsP() bool { return p.kind == kindP }

// IsR reports whether this is an R-pool (remedial review ladder).
func (p Pool) IsR() bool { return p.kind == kindR }

// Wait returns the fixed time a word must spend in this pool before it
// becomes eligible for its next activity. Returns (0, false) for P0 and
// P6, which never gate on a wait.
func (p Pool) Wait() (time.Duration, bool) {
	if p.kind == kindP {
		if p.Level == 0 || p.Level == 6 {
			return 0, false
		}
		return waitByPLevel[p.Level], true
	}
	// R-pools don't have a single wait: display uses retryWait on
	// re-entry and reviewDisplayWait on display completion; the test
	// phase inherits the matching P-level's wait indirectly via
	// Transition (a correct test answer moves the word back to P_k).
	return retryWait, true
}

// ExerciseType returns the exercise surfaced when this pool is eligible.
// P0 and P6 have none: P0 is Learn intake only, P6 is mastered and never
// surfaces again.
func (p Pool) ExerciseType() (string, bool) {
	level := p.Level
	t, ok := exerciseTypeByLevel[level]
	if !ok {
		return "", false
	}
	return t, true
}

// PAtLevel returns the P-pool at the given level (0..6).
func PAtLevel(level int) Pool { return Pool{kind: kindP, Level: level} }

// RAtLevel returns the R-pool at the given level (1..5).
func RAtLevel(level int) Pool { return Pool{kind: kindR, Level: level} }

// ParsePool parses a pool name such as "P3" or "R2".
func ParsePool(name string) (Pool, error) {
	if len(name) < 2 {
		return Pool{}, fmt.Errorf("spacedrep: invalid pool name %q", name)
	}
	var level int
	if _, err := fmt.Sscanf(name[1:], "%d", &level); err != nil {
		return Pool{}, fmt.Errorf("spacedrep: invalid pool name %q: %w", name, err)
	}
	switch name[0] {
	case 'P':
		if level < 0 || level > 6 {
			return Pool{}, fmt.Errorf("spacedrep: invalid P level in %q", name)
		}
		return PAtLevel(level), nil
	case 'R':
		if level < 1 || level > 5 {
			return Pool{}, fmt.Errorf("spacedrep: invalid R level in %q", name)
		}
		return RAtLevel(level), nil
	default:
		return Pool{}, fmt.Errorf("spacedrep: invalid pool name %q", name)
	}
}
