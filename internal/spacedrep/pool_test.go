package spacedrep

import "testing"

func TestParsePool_RoundTrip(t *testing.T) {
	pools := []Pool{P0, P1, P2, P3, P4, P5, P6, R1, R2, R3, R4, R5}
	for _, p := range pools {
		parsed, err := ParsePool(p.String())
		if err != nil {
			t.Fatalf("ParsePool(%q): unexpected error: %v", p.String(), err)
		}
		if parsed != p {
			t.Fatalf("ParsePool(%q) = %v, want %v", p.String(), parsed, p)
		}
	}
}

func TestParsePool_Invalid(t *testing.T) {
	names := []string{"", "X", "P", "P7", "P-1", "R0", "R6", "p1"}
	for _, name := range names {
		if _, err := ParsePool(name); err == nil {
			t.Fatalf("ParsePool(%q): expected error, got nil", name)
		}
	}
}

func TestPool_IsPIsR(t *testing.T) {
	if !P3.IsP() || P3.IsR() {
		t.Fatalf("P3: IsP/IsR wrong")
	}
	if !R2.IsR() || R2.IsP() {
		t.Fatalf("R2: IsP/IsR wrong")
	}
}

func TestPool_Wait(t *testing.T) {
	if _, ok := P0.Wait(); ok {
		t.Fatalf("P0 should have no wait")
	}
	if _, ok := P6.Wait(); ok {
		t.Fatalf("P6 should have no wait")
	}
	for level := 1; level <= 5; level++ {
		p := PAtLevel(level)
		wait, ok := p.Wait()
		if !ok {
			t.Fatalf("P%d: expected a wait", level)
		}
		if wait != waitByPLevel[level] {
			t.Fatalf("P%d: wait = %v, want %v", level, wait, waitByPLevel[level])
		}
	}
}

func TestPool_ExerciseType(t *testing.T) {
	if _, ok := P0.ExerciseType(); ok {
		t.Fatalf("P0 should have no exercise type")
	}
	if _, ok := P6.ExerciseType(); ok {
		t.Fatalf("P6 should have no exercise type")
	}
	cases := map[Pool]string{
		P1: "reading_lv1",
		P2: "listening_lv1",
		P3: "speaking_lv1",
		P4: "reading_lv2",
		P5: "speaking_lv2",
		R1: "reading_lv1",
		R3: "speaking_lv1",
	}
	for pool, want := range cases {
		got, ok := pool.ExerciseType()
		if !ok {
			t.Fatalf("%v: expected an exercise type", pool)
		}
		if got != want {
			t.Fatalf("%v.ExerciseType() = %q, want %q", pool, got, want)
		}
	}
}
