package planner

import (
	"math"
	"testing"
)

func TestSolveProfileTrapezoidLengthIdentity(t *testing.T) {
	head, body, tail, peak := solveProfile(100, 5, 5, 20, 500)
	if peak != 20 {
		t.Fatalf("peak = %v, want cruise 20", peak)
	}
	sum := head + body + tail
	if math.Abs(sum-100) > 1e-6 {
		t.Fatalf("head+body+tail = %v, want length 100", sum)
	}
	if body <= 0 {
		t.Fatalf("a 100-unit move at modest jerk should reach cruise and have a body, got body=%v", body)
	}
}

func TestSolveProfileTriangleDegradesWithoutBody(t *testing.T) {
	// A very short move can't reach the requested cruise velocity: the
	// profile should degenerate to a triangle (body == 0) but still sum
	// to the full move length.
	head, body, tail, peak := solveProfile(0.5, 0, 0, 100, 50)
	sum := head + body + tail
	if math.Abs(sum-0.5) > 1e-6 {
		t.Fatalf("head+body+tail = %v, want length 0.5", sum)
	}
	if body > 1e-6 {
		t.Fatalf("short move should not reach cruise: body = %v, want ~0", body)
	}
	if peak <= 0 || peak > 100 {
		t.Fatalf("triangle peak = %v, want in (0,100]", peak)
	}
}

func TestSolveProfileZeroJerkFallsBackToFullLengthCruise(t *testing.T) {
	head, body, tail, peak := solveProfile(10, 0, 0, 5, 0)
	if head != 0 || tail != 0 || body != 10 {
		t.Fatalf("zero-jerk profile = head %v body %v tail %v, want 0/10/0", head, body, tail)
	}
	if peak != 5 {
		t.Fatalf("zero-jerk profile peak = %v, want cruise 5", peak)
	}
}

func TestRampLengthMatchesCubeRelation(t *testing.T) {
	jerk := 200.0
	dv := 4.0
	got := rampLength(jerk, dv)
	want := dv * dv * dv / jerk
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("rampLength(%v,%v) = %v, want %v", jerk, dv, got, want)
	}
	if rampLength(jerk, -1) != 0 {
		t.Fatal("rampLength with non-positive dv should be 0")
	}
}

func TestProfileTimeIncreasesWithLength(t *testing.T) {
	short := profileTime(1, 1, 1, 0, 10, 0)
	long := profileTime(2, 2, 2, 0, 10, 0)
	if !(long > short) {
		t.Fatalf("profileTime should grow with phase lengths: short=%v long=%v", short, long)
	}
}
