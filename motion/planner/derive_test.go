package planner

import (
	"math"
	"testing"

	"cncmotion/motion"
)

func testAxes(velMax, feedMax, jerkMax, deviation float64) [motion.NumAxes]motion.AxisConfig {
	var axes [motion.NumAxes]motion.AxisConfig
	for i := range axes {
		axes[i] = motion.AxisConfig{
			Mode:              motion.AxisStandard,
			VelocityMax:       velMax,
			FeedrateMax:       feedMax,
			JerkMax:           jerkMax,
			JunctionDeviation: deviation,
		}
	}
	return axes
}

func TestJunctionVelocityCollinearIsCruiseMin(t *testing.T) {
	axes := testAxes(100, 50, 1000, 0.01)
	unit := motion.Vector6{1, 0, 0, 0, 0, 0}
	v := junctionVelocity(axes, 500, unit, unit, 40, 30)
	if math.Abs(v-30) > 1e-9 {
		t.Fatalf("collinear junction velocity = %v, want min(40,30)=30", v)
	}
}

func TestJunctionVelocityReversalIsZero(t *testing.T) {
	axes := testAxes(100, 50, 1000, 0.01)
	unit := motion.Vector6{1, 0, 0, 0, 0, 0}
	reverse := motion.Vector6{-1, 0, 0, 0, 0, 0}
	v := junctionVelocity(axes, 500, unit, reverse, 40, 30)
	if v != 0 {
		t.Fatalf("reversal junction velocity = %v, want 0", v)
	}
}

func TestJunctionVelocityRightAngleBoundedByDeviation(t *testing.T) {
	axes := testAxes(100, 50, 1000, 0.01)
	ux := motion.Vector6{1, 0, 0, 0, 0, 0}
	uy := motion.Vector6{0, 1, 0, 0, 0, 0}
	v := junctionVelocity(axes, 500, ux, uy, 40, 40)
	// theta=90deg: sin(theta/2) = sin(45deg) = 1/sqrt(2).
	sinHalf := 1 / math.Sqrt2
	want := math.Sqrt(500 * 0.01 * sinHalf / (1 - sinHalf))
	if math.Abs(v-want) > 1e-6 {
		t.Fatalf("right-angle junction velocity = %v, want %v", v, want)
	}
	if v > 40 {
		t.Fatalf("junction velocity %v exceeds cruise bound 40", v)
	}
}

func TestDeriveMoveProjectsPerAxisLimits(t *testing.T) {
	axes := testAxes(100, 50, 1000, 0.01)
	axes[motion.AxisY].FeedrateMax = 25 // tighter than X's 50
	var b motion.PlannerBuffer
	b.Unit = motion.Vector6{0.6, 0.8, 0, 0, 0, 0}
	b.Length = 10
	deriveMove(&b, axes, 500, false, motion.Vector6{}, 0)
	// cruise_vmax = min(50/0.6, 25/0.8) = min(83.3, 31.25) = 31.25
	want := 25.0 / 0.8
	if math.Abs(b.CruiseVmax-want) > 1e-6 {
		t.Fatalf("CruiseVmax = %v, want %v", b.CruiseVmax, want)
	}
	if b.EntryVmax != 0 {
		t.Fatalf("first move in queue should have zero entry velocity, got %v", b.EntryVmax)
	}
}

func TestDeltaVmaxForLengthMonotonic(t *testing.T) {
	jerk := 1000.0
	a := deltaVmaxForLength(1, jerk)
	b := deltaVmaxForLength(8, jerk)
	if !(b > a) {
		t.Fatalf("delta_vmax should grow with length: deltaVmax(1)=%v deltaVmax(8)=%v", a, b)
	}
	// length = dv^3/jerk, so dv = cbrt(length*jerk); verify round trip.
	dv := deltaVmaxForLength(8, jerk)
	length := dv * dv * dv / jerk
	if math.Abs(length-8) > 1e-6 {
		t.Fatalf("deltaVmax/length relation round trip failed: got length %v, want 8", length)
	}
}
