package planner

import (
	"math"

	"cncmotion/motion"
)

// deriveMove fills in a fresh planner buffer's kinematic limits from the
// per-axis configuration, and its junction entry speed against the
// previous queued move (spec §4.3 "Per-move derivation (forward pass at
// enqueue)" and "Junction entry speed").
func deriveMove(b *motion.PlannerBuffer, axes [motion.NumAxes]motion.AxisConfig, junctionAccel float64, hasPrev bool, prevUnit motion.Vector6, prevCruiseVmax float64) {
	cruiseVmax := math.Inf(1)
	jerk := math.Inf(1)
	for i := 0; i < motion.NumAxes; i++ {
		u := math.Abs(b.Unit[i])
		if u < 1e-9 {
			continue
		}
		if axes[i].FeedrateMax > 0 {
			if v := axes[i].FeedrateMax / u; v < cruiseVmax {
				cruiseVmax = v
			}
		}
		if axes[i].JerkMax > 0 {
			if j := axes[i].JerkMax / u; j < jerk {
				jerk = j
			}
		}
	}
	if math.IsInf(cruiseVmax, 1) {
		cruiseVmax = 0
	}
	if math.IsInf(jerk, 1) {
		jerk = 0
	}
	if b.FeedRate > 0 && b.FeedRate < cruiseVmax {
		cruiseVmax = b.FeedRate
	}
	b.CruiseVmax = cruiseVmax
	b.Jerk = jerk
	b.DeltaVmax = deltaVmaxForLength(b.Length, jerk)

	if !hasPrev {
		b.EntryVmax = 0
		return
	}
	b.EntryVmax = junctionVelocity(axes, junctionAccel, prevUnit, b.Unit, prevCruiseVmax, cruiseVmax)
}

// junctionVelocity is the maximum speed two consecutive moves can share
// at their shared endpoint without exceeding the junction-deviation
// configured for the participating axes (spec §4.3 "Junction entry
// speed"):
//
//	v_junction = sqrt(accel * deviation * sin(theta/2) / (1 - sin(theta/2)))
//
// with theta the angle between the two moves' unit vectors. Collinear
// continuation (theta=0) takes the smaller cruise_vmax; any turn of more
// than 90 degrees (cos theta < 0), reversal included, forces zero.
func junctionVelocity(axes [motion.NumAxes]motion.AxisConfig, junctionAccel float64, prevUnit, unit motion.Vector6, prevCruiseVmax, cruiseVmax float64) float64 {
	cosTheta := prevUnit.Dot(unit)
	if cosTheta > 1 {
		cosTheta = 1
	}
	if cosTheta < -1 {
		cosTheta = -1
	}
	var vJunction float64
	switch {
	case cosTheta < 0:
		vJunction = 0
	case cosTheta >= 1-1e-9:
		vJunction = math.Min(prevCruiseVmax, cruiseVmax)
	default:
		// cos(theta) = u1.u2; half-angle sine from the cosine via the
		// standard identity sin(theta/2) = sqrt((1-cos theta)/2).
		sinHalf := math.Sqrt((1 - cosTheta) / 2)
		if sinHalf >= 1 {
			vJunction = 0
		} else {
			num := junctionAccel * junctionDeviation(axes, unit) * sinHalf
			den := 1 - sinHalf
			if den <= 0 {
				vJunction = 0
			} else {
				vJunction = math.Sqrt(num / den)
			}
		}
	}
	if vJunction > prevCruiseVmax {
		vJunction = prevCruiseVmax
	}
	if vJunction > cruiseVmax {
		vJunction = cruiseVmax
	}
	return vJunction
}

// junctionDeviation returns the smallest (tightest) junction deviation
// configured among the axes the move participates in. Unlike cruise_vmax
// and jerk, the values are not scaled by the unit vector.
func junctionDeviation(axes [motion.NumAxes]motion.AxisConfig, unit motion.Vector6) float64 {
	best := math.Inf(1)
	for i := 0; i < motion.NumAxes; i++ {
		if math.Abs(unit[i]) < 1e-9 {
			continue
		}
		if axes[i].JunctionDeviation > 0 && axes[i].JunctionDeviation < best {
			best = axes[i].JunctionDeviation
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

// deltaVmaxForLength is the largest Δv achievable within length under the
// jerk bound (spec §4.3): Δv = (length * jerk)^(1/3), a monotone
// increasing function of length at fixed jerk.
func deltaVmaxForLength(length, jerk float64) float64 {
	if length <= 0 || jerk <= 0 {
		return 0
	}
	return math.Cbrt(length * jerk)
}
