package gcode

import (
	"math"

	"cncmotion/motion"
)

// near compares two gcode-word numeric codes for equality allowing for the
// manual decimal scanner's rounding (spec codes like 61.1 must match
// regardless of exactly how the fractional part was accumulated).
func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// group identifies a gcode modal group (spec §4.1 "classify each into a
// Gcode modal group, detect modal-group collisions").
type group int

const (
	groupNone group = iota
	groupMotion
	groupPlane
	groupUnits
	groupDistance
	groupFeedMode
	groupPathControl
	groupCoordSystem
	groupNonModal
)

// gWord is one classified G-word: its modal group and the specific code.
type gWord struct {
	group group
	code  float64
}

func classifyG(code float64) gWord {
	in := func(candidates ...float64) bool {
		for _, c := range candidates {
			if near(code, c) {
				return true
			}
		}
		return false
	}
	switch {
	case in(0, 1, 2, 3, 80):
		return gWord{groupMotion, code}
	case in(17, 18, 19):
		return gWord{groupPlane, code}
	case in(20, 21):
		return gWord{groupUnits, code}
	case in(90, 91):
		return gWord{groupDistance, code}
	case in(93, 94):
		return gWord{groupFeedMode, code}
	case in(61, 61.1, 64):
		return gWord{groupPathControl, code}
	case in(54, 55, 56, 57, 58, 59):
		return gWord{groupCoordSystem, code}
	case in(4, 10, 28, 28.1, 30, 30.1, 92, 92.1):
		return gWord{groupNonModal, code}
	default:
		return gWord{groupNone, code}
	}
}

// applyNonMotionSetters applies every classified G-word except the motion
// word (handled last, by the caller, since it determines which primitive
// fires). Pure modal-state mutation — no motion produced (spec §4.1
// "mutate model state only; no motion produced").
func applyNonMotionSetters(state *motion.GcodeState, words []gWord) {
	for _, w := range words {
		switch w.group {
		case groupPlane:
			switch w.code {
			case 17:
				state.Plane = motion.PlaneXY
			case 18:
				state.Plane = motion.PlaneXZ
			case 19:
				state.Plane = motion.PlaneYZ
			}
		case groupUnits:
			if w.code == 20 {
				state.Units = motion.UnitsInch
			} else {
				state.Units = motion.UnitsMM
			}
		case groupDistance:
			if w.code == 90 {
				state.DistanceMode = motion.DistanceAbsolute
			} else {
				state.DistanceMode = motion.DistanceIncremental
			}
		case groupFeedMode:
			if w.code == 93 {
				state.FeedRateMode = motion.FeedRateInverseTime
			} else {
				state.FeedRateMode = motion.FeedRatePerMinute
			}
		case groupPathControl:
			switch {
			case near(w.code, 61.1):
				state.PathControl = motion.PathExactPath
			case near(w.code, 61):
				state.PathControl = motion.PathExactStop
			case near(w.code, 64):
				state.PathControl = motion.PathContinuous
			}
		case groupCoordSystem:
			state.CoordSystem = motion.CoordSystem(w.code - 54)
		}
	}
}

func motionModeFromCode(code float64) motion.MotionMode {
	switch code {
	case 0:
		return motion.MotionTraverse
	case 1:
		return motion.MotionFeed
	case 2:
		return motion.MotionArcCW
	case 3:
		return motion.MotionArcCCW
	case 80:
		return motion.MotionNone
	}
	return motion.MotionNone
}

// toMM converts a commanded linear value into millimeters per the active
// units mode (spec §4.1 "Inches are converted to mm on input").
func toMM(units motion.Units, v float64) float64 {
	if units == motion.UnitsInch {
		return v * 25.4
	}
	return v
}
