// Package arc expands G2/G3 circular/helical moves into straight-line
// segments meeting a chordal-tolerance bound (spec §4.2).
package arc

import (
	"math"

	"cncmotion/motion"
	"cncmotion/motion/config"
)

// Expander implements motion.PrimitiveSink: it forwards straight moves
// unchanged to its inner sink, and expands arc requests into a sequence
// of straight feeds.
type Expander struct {
	cfg  *config.Table
	sink motion.LineSink
}

// New wires an expander against the configuration table (for chordal
// tolerance and minimum-segment-time) and the line sink it feeds — the
// planner queue in the full pipeline.
func New(cfg *config.Table, sink motion.LineSink) *Expander {
	return &Expander{cfg: cfg, sink: sink}
}

func (e *Expander) StraightFeed(target motion.Vector6, feedRate float64) motion.Status {
	return e.sink.StraightFeed(target, feedRate)
}

func (e *Expander) StraightTraverse(target motion.Vector6) motion.Status {
	return e.sink.StraightTraverse(target)
}

func (e *Expander) Dwell(seconds float64) motion.Status {
	return e.sink.Dwell(seconds)
}

func (e *Expander) QueueCommand(p motion.CommandPayload) motion.Status {
	return e.sink.QueueCommand(p)
}

// ArcFeed implements spec §4.2's algorithm steps 1-8.
func (e *Expander) ArcFeed(req motion.ArcRequest) motion.Status {
	a0, a1, helical := planeAxes(req.Plane)

	start0, start1 := req.Start[a0], req.Start[a1]
	var centerOff0, centerOff1 float64
	var radius float64
	fullCircle := false

	if req.RadiusPresent {
		if !req.TargetPresent[a0] && !req.TargetPresent[a1] {
			return motion.StatusArcSpecError
		}
		end0, end1 := req.Target[a0], req.Target[a1]
		dx, dy := end0-start0, end1-start1
		d2 := dx*dx + dy*dy
		if d2 < 1e-12 {
			return motion.StatusArcEndpointEqualsStart
		}
		r := req.Radius
		clockwise := req.MotionMode == motion.MotionArcCW
		// §4.2 step 2: h = sqrt(r^2 - d^2/4) / sqrt(d^2) · (x,y) rotated 90deg.
		rAbs := math.Abs(r)
		hh := rAbs*rAbs - d2/4
		if hh < 0 {
			return motion.StatusArcRadiusOutOfTolerance
		}
		h := math.Sqrt(hh) / math.Sqrt(d2)
		// Perpendicular to the chord, rotated 90 degrees: (-dy, dx).
		midX, midY := (start0+end0)/2, (start1+end1)/2
		perpX, perpY := -dy, dx
		sign := 1.0
		// negative r selects the long arc; CW flips which side the center sits on.
		negateForLongArc := r < 0
		negateForCW := clockwise
		if negateForLongArc {
			sign = -sign
		}
		if negateForCW {
			sign = -sign
		}
		centerX := midX + sign*h*perpX
		centerY := midY + sign*h*perpY
		centerOff0 = centerX - start0
		centerOff1 = centerY - start1
		radius = rAbs
	} else {
		if !req.OffsetPresent[planeOffsetIndex(a0)] && !req.OffsetPresent[planeOffsetIndex(a1)] {
			return motion.StatusArcOffsetsMissingForPlane
		}
		centerOff0 = req.Offsets[planeOffsetIndex(a0)]
		centerOff1 = req.Offsets[planeOffsetIndex(a1)]
		startRadius := math.Hypot(centerOff0, centerOff1)

		if !req.TargetPresent[a0] && !req.TargetPresent[a1] {
			fullCircle = true
			radius = startRadius
		} else {
			end0, end1 := req.Target[a0], req.Target[a1]
			endOff0 := end0 - start0 - centerOff0
			endOff1 := end1 - start1 - centerOff1
			endRadius := math.Hypot(endOff0, endOff1)
			diff := math.Abs(endRadius - startRadius)
			const arcRadiusErrorMax = 0.05
			const arcRadiusErrorMin = 0.0005
			const arcRadiusTolerance = 0.001
			bound := arcRadiusErrorMin
			if v := startRadius * arcRadiusTolerance; v > bound {
				bound = v
			}
			if diff > arcRadiusErrorMax && diff > bound {
				return motion.StatusArcSpecError
			}
			radius = startRadius
		}
	}

	if radius < 1e-4 {
		return motion.StatusArcRadiusOutOfTolerance
	}

	theta0 := math.Atan2(-centerOff1, -centerOff0)
	clockwise := req.MotionMode == motion.MotionArcCW

	var travel float64
	if fullCircle {
		rot := req.RotationsP
		if !req.RotationsPresent || rot <= 0 {
			rot = 1
		}
		travel = 2 * math.Pi * float64(rot)
		if clockwise {
			travel = -travel
		}
	} else {
		end0, end1 := req.Target[a0], req.Target[a1]
		centerX := start0 + centerOff0
		centerY := start1 + centerOff1
		theta1 := math.Atan2(end1-centerY, end0-centerX)
		travel = theta1 - theta0
		if clockwise {
			for travel >= 0 {
				travel -= 2 * math.Pi
			}
		} else {
			for travel <= 0 {
				travel += 2 * math.Pi
			}
		}
		if req.RotationsPresent && req.RotationsP > 1 {
			extra := 2 * math.Pi * float64(req.RotationsP-1)
			if clockwise {
				travel -= extra
			} else {
				travel += extra
			}
		}
	}

	// REDESIGN FLAG / design note: later revisions apply a sign-flip fix
	// for G18 (XZ plane) CW/CCW orientation; followed here.
	if req.Plane == motion.PlaneXZ {
		travel = -travel
	}

	linearDelta := 0.0
	if req.TargetPresent[helical] {
		linearDelta = req.Target[helical] - req.Start[helical]
	}

	planarLength := math.Abs(travel) * radius
	length := math.Hypot(planarLength, linearDelta)
	if length < 1e-6 {
		return motion.StatusMinimumLengthMove
	}

	plannedTime := arcPlannedTime(req, length)

	c := e.cfg.ChordalTolerance()
	var chordalSegments int
	if c > 0 && 2*radius > c {
		denom := math.Sqrt(4 * c * (2*radius - c))
		if denom > 0 {
			chordalSegments = int(planarLength / denom)
		}
	}
	minSegTime := e.cfg.MinSegmentTime()
	var timeSegments int
	if minSegTime > 0 {
		timeSegments = int(plannedTime / minSegTime)
	}
	segments := chordalSegments
	if timeSegments > 0 && (segments == 0 || timeSegments < segments) {
		segments = timeSegments
	}
	if segments < 1 {
		segments = 1
	}

	center := motion.Vector6{}
	center[a0] = start0 + centerOff0
	center[a1] = start1 + centerOff1

	dTheta := travel / float64(segments)
	dLinear := linearDelta / float64(segments)

	// Any other axis commanded alongside the arc (e.g. a rotary axis)
	// moves in lockstep, linearly across the segments.
	var otherDelta motion.Vector6
	for i := 0; i < motion.NumAxes; i++ {
		if i == a0 || i == a1 || i == helical {
			continue
		}
		if req.TargetPresent[i] {
			otherDelta[i] = (req.Target[i] - req.Start[i]) / float64(segments)
		}
	}

	prev := req.Start
	feedRate := req.FeedRate

	for s := 1; s <= segments; s++ {
		theta := theta0 + dTheta*float64(s)
		point := req.Start
		point[a0] = center[a0] + radius*math.Cos(theta)
		point[a1] = center[a1] + radius*math.Sin(theta)
		point[helical] = req.Start[helical] + dLinear*float64(s)
		for i := 0; i < motion.NumAxes; i++ {
			if i == a0 || i == a1 || i == helical {
				continue
			}
			point[i] = req.Start[i] + otherDelta[i]*float64(s)
		}
		segFeed := feedRate
		if req.InverseTime {
			segLen := point.Sub(prev).Length()
			segTime := plannedTime / float64(segments)
			if segTime > 0 {
				segFeed = segLen / segTime
			}
		}
		if st := e.sink.StraightFeed(point, segFeed); st != motion.StatusOK {
			return st
		}
		prev = point
	}
	return motion.StatusOK
}

func arcPlannedTime(req motion.ArcRequest, length float64) float64 {
	if req.InverseTime && req.FeedRate > 0 {
		return 60.0 / req.FeedRate // F is 1/minutes; convert to seconds
	}
	if req.FeedRate > 0 {
		return length / req.FeedRate
	}
	return length
}

func planeAxes(p motion.Plane) (a0, a1, helical int) {
	switch p {
	case motion.PlaneXY:
		return int(motion.AxisX), int(motion.AxisY), int(motion.AxisZ)
	case motion.PlaneXZ:
		return int(motion.AxisX), int(motion.AxisZ), int(motion.AxisY)
	default: // PlaneYZ
		return int(motion.AxisY), int(motion.AxisZ), int(motion.AxisX)
	}
}

// planeOffsetIndex maps a plane axis (X/Y/Z) to its I/J/K offset slot.
func planeOffsetIndex(axis int) int {
	switch motion.AxisIndex(axis) {
	case motion.AxisX:
		return 0
	case motion.AxisY:
		return 1
	default:
		return 2
	}
}
