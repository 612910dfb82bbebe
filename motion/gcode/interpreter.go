package gcode

import (
	"math"

	"cncmotion/motion"
	"cncmotion/motion/config"
)

const minArcRadius = 1e-4

// Interpreter lexes blocks, maintains modal state, resolves targets, and
// drives a motion.PrimitiveSink with canonical primitives (spec §4.1).
type Interpreter struct {
	State *motion.GcodeState
	cfg   *config.Table
	sink  motion.PrimitiveSink
}

// NewInterpreter wires an interpreter against a configuration table and
// the sink that will receive canonical primitives (normally the arc
// expander, which forwards straight moves on to the planner queue).
func NewInterpreter(cfg *config.Table, sink motion.PrimitiveSink) *Interpreter {
	state := motion.NewGcodeState()
	d := cfg.GcodeDefaults()
	state.ApplyDefaults(d.Plane, d.Units, d.CoordSystem, d.PathControl, d.DistanceMode)
	return &Interpreter{State: state, cfg: cfg, sink: sink}
}

// SetUnits, SetPlane, SetCoordSystem, SetDistanceMode, SetFeedRate are the
// direct modal-state mutators from the public contract (spec §4.1); they
// never produce motion.
func (in *Interpreter) SetUnits(u motion.Units)                   { in.State.Units = u }
func (in *Interpreter) SetPlane(p motion.Plane)                   { in.State.Plane = p }
func (in *Interpreter) SetCoordSystem(cs motion.CoordSystem)      { in.State.CoordSystem = cs }
func (in *Interpreter) SetDistanceMode(m motion.DistanceMode)     { in.State.DistanceMode = m }
func (in *Interpreter) SetFeedRate(mmPerSec float64)              { in.State.FeedRate = mmPerSec }

// ExecuteBlock parses and executes one line of gcode text (spec §4.1
// execute_block public contract). On any non-ok status the modal state is
// left exactly as it was before the call.
func (in *Interpreter) ExecuteBlock(text string) motion.Status {
	block, err := lex(text)
	if err != nil {
		return motion.StatusBadNumberFormat
	}
	if len(block.Words) == 0 {
		return motion.StatusOK
	}

	work := in.State.Clone()

	var gWords []gWord
	var seen [groupNonModal + 1]bool
	var mWords []Word
	var axisPresent [motion.NumAxes]bool
	var axisValue [motion.NumAxes]float64
	var offsetPresent [3]bool
	var offsets [3]float64
	haveR, haveF, haveP, haveS := false, false, false, false
	var rValue, fValue, pValue, sValue float64
	var tWord *Word

	for _, w := range block.Words {
		switch w.Letter {
		case 'G':
			g := classifyG(w.Value)
			if g.group != groupNone {
				if seen[g.group] {
					return motion.StatusModalGroupViolation
				}
				seen[g.group] = true
			}
			gWords = append(gWords, g)
		case 'M':
			mWords = append(mWords, w)
		case 'F':
			haveF, fValue = true, w.Value
		case 'P':
			haveP, pValue = true, w.Value
		case 'S':
			haveS, sValue = true, w.Value
		case 'N':
			// line number; accepted and ignored (not stored or passed on)
		case 'R':
			haveR, rValue = true, w.Value
		case 'I':
			offsetPresent[0], offsets[0] = true, w.Value
		case 'J':
			offsetPresent[1], offsets[1] = true, w.Value
		case 'K':
			offsetPresent[2], offsets[2] = true, w.Value
		case 'T':
			tw := w
			tWord = &tw
		default:
			if axis, ok := motion.AxisLetter(w.Letter); ok {
				axisPresent[axis] = true
				axisValue[axis] = w.Value
			}
		}
	}

	applyNonMotionSetters(&work, gWords)

	for _, g := range gWords {
		if g.group != groupNonModal {
			continue
		}
		switch {
		case near(g.code, 4):
			seconds := pValue
			if !haveP {
				seconds = 0
			}
			st := in.sink.Dwell(seconds)
			if st == motion.StatusOK {
				in.State.Restore(work)
			}
			return st
		case near(g.code, 28.1):
			work.Parked[0] = work.MachinePosition
		case near(g.code, 28), near(g.code, 30):
			target := in.State.Parked[0]
			if near(g.code, 30) {
				target = in.State.Parked[1]
			}
			st := in.sink.StraightTraverse(target)
			if st == motion.StatusOK {
				work.MachinePosition = target
				in.State.Restore(work)
			}
			return st
		case near(g.code, 30.1):
			work.Parked[1] = work.MachinePosition
		case near(g.code, 92.1):
			work.G92Offset = motion.Vector6{}
		case near(g.code, 92):
			coordOffset := work.WorkOffset().Sub(work.G92Offset)
			for i := 0; i < motion.NumAxes; i++ {
				if axisPresent[i] {
					cmd := axisCommand(i, axisValue[i], work.Units, in.cfg)
					work.G92Offset[i] = cmd - work.MachinePosition[i] - coordOffset[i]
				}
			}
		}
	}

	for _, g := range gWords {
		if g.group == groupMotion {
			work.MotionMode = motionModeFromCode(g.code)
		}
	}

	anyAxisOrOffset := false
	for i := 0; i < motion.NumAxes; i++ {
		if axisPresent[i] {
			anyAxisOrOffset = true
		}
	}
	if offsetPresent[0] || offsetPresent[1] || offsetPresent[2] || haveR {
		anyAxisOrOffset = true
	}
	isArcMode := work.MotionMode == motion.MotionArcCW || work.MotionMode == motion.MotionArcCCW
	if isArcMode && !anyAxisOrOffset && len(mWords) == 0 {
		if haveF {
			work.FeedRate = resolveFeed(work, haveF, fValue)
		}
		in.State.Restore(work)
		return motion.StatusOK
	}

	if haveF {
		work.FeedRate = resolveFeed(work, haveF, fValue)
	}

	spindleSpeed := 0.0
	if haveS {
		spindleSpeed = sValue
	}
	status := in.dispatchMCodes(&work, mWords, tWord, spindleSpeed)
	if status != motion.StatusOK {
		return status
	}

	switch work.MotionMode {
	case motion.MotionTraverse, motion.MotionFeed:
		target := in.resolveTarget(work, axisPresent, axisValue)
		if st := in.checkSoftLimits(target, axisPresent); st != motion.StatusOK {
			return st
		}
		if !anyMoved(work.MachinePosition, target) {
			in.State.Restore(work)
			return motion.StatusOK
		}
		var st motion.Status
		if work.MotionMode == motion.MotionTraverse {
			st = in.sink.StraightTraverse(target)
		} else {
			if work.FeedRateMode == motion.FeedRatePerMinute && work.FeedRate <= 0 {
				return motion.StatusFeedrateMissing
			}
			feed := work.FeedRate
			if work.FeedRateMode == motion.FeedRateInverseTime {
				feed = inverseTimeVelocity(work.FeedRate, target.Sub(work.MachinePosition).Length())
			}
			st = in.sink.StraightFeed(target, feed)
		}
		if st != motion.StatusOK {
			return st
		}
		work.MachinePosition = target
		in.State.Restore(work)
		return motion.StatusOK

	case motion.MotionArcCW, motion.MotionArcCCW:
		if work.FeedRateMode == motion.FeedRatePerMinute && work.FeedRate <= 0 {
			return motion.StatusFeedrateMissing
		}
		target := in.resolveTarget(work, axisPresent, axisValue)
		req := motion.ArcRequest{
			Start:            work.MachinePosition,
			Target:           target,
			TargetPresent:    axisPresent,
			Offsets:          offsets,
			OffsetPresent:    offsetPresent,
			Radius:           rValue,
			RadiusPresent:    haveR,
			RotationsP:       int(pValue),
			RotationsPresent: haveP,
			MotionMode:       work.MotionMode,
			FeedRate:         work.FeedRate,
			InverseTime:      work.FeedRateMode == motion.FeedRateInverseTime,
			Plane:            work.Plane,
		}
		if err := validateArcRequest(req); err != motion.StatusOK {
			return err
		}
		st := in.sink.ArcFeed(req)
		if st != motion.StatusOK {
			return st
		}
		work.MachinePosition = target
		in.State.Restore(work)
		return motion.StatusOK

	default:
		in.State.Restore(work)
		return motion.StatusOK
	}
}

func resolveFeed(work motion.GcodeState, have bool, value float64) float64 {
	if !have {
		return work.FeedRate
	}
	if work.FeedRateMode == motion.FeedRateInverseTime {
		return value
	}
	return toMM(work.Units, value) / 60.0
}

// inverseTimeVelocity resolves a G93 inverse-time F word (complete this
// move in 1/F minutes) to an actual cruise velocity, mirroring
// arc.arcPlannedTime's "60.0 / FeedRate" conversion for the straight-line
// path: planned time is 60/f seconds, so velocity is length/time.
func inverseTimeVelocity(f, length float64) float64 {
	if f <= 0 {
		return 0
	}
	return length * f / 60.0
}

func axisCommand(axis int, value float64, units motion.Units, cfg *config.Table) float64 {
	a := motion.AxisIndex(axis)
	if a.IsRotary() {
		ac := cfg.AxisConfig(a)
		if ac.Mode == motion.AxisRadiusMode && ac.Radius > 0 {
			lenMM := toMM(units, value)
			return lenMM / ac.Radius * (180.0 / math.Pi)
		}
		return value
	}
	return toMM(units, value)
}

func (in *Interpreter) resolveTarget(work motion.GcodeState, present [motion.NumAxes]bool, value [motion.NumAxes]float64) motion.Vector6 {
	target := work.MachinePosition
	offset := work.WorkOffset()
	for i := 0; i < motion.NumAxes; i++ {
		if !present[i] {
			continue
		}
		cmd := axisCommand(i, value[i], work.Units, in.cfg)
		if work.DistanceMode == motion.DistanceAbsolute {
			target[i] = cmd - offset[i]
		} else {
			target[i] = work.MachinePosition[i] + cmd
		}
	}
	return target
}

func (in *Interpreter) checkSoftLimits(target motion.Vector6, present [motion.NumAxes]bool) motion.Status {
	for i := 0; i < motion.NumAxes; i++ {
		if !present[i] {
			continue
		}
		ac := in.cfg.AxisConfig(motion.AxisIndex(i))
		if !ac.SoftLimitOK(target[i]) {
			return motion.StatusMaxTravelExceeded
		}
	}
	return motion.StatusOK
}

func anyMoved(a, b motion.Vector6) bool {
	const eps = 1e-6
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > eps {
			return true
		}
	}
	return false
}

func validateArcRequest(req motion.ArcRequest) motion.Status {
	if req.RadiusPresent {
		if math.Abs(req.Radius) < minArcRadius {
			return motion.StatusArcRadiusOutOfTolerance
		}
		return motion.StatusOK
	}
	a0, a1 := planeAxes(req.Plane)
	if !req.OffsetPresent[a0] && !req.OffsetPresent[a1] {
		return motion.StatusArcOffsetsMissingForPlane
	}
	return motion.StatusOK
}

// planeAxes returns the index-into-{I,J,K} pair active for the given plane.
func planeAxes(p motion.Plane) (int, int) {
	switch p {
	case motion.PlaneXY:
		return 0, 1
	case motion.PlaneXZ:
		return 0, 2
	default: // PlaneYZ
		return 1, 2
	}
}

func (in *Interpreter) dispatchMCodes(work *motion.GcodeState, mWords []Word, tWord *Word, spindleSpeed float64) motion.Status {
	for _, m := range mWords {
		var cmd motion.CommandPayload
		switch m.Value {
		case 0:
			cmd = motion.CommandPayload{ID: motion.CommandProgramPause}
		case 1:
			cmd = motion.CommandPayload{ID: motion.CommandProgramPause}
		case 2:
			cmd = motion.CommandPayload{ID: motion.CommandProgramStop}
		case 30:
			cmd = motion.CommandPayload{ID: motion.CommandProgramEnd}
		case 3:
			cmd = motion.CommandPayload{ID: motion.CommandSpindleOn, Values: motion.Vector6{spindleSpeed, 1}}
		case 4:
			cmd = motion.CommandPayload{ID: motion.CommandSpindleOn, Values: motion.Vector6{spindleSpeed, -1}}
		case 5:
			cmd = motion.CommandPayload{ID: motion.CommandSpindleOff}
		case 7:
			cmd = motion.CommandPayload{ID: motion.CommandCoolantMist}
		case 8:
			cmd = motion.CommandPayload{ID: motion.CommandCoolantFlood}
		case 9:
			cmd = motion.CommandPayload{ID: motion.CommandCoolantOff}
		default:
			continue
		}
		if st := in.sink.QueueCommand(cmd); st != motion.StatusOK {
			return st
		}
	}
	if tWord != nil {
		cmd := motion.CommandPayload{ID: motion.CommandToolChange, Values: motion.Vector6{tWord.Value}}
		if st := in.sink.QueueCommand(cmd); st != motion.StatusOK {
			return st
		}
	}
	return motion.StatusOK
}
