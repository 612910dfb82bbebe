package runtime

import (
	"math"

	"cncmotion/core"
	"cncmotion/motion"
	"cncmotion/motion/kinematics"
	"cncmotion/motion/planner"
)

// SegmentRuntime walks the planner queue's head buffer one micro-segment
// at a time, evaluating the jerk-limited head/body/tail velocity profile
// by distance traveled and driving each motor's commanded step rate from
// it (spec §4.4 "Segment Runtime"). It replaces the teacher firmware's
// single constant-velocity MoveTo dispatch in
// standalone/planner.Planner.executeNextMove with a profile that is
// re-evaluated every tick, so the commanded rate actually follows the
// trapezoid/triangle the trajectory planner solved rather than jumping
// straight to cruise speed.
type SegmentRuntime struct {
	queue *planner.Queue
	kin   kinematics.Kinematics
	motors []motion.MotorConfig
	axes   [motion.NumAxes]motion.AxisConfig
	execs  []*MotorExecutor

	segmentSeconds float64
	timer          core.Timer
	running        bool

	haveCurrent bool
	current     motion.PlannerBuffer
	sPos        float64
	lastSteps   []float64
	dwellLeft   float64

	// OnCommand is invoked synchronously when a MoveCommand buffer
	// reaches the head of the queue; it runs spindle/coolant/program
	// side effects (spec §4.1's QueueCommand contract).
	OnCommand func(motion.CommandPayload)
	// OnLineComplete is invoked after each buffer (line, dwell, or
	// command) finishes, reporting its source line number for status.
	OnLineComplete func(lineNo int)
}

// New wires a segment runtime against the planner queue it consumes and
// the kinematics transform + motor configuration it drives. segmentSeconds
// is the fixed micro-segment tick period (spec §9: no dynamic timer
// period selection, a single configured cadence).
func New(queue *planner.Queue, kin kinematics.Kinematics, motors []motion.MotorConfig, axes [motion.NumAxes]motion.AxisConfig, execs []*MotorExecutor, segmentSeconds float64) *SegmentRuntime {
	r := &SegmentRuntime{
		queue:          queue,
		kin:            kin,
		motors:         motors,
		axes:           axes,
		execs:          execs,
		segmentSeconds: segmentSeconds,
		lastSteps:      make([]float64, len(motors)),
	}
	r.timer = core.Timer{Handler: r.tick}
	return r
}

// Kick starts the tick loop if it is not already running. Call after
// enqueueing into a runtime that may have drained to idle.
func (r *SegmentRuntime) Kick() {
	if r.running {
		return
	}
	r.running = true
	r.timer.WakeTime = core.GetTime() + core.TimerFromUS(uint32(r.segmentSeconds*1e6))
	r.timer.Handler = r.tick
	core.ScheduleTimer(&r.timer)
}

// Idle reports whether the runtime has no current buffer and the queue
// is empty (spec §6 status report's "motion state: idle").
func (r *SegmentRuntime) Idle() bool {
	return !r.haveCurrent && r.queue.Empty()
}

func (r *SegmentRuntime) tick(t *core.Timer) uint8 {
	dt := r.segmentSeconds
	if core.IsShutdown() {
		r.running = false
		return core.SF_DONE
	}
	if !r.haveCurrent {
		if r.queue.Held() || !r.loadNext() {
			r.running = false
			return core.SF_DONE
		}
	}

	switch r.current.MoveType {
	case motion.MoveDwell:
		r.dwellLeft -= dt
		if r.dwellLeft <= 0 {
			r.finishCurrent()
		}
	case motion.MoveCommand:
		if r.OnCommand != nil {
			r.OnCommand(r.current.Command)
		}
		r.finishCurrent()
	default:
		r.stepLine(dt)
	}

	t.WakeTime = core.GetTime() + core.TimerFromUS(uint32(dt*1e6))
	return core.SF_RESCHEDULE
}

func (r *SegmentRuntime) loadNext() bool {
	head, ok := r.queue.Head()
	if !ok {
		return false
	}
	_ = r.queue.MarkRunning()
	r.current = head
	r.haveCurrent = true
	r.sPos = 0
	r.dwellLeft = head.DwellSeconds
	copy(r.lastSteps, r.kin.MotorSteps(r.current.Position, r.motors, r.axes))
	return true
}

func (r *SegmentRuntime) finishCurrent() {
	if r.OnLineComplete != nil {
		r.OnLineComplete(r.current.LineNo)
	}
	_ = r.queue.Advance()
	r.haveCurrent = false
	for _, e := range r.execs {
		e.SetRate(0)
	}
}

// stepLine advances the current line buffer by one micro-segment: it
// samples the head/body/tail profile at the current distance traveled,
// integrates position forward by v*dt, and re-derives each motor's
// commanded step rate from the resulting displacement (spec §4.4/§4.5).
func (r *SegmentRuntime) stepLine(dt float64) {
	b := &r.current
	v := profileVelocity(b.Profile, r.sPos, b.Length)
	newS := r.sPos + v*dt
	if v <= 0 && r.sPos == 0 && b.Profile.HeadLength > 0 {
		// From rest v(s)=cbrt(k*s) is zero at s=0; use the closed-form
		// distance covered in dt instead: s = (2/3*cbrt(k)*dt)^(3/2).
		k := cubeOverLen(b.Profile.CruiseVelocity-b.Profile.EntryVelocity, b.Profile.HeadLength)
		newS = math.Pow(2.0/3.0*math.Cbrt(k)*dt, 1.5)
	}
	if newS >= b.Length {
		newS = b.Length
	}

	point := b.Position.Add(b.Unit.Scale(newS))
	targets := r.kin.MotorSteps(point, r.motors, r.axes)
	for i := range r.motors {
		rate := (targets[i] - r.lastSteps[i]) / dt
		if e := r.execs[i]; e != nil {
			e.SetRate(rate)
		}
		r.lastSteps[i] = targets[i]
	}
	r.sPos = newS

	r.haveCurrent = true
	if r.sPos >= b.Length-1e-9 {
		b.Position = b.Target
		r.finishCurrent()
	}
}

// profileVelocity evaluates a solved head/body/tail profile at distance s
// into the move (spec §4.3's ramp relation s = Δv^3/jerk inverted to
// Δv = cbrt(jerk*s)).
func profileVelocity(p motion.Profile, s, length float64) float64 {
	switch {
	case s < p.HeadLength:
		if p.HeadLength <= 0 {
			return p.CruiseVelocity
		}
		jerk := cubeOverLen(p.CruiseVelocity-p.EntryVelocity, p.HeadLength)
		return p.EntryVelocity + math.Cbrt(jerk*s)
	case s < p.HeadLength+p.BodyLength:
		return p.CruiseVelocity
	default:
		sFromEnd := length - s
		if sFromEnd < 0 {
			sFromEnd = 0
		}
		if p.TailLength <= 0 {
			return p.ExitVelocity
		}
		jerk := cubeOverLen(p.CruiseVelocity-p.ExitVelocity, p.TailLength)
		return p.ExitVelocity + math.Cbrt(jerk*sFromEnd)
	}
}

// cubeOverLen recovers the effective jerk used to produce a ramp of the
// given Δv over the given length: jerk = Δv^3/length.
func cubeOverLen(dv, length float64) float64 {
	if length <= 0 {
		return 0
	}
	return dv * dv * dv / length
}
