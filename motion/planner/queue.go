// Package planner implements the look-ahead trajectory planner: a ring
// buffer of pending moves that is back-planned for braking velocity and
// forward-recomputed for entry/cruise/exit velocity and head/body/tail
// profile on every enqueue, every Advance and every Resume (spec
// §3 "Planner buffer ring" and §4.3 "Trajectory Planner").
//
// Structurally this replaces the teacher's single-move, no-lookahead
// standalone/planner/planner.go: where the teacher queues one move and
// runs it at a constant commanded velocity, this queue holds many moves
// simultaneously and continually replans the whole non-running window so
// that junction velocities stay globally consistent (spec §8's adjacent
// exit/entry velocity continuity property).
package planner

import (
	"github.com/pkg/errors"

	"cncmotion/motion"
	"cncmotion/motion/config"
)

// Capacity is the number of planner buffers held in the ring, matching
// spec §9's "fixed-size ring, no dynamic allocation" design note.
const Capacity = 32

// Queue is the look-ahead planner buffer ring. It implements
// motion.LineSink so the gcode interpreter (via the arc expander) can
// enqueue straight feeds, traverses, dwells and commands directly into
// it.
type Queue struct {
	cfg  *config.Table
	axes [motion.NumAxes]motion.AxisConfig

	buf   [Capacity]motion.PlannerBuffer
	run   int // ring index of the oldest live buffer (running or about to run)
	count int // number of live buffers starting at run

	held    bool
	lastPos motion.Vector6
	// lastExitVelocity carries the exit velocity of the most recently
	// freed (completed) buffer, so a freshly-queued head buffer's
	// junction against already-finished motion is still honored once
	// the ring has drained past it.
	lastExitVelocity float64
	lastUnit         motion.Vector6
	haveLastUnit     bool
}

// New wires a planner queue against the configuration table. pos is the
// machine's current position, used as the first move's starting point.
func New(cfg *config.Table, pos motion.Vector6) *Queue {
	q := &Queue{cfg: cfg, lastPos: pos}
	for i := 0; i < motion.NumAxes; i++ {
		q.axes[i] = cfg.AxisConfig(motion.AxisIndex(i))
	}
	return q
}

func (q *Queue) idx(offset int) int { return (q.run + offset) % Capacity }

func (q *Queue) at(offset int) *motion.PlannerBuffer { return &q.buf[q.idx(offset)] }

// Len reports the number of live buffers in the ring.
func (q *Queue) Len() int { return q.count }

// Empty reports whether the ring holds no live buffers.
func (q *Queue) Empty() bool { return q.count == 0 }

func (q *Queue) enqueue(b motion.PlannerBuffer) motion.Status {
	if q.count >= Capacity {
		return motion.StatusBufferFull
	}
	slot := q.idx(q.count)
	q.buf[slot] = b
	q.buf[slot].State = motion.BufferQueued
	q.count++
	q.replan()
	return motion.StatusOK
}

// StraightFeed implements motion.LineSink: a coordinated feed move at the
// given feed rate (units/min already resolved to units/sec by the gcode
// layer).
func (q *Queue) StraightFeed(target motion.Vector6, feedRate float64) motion.Status {
	return q.enqueueLinear(target, false, feedRate)
}

// StraightTraverse implements motion.LineSink: a rapid move at each
// participating axis's configured velocity_max.
func (q *Queue) StraightTraverse(target motion.Vector6) motion.Status {
	return q.enqueueLinear(target, true, 0)
}

func (q *Queue) enqueueLinear(target motion.Vector6, rapid bool, feedRate float64) motion.Status {
	start := q.lastPos
	delta := target.Sub(start)
	unit, length := delta.Unit()
	if length < q.cfg.MinSegmentLength() {
		return motion.StatusMinimumLengthMove
	}
	var b motion.PlannerBuffer
	b.MoveType = motion.MoveLine
	b.Rapid = rapid
	b.Target = target
	b.Position = start
	b.Unit = unit
	b.Length = length
	b.FeedRate = feedRate

	if rapid {
		b.CruiseVmax = travelVmax(q.axes, b.Unit)
		b.Jerk = travelJerk(q.axes, b.Unit)
		b.DeltaVmax = deltaVmaxForLength(length, b.Jerk)
		b.EntryVmax = q.junctionEntry(b.Unit, b.CruiseVmax)
	} else {
		hasPrev := q.haveLastUnit
		deriveMove(&b, q.axes, q.cfg.JunctionAccel(), hasPrev, q.lastUnit, q.lastCruiseVmax())
	}

	if st := q.enqueue(b); st != motion.StatusOK {
		return st
	}
	q.lastPos = target
	q.lastUnit = b.Unit
	q.haveLastUnit = true
	return motion.StatusOK
}

// Dwell implements motion.LineSink: a non-moving timed pause queued
// in-order with motion so it honors FIFO ordering against surrounding
// moves.
func (q *Queue) Dwell(seconds float64) motion.Status {
	var b motion.PlannerBuffer
	b.MoveType = motion.MoveDwell
	b.DwellSeconds = seconds
	b.Position = q.lastPos
	b.Target = q.lastPos
	return q.enqueue(b)
}

// QueueCommand implements motion.LineSink: a side-effect command (M-code,
// tool change) queued in-order with motion.
func (q *Queue) QueueCommand(p motion.CommandPayload) motion.Status {
	var b motion.PlannerBuffer
	b.MoveType = motion.MoveCommand
	b.Command = p
	b.Position = q.lastPos
	b.Target = q.lastPos
	return q.enqueue(b)
}

func (q *Queue) lastCruiseVmax() float64 {
	if q.count == 0 {
		return travelVmax(q.axes, q.lastUnit)
	}
	return q.at(q.count - 1).CruiseVmax
}

func (q *Queue) junctionEntry(unit motion.Vector6, cruiseVmax float64) float64 {
	if q.count == 0 {
		if !q.haveLastUnit {
			return 0
		}
		return junctionVelocity(q.axes, q.cfg.JunctionAccel(), q.lastUnit, unit, q.lastExitVelocity, cruiseVmax)
	}
	prev := q.at(q.count - 1)
	return junctionVelocity(q.axes, q.cfg.JunctionAccel(), prev.Unit, unit, prev.CruiseVmax, cruiseVmax)
}

func travelVmax(axes [motion.NumAxes]motion.AxisConfig, unit motion.Vector6) float64 {
	best := -1.0
	for i := 0; i < motion.NumAxes; i++ {
		u := unit[i]
		if u < 0 {
			u = -u
		}
		if u < 1e-9 || axes[i].VelocityMax <= 0 {
			continue
		}
		v := axes[i].VelocityMax / u
		if best < 0 || v < best {
			best = v
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func travelJerk(axes [motion.NumAxes]motion.AxisConfig, unit motion.Vector6) float64 {
	best := -1.0
	for i := 0; i < motion.NumAxes; i++ {
		u := unit[i]
		if u < 0 {
			u = -u
		}
		if u < 1e-9 || axes[i].JerkMax <= 0 {
			continue
		}
		j := axes[i].JerkMax / u
		if best < 0 || j < best {
			best = j
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// replan re-runs the back-planning (braking velocity) and forward
// recompute (entry/exit/cruise/profile) passes over every buffer in the
// ring that is not currently BufferRunning (spec §4.3). It is called
// after every enqueue, Advance and Resume.
func (q *Queue) replan() {
	n := q.count
	if n == 0 {
		return
	}
	first := 0
	if q.buf[q.idx(0)].State == motion.BufferRunning {
		first = 1
	}
	if first >= n {
		return
	}

	// Back pass: braking_velocity is the highest speed a move can enter
	// at and still be able to stop (or reach the next move's braking
	// velocity) by its end, propagated from the tail of the queue
	// backward.
	for i := n - 1; i >= first; i-- {
		b := q.at(i)
		if i == n-1 {
			b.BrakingVelocity = b.EntryVmax
			continue
		}
		next := q.at(i + 1)
		bv := next.BrakingVelocity + b.DeltaVmax
		if b.EntryVmax < bv {
			bv = b.EntryVmax
		}
		b.BrakingVelocity = bv
	}

	// Forward pass: derive entry/exit/cruise velocity and solve the
	// head/body/tail profile for every replannable buffer.
	prevExit := q.lastExitVelocity
	if first > 0 {
		prevExit = q.buf[q.idx(0)].Profile.ExitVelocity
	}
	for i := first; i < n; i++ {
		b := q.at(i)
		entry := b.BrakingVelocity
		if prevExit < entry {
			entry = prevExit
		}
		var exit float64
		if i < n-1 {
			next := q.at(i + 1)
			exit = entry + b.DeltaVmax
			if next.EntryVmax < exit {
				exit = next.EntryVmax
			}
			if next.BrakingVelocity < exit {
				exit = next.BrakingVelocity
			}
		} else {
			exit = 0
		}
		cruise := b.CruiseVmax
		if m := maxf(entry, exit) + b.DeltaVmax; m < cruise {
			cruise = m
		}
		if b.MoveType == motion.MoveLine || b.MoveType == motion.MoveArcLine {
			head, body, tail, peak := solveProfile(b.Length, entry, exit, cruise, b.Jerk)
			b.Profile = motion.Profile{
				HeadLength:     head,
				BodyLength:     body,
				TailLength:     tail,
				EntryVelocity:  entry,
				CruiseVelocity: peak,
				ExitVelocity:   exit,
				Time:           profileTime(head, body, tail, entry, peak, exit),
			}
		} else {
			b.Profile = motion.Profile{}
		}
		b.Replannable = true
		b.State = motion.BufferPending
		prevExit = exit
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Head returns the oldest live buffer (the next to run) without removing
// it, or false if the ring is empty.
func (q *Queue) Head() (motion.PlannerBuffer, bool) {
	if q.count == 0 {
		return motion.PlannerBuffer{}, false
	}
	return *q.at(0), true
}

// MarkRunning transitions the head buffer into BufferRunning, freezing it
// from further replanning (spec §3: the running buffer is not
// replannable).
func (q *Queue) MarkRunning() motion.Status {
	if q.count == 0 {
		return motion.StatusPlannerAssertionFailure
	}
	q.at(0).State = motion.BufferRunning
	return motion.StatusOK
}

// Advance retires the head buffer after the runtime finishes executing
// it, recording its exit velocity as the continuity baseline for the
// next buffer to reach the head, and re-running the look-ahead passes
// over what remains.
func (q *Queue) Advance() motion.Status {
	if q.count == 0 {
		return motion.StatusPlannerAssertionFailure
	}
	head := q.at(0)
	q.lastExitVelocity = head.Profile.ExitVelocity
	*head = motion.PlannerBuffer{}
	q.run = (q.run + 1) % Capacity
	q.count--
	q.replan()
	return motion.StatusOK
}

// FlushQueue discards every buffer that is not currently running (spec
// §4.1's non-motion contract point "flush_queue discards all non-running
// buffers").
func (q *Queue) FlushQueue() {
	if q.count == 0 {
		return
	}
	keepRunning := q.buf[q.idx(0)].State == motion.BufferRunning
	if keepRunning {
		running := *q.at(0)
		for i := 1; i < q.count; i++ {
			*q.at(i) = motion.PlannerBuffer{}
		}
		q.buf[q.run] = running
		q.count = 1
	} else {
		for i := 0; i < q.count; i++ {
			*q.at(i) = motion.PlannerBuffer{}
		}
		q.count = 0
	}
	q.haveLastUnit = false
}

// Feedhold marks the queue as held. The queue itself still accepts
// MarkRunning and Advance; the segment runtime checks Held and loads no
// further buffer until Resume. The running buffer is not decelerated.
func (q *Queue) Feedhold() {
	q.held = true
}

// Resume clears a feedhold and re-runs the look-ahead passes, since the
// running buffer's exit velocity target may have changed.
func (q *Queue) Resume() {
	q.held = false
	q.replan()
}

// Held reports whether a feedhold is active.
func (q *Queue) Held() bool { return q.held }

// ErrQueueFull is returned by callers that need a sentinel error rather
// than a motion.Status (e.g. the CLI layer).
var ErrQueueFull = errors.New("planner: queue full")
