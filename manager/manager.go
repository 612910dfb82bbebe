// Package manager wires the gcode interpreter, arc expander, planner
// queue and segment runtime into the single Machine façade a host
// application drives (spec §4.1-4.5 end to end). Grounded on the teacher
// firmware's standalone.Manager, which performs the same
// config-load -> kinematics -> planner -> interpreter wiring, generalized
// from its fixed single-move dispatch to the full look-ahead pipeline.
package manager

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"cncmotion/core"
	"cncmotion/motion"
	"cncmotion/motion/arc"
	"cncmotion/motion/config"
	"cncmotion/motion/gcode"
	"cncmotion/motion/kinematics"
	"cncmotion/motion/planner"
	"cncmotion/motion/runtime"
	"cncmotion/motion/status"
)

// MotorPins is the platform-specific GPIO wiring for one motor output.
// Pin assignment is not part of spec §6's key table (board wiring, not
// machine configuration), so it is supplied directly by the embedding
// application rather than loaded from the config.Table.
type MotorPins struct {
	Step, Dir, Enable core.GPIOPin
	HasEnable         bool
}

// Machine is the top-level motion-pipeline façade (spec §4.1's public
// contract plus §4.3's queue-control operations).
type Machine struct {
	mu sync.Mutex

	cfg   *config.Table
	interp *gcode.Interpreter
	expander *arc.Expander
	queue *planner.Queue
	rt    *runtime.SegmentRuntime
	kin   kinematics.Kinematics

	execs []*runtime.MotorExecutor
	stop  *core.StopSync

	spindle       *core.HardwarePWM
	coolantMist   *core.DigitalOut
	coolantFlood  *core.DigitalOut

	alarmed     bool
	alarmReason string
	lastLineNo  int
	lastOKLine  int
}

// New builds a fully wired Machine from a loaded configuration table, a
// kinematics transform, and the GPIO pin assignment for each configured
// motor. pos0 is the machine's starting position (normally the zero
// vector, or a restored position from non-volatile storage).
func New(cfg *config.Table, kin kinematics.Kinematics, pins []MotorPins, pos0 motion.Vector6) (*Machine, error) {
	if len(pins) == 0 || len(pins) > motion.MaxMotors {
		return nil, errors.Errorf("manager: motor pin count %d out of range 1..%d", len(pins), motion.MaxMotors)
	}

	var axes [motion.NumAxes]motion.AxisConfig
	for i := 0; i < motion.NumAxes; i++ {
		axes[i] = cfg.AxisConfig(motion.AxisIndex(i))
	}

	motors := make([]motion.MotorConfig, len(pins))
	execs := make([]*runtime.MotorExecutor, len(pins))
	for i := range pins {
		motors[i] = cfg.MotorConfig(i + 1)
		execs[i] = runtime.NewMotorExecutor(
			motorName(i+1),
			pins[i].Step, pins[i].Dir, pins[i].Enable, pins[i].HasEnable,
			motors[i].Polarity.InvertStep, motors[i].Polarity.InvertDir,
		)
		if err := execs[i].Init(); err != nil {
			return nil, errors.Wrapf(err, "init motor %d", i+1)
		}
		execs[i].Enable()
	}

	core.InitAsyncDebug()

	stop := core.NewStopSync()
	for _, e := range execs {
		e := e
		stop.OnTrigger(func(uint8) { e.Stop() })
	}

	queue := planner.New(cfg, pos0)
	expander := arc.New(cfg, queue)
	interp := gcode.NewInterpreter(cfg, expander)
	interp.State.MachinePosition = pos0

	seg := cfg.MinSegmentTime()
	if seg <= 0 {
		seg = 0.01
	}
	rt := runtime.New(queue, kin, motors, axes, execs, seg)

	m := &Machine{
		cfg:      cfg,
		interp:   interp,
		expander: expander,
		queue:    queue,
		rt:       rt,
		kin:      kin,
		execs:    execs,
		stop:     stop,
	}
	rt.OnCommand = m.dispatchCommand
	rt.OnLineComplete = func(line int) {
		m.mu.Lock()
		m.lastOKLine = line
		m.mu.Unlock()
	}
	return m, nil
}

func motorName(n int) string {
	return "M" + string(rune('0'+n))
}

// ExecuteLine feeds one line of gcode text through the interpreter, and
// kicks the segment runtime if it had drained to idle (spec §4.1's
// execute_block public contract, extended with queue wake-up).
func (m *Machine) ExecuteLine(text string) motion.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alarmed || core.IsShutdown() {
		return motion.StatusCommandNotAccepted
	}
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return motion.StatusOK
	}
	st := m.interp.ExecuteBlock(text)
	if st == motion.StatusOK {
		m.rt.Kick()
	} else if isHardFault(st) {
		m.raiseAlarm(st.String())
	}
	return st
}

// RunReader streams newline-delimited gcode from r, calling onStatus
// after every line (so a CLI can print "ok"/error responses as the
// teacher firmware's ProcessByte/SendResponse loop does).
func (m *Machine) RunReader(r io.Reader, onStatus func(line string, st motion.Status)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		st := m.ExecuteLine(line)
		if onStatus != nil {
			onStatus(line, st)
		}
	}
	return sc.Err()
}

// Feedhold marks the planner queue held, so the segment runtime loads no
// further buffer until Resume. The running move is not decelerated: it
// finishes at its planned profile before motion stops.
func (m *Machine) Feedhold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.Feedhold()
}

// Resume clears a feedhold and resumes normal dispatch.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.Resume()
	m.rt.Kick()
}

// FlushQueue discards every non-running buffer (spec §4.1's flush_queue
// contract), e.g. in response to a cancel while holding.
func (m *Machine) FlushQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.FlushQueue()
}

// Abort stops all motion immediately and raises a hard alarm; only
// ClearAlarm can bring the machine back to a commandable state.
func (m *Machine) Abort(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop.Trigger(1)
	m.queue.FlushQueue()
	m.raiseAlarm(reason)
	core.TryShutdown(reason)
}

func (m *Machine) raiseAlarm(reason string) {
	m.alarmed = true
	m.alarmReason = reason
}

// ClearAlarm unlatches a soft alarm after the caller has confirmed it is
// safe to resume (spec §7: alarm clears require an explicit operator
// action, never an automatic retry).
func (m *Machine) ClearAlarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alarmed = false
	m.alarmReason = ""
	m.stop.Reset()
	for _, e := range m.execs {
		e := e
		m.stop.OnTrigger(func(uint8) { e.Stop() })
	}
	core.ClearShutdown()
}

// GoToParked drives a traverse to the stored G28 (which=0) or G30
// (which=1) parked position (spec §4.1's non-motion contract point).
func (m *Machine) GoToParked(which int) motion.Status {
	code := "G28"
	if which == 1 {
		code = "G30"
	}
	return m.ExecuteLine(code)
}

// Status renders a full status report (spec §6).
func (m *Machine) Status() status.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.interp.State
	rep := status.Report{
		LineNo:          m.lastOKLine,
		MachinePosition: st.MachinePosition,
		WorkPosition:    st.MachinePosition.Add(st.WorkOffset()),
		WorkOffset:      st.WorkOffset(),
		Units:           st.Units,
		CoordSystem:     st.CoordSystem,
		MotionMode:      st.MotionMode,
		Plane:           st.Plane,
		DistanceMode:    st.DistanceMode,
		FeedRateMode:    st.FeedRateMode,
		Homed:           st.Homed,
	}
	switch {
	case m.alarmed:
		rep.Machine = status.MachineAlarm
		rep.AlarmReason = m.alarmReason
	case m.queue.Held():
		rep.Machine = status.MachineHold
	case m.rt.Idle():
		rep.Machine = status.MachineIdle
	default:
		rep.Machine = status.MachineRun
	}
	return rep
}

// SetSpindle wires a hardware PWM output to drive spindle speed commands
// (M3/M4's S-word). Optional: spindle control is board wiring, not part
// of spec.md's config key table.
func (m *Machine) SetSpindle(p *core.HardwarePWM) { m.spindle = p }

// SetCoolant wires digital outputs for M7 (mist) and M8 (flood).
func (m *Machine) SetCoolant(mist, flood *core.DigitalOut) {
	m.coolantMist, m.coolantFlood = mist, flood
}

func (m *Machine) dispatchCommand(p motion.CommandPayload) {
	switch p.ID {
	case motion.CommandProgramPause:
		m.queue.Feedhold()
	case motion.CommandProgramStop, motion.CommandProgramEnd:
		m.queue.FlushQueue()
	case motion.CommandSpindleOn:
		if m.spindle != nil {
			_ = m.spindle.Set(core.PWMValue(p.Values[0]))
		}
	case motion.CommandSpindleOff:
		if m.spindle != nil {
			_ = m.spindle.Set(0)
		}
	case motion.CommandCoolantMist:
		if m.coolantMist != nil {
			_ = m.coolantMist.Set(true)
		}
	case motion.CommandCoolantFlood:
		if m.coolantFlood != nil {
			_ = m.coolantFlood.Set(true)
		}
	case motion.CommandCoolantOff:
		if m.coolantMist != nil {
			_ = m.coolantMist.Set(false)
		}
		if m.coolantFlood != nil {
			_ = m.coolantFlood.Set(false)
		}
	}
}

// isHardFault reports whether a status represents a condition the
// operator must clear explicitly rather than just retry the line (spec
// §7's fatal/hard-fault tier).
func isHardFault(st motion.Status) bool {
	switch st {
	case motion.StatusBufferFullFatal, motion.StatusPlannerAssertionFailure,
		motion.StatusMemoryFault, motion.StatusInternalError,
		motion.StatusInitializationFail, motion.StatusAlarmed,
		motion.StatusHomingFailed, motion.StatusSoftLimitExceeded:
		return true
	default:
		return false
	}
}
