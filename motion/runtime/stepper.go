// Package runtime drives the segment interpolator and the per-motor
// step generators: the last stage of the pipeline, consuming planner
// buffers and producing step/dir pulses (spec §4.4/§4.5).
//
// MotorExecutor is adapted from the teacher firmware's
// standalone/stepgen.Stepper: it keeps the same timer-scheduled
// step/step-down pulse pair, but instead of a single MoveTo(target,
// velocity) call computed once, it tracks a continuously updated
// commanded rate so the segment runtime can steer it through an entire
// jerk-limited velocity profile one micro-segment at a time.
package runtime

import (
	"math"

	"cncmotion/core"
)

const stepPulseUs = 2

// MotorExecutor generates step/dir/enable pulses for one physical motor
// output at a continuously commanded step rate.
type MotorExecutor struct {
	name string

	stepPin core.GPIOPin
	dirPin  core.GPIOPin
	enPin   core.GPIOPin
	hasEn   bool

	invertStep bool
	invertDir  bool

	position     int64   // emitted step count
	rate         float64 // commanded signed steps/s
	stepInterval uint32   // ticks between steps at the current rate
	nextStepTime uint32
	timer        core.Timer
	active       bool
	dirHigh      bool
}

// NewMotorExecutor wires a motor executor against already-configured GPIO
// pins. hasEnable selects whether an enable pin is driven.
func NewMotorExecutor(name string, stepPin, dirPin, enPin core.GPIOPin, hasEnable, invertStep, invertDir bool) *MotorExecutor {
	m := &MotorExecutor{
		name:       name,
		stepPin:    stepPin,
		dirPin:     dirPin,
		enPin:      enPin,
		hasEn:      hasEnable,
		invertStep: invertStep,
		invertDir:  invertDir,
	}
	m.timer = core.Timer{Handler: m.stepHandler}
	return m
}

// Init configures the GPIO pins this executor drives.
func (m *MotorExecutor) Init() error {
	gpio := core.MustGPIO()
	if err := gpio.ConfigureOutput(m.stepPin); err != nil {
		return err
	}
	if err := gpio.ConfigureOutput(m.dirPin); err != nil {
		return err
	}
	if m.hasEn {
		if err := gpio.ConfigureOutput(m.enPin); err != nil {
			return err
		}
		_ = gpio.SetPin(m.enPin, false)
	}
	return nil
}

// Enable energizes the motor windings.
func (m *MotorExecutor) Enable() {
	if m.hasEn {
		_ = core.MustGPIO().SetPin(m.enPin, true)
	}
}

// Disable de-energizes the motor windings.
func (m *MotorExecutor) Disable() {
	if m.hasEn {
		_ = core.MustGPIO().SetPin(m.enPin, false)
	}
	m.active = false
}

// SetRate updates the commanded signed step rate (steps/s). A rate of
// (near) zero stops pulse generation without disabling the motor.
func (m *MotorExecutor) SetRate(stepsPerSec float64) {
	m.rate = stepsPerSec
	mag := math.Abs(stepsPerSec)
	if mag < 1e-6 {
		m.active = false
		return
	}

	dirHigh := stepsPerSec > 0
	if m.invertDir {
		dirHigh = !dirHigh
	}
	if dirHigh != m.dirHigh || !m.active {
		m.dirHigh = dirHigh
		_ = core.MustGPIO().SetPin(m.dirPin, dirHigh)
	}

	m.stepInterval = uint32(float64(core.TimerFreq) / mag)
	if m.stepInterval == 0 {
		m.stepInterval = 1
	}
	if !m.active {
		m.active = true
		m.nextStepTime = core.GetTime() + m.stepInterval
		m.timer.WakeTime = m.nextStepTime
		m.timer.Handler = m.stepHandler
		core.ScheduleTimer(&m.timer)
	}
}

// Stop halts pulse generation immediately.
func (m *MotorExecutor) Stop() {
	m.active = false
	m.rate = 0
}

// Position returns the net signed step count emitted so far.
func (m *MotorExecutor) Position() int64 { return m.position }

// SetPosition resets the emitted step count (homing, G92-style resync).
func (m *MotorExecutor) SetPosition(steps int64) { m.position = steps }

func (m *MotorExecutor) stepHandler(t *core.Timer) uint8 {
	if !m.active {
		return core.SF_DONE
	}
	level := true
	if m.invertStep {
		level = false
	}
	_ = core.MustGPIO().SetPin(m.stepPin, level)
	if m.rate > 0 {
		m.position++
	} else {
		m.position--
	}
	t.WakeTime = core.GetTime() + core.TimerFromUS(stepPulseUs)
	t.Handler = m.stepDownHandler
	return core.SF_RESCHEDULE
}

func (m *MotorExecutor) stepDownHandler(t *core.Timer) uint8 {
	level := false
	if m.invertStep {
		level = true
	}
	_ = core.MustGPIO().SetPin(m.stepPin, level)
	if !m.active {
		return core.SF_DONE
	}
	m.nextStepTime += m.stepInterval
	t.WakeTime = m.nextStepTime
	t.Handler = m.stepHandler
	return core.SF_RESCHEDULE
}
