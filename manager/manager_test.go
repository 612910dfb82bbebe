package manager

import (
	"testing"

	"cncmotion/core"
	"cncmotion/motion"
	"cncmotion/motion/config"
	"cncmotion/motion/kinematics"
)

// memGPIO is an in-memory core.GPIODriver used by every manager test so
// the pipeline can run without real hardware attached.
type memGPIO struct {
	state map[core.GPIOPin]bool
}

func newMemGPIO() *memGPIO { return &memGPIO{state: make(map[core.GPIOPin]bool)} }

func (g *memGPIO) ConfigureOutput(pin core.GPIOPin) error        { g.state[pin] = false; return nil }
func (g *memGPIO) ConfigureInputPullUp(pin core.GPIOPin) error   { g.state[pin] = true; return nil }
func (g *memGPIO) ConfigureInputPullDown(pin core.GPIOPin) error { g.state[pin] = false; return nil }
func (g *memGPIO) SetPin(pin core.GPIOPin, value bool) error     { g.state[pin] = value; return nil }
func (g *memGPIO) GetPin(pin core.GPIOPin) (bool, error)         { return g.state[pin], nil }
func (g *memGPIO) ReadPin(pin core.GPIOPin) bool                 { return g.state[pin] }

func testMachine(t *testing.T) *Machine {
	t.Helper()
	core.SetGPIODriver(newMemGPIO())
	core.SetTime(0)

	cfg := config.NewTable()
	for _, key := range []string{"Xvm", "Yvm", "Zvm"} {
		_ = cfg.SetFloat(key, 200, false)
	}
	for _, key := range []string{"Xfr", "Yfr", "Zfr"} {
		_ = cfg.SetFloat(key, 150, false)
	}
	for _, key := range []string{"Xjm", "Yjm", "Zjm"} {
		_ = cfg.SetFloat(key, 5000, false)
	}
	_ = cfg.SetFloat("ml", 0.001, false)
	_ = cfg.SetFloat("mt", 0.01, false)
	_ = cfg.SetInt("M1ma", int(motion.AxisX), false)
	_ = cfg.SetFloat("M1sa", 1.8, false)
	_ = cfg.SetInt("M1mi", 16, false)
	_ = cfg.SetFloat("M1tr", 8, false)

	pins := []MotorPins{{Step: 0, Dir: 1, Enable: 2, HasEnable: false}}
	m, err := New(cfg, kinematics.NewCartesian(), pins, motion.Vector6{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func runUntilIdle(t *testing.T, m *Machine, maxIters int) {
	t.Helper()
	for i := 0; i < maxIters; i++ {
		core.SetTime(core.GetTime() + core.TimerFromUS(10000))
		core.ProcessTimers()
		if m.rt.Idle() {
			return
		}
	}
	t.Fatal("machine never drained to idle")
}

func TestExecuteLineRunsAFeedToCompletion(t *testing.T) {
	m := testMachine(t)
	if st := m.ExecuteLine("G90 G21 G1 X10 F100"); st != motion.StatusOK {
		t.Fatalf("ExecuteLine: %v", st)
	}
	runUntilIdle(t, m, 5000)

	rep := m.Status()
	if rep.MachinePosition[motion.AxisX] < 9.99 {
		t.Fatalf("machine position after feed = %v, want ~10 on X", rep.MachinePosition)
	}
}

func TestExecuteLineRejectsWhenAlarmed(t *testing.T) {
	m := testMachine(t)
	m.Abort("test alarm")
	if st := m.ExecuteLine("G1 X10 F100"); st != motion.StatusCommandNotAccepted {
		t.Fatalf("ExecuteLine while alarmed: got %v, want StatusCommandNotAccepted", st)
	}
	m.ClearAlarm()
	if st := m.ExecuteLine("G1 X1 F100"); st != motion.StatusOK {
		t.Fatalf("ExecuteLine after ClearAlarm: %v", st)
	}
}

func TestFeedholdStopsDispatchUntilResume(t *testing.T) {
	m := testMachine(t)
	if st := m.ExecuteLine("G1 X50 F100"); st != motion.StatusOK {
		t.Fatalf("ExecuteLine: %v", st)
	}
	m.Feedhold()
	if !m.queue.Held() {
		t.Fatal("Feedhold should mark the queue held")
	}
	m.Resume()
	if m.queue.Held() {
		t.Fatal("Resume should clear the held flag")
	}
}

func TestFlushQueueDiscardsPendingMoves(t *testing.T) {
	m := testMachine(t)
	_ = m.ExecuteLine("G1 X10 F100")
	_ = m.ExecuteLine("G1 X20 F100")
	before := m.queue.Len()
	m.FlushQueue()
	after := m.queue.Len()
	if after >= before {
		t.Fatalf("FlushQueue should reduce queue length: before=%d after=%d", before, after)
	}
}
