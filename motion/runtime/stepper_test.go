package runtime

import (
	"testing"

	"cncmotion/core"
)

// fakeGPIO is an in-memory core.GPIODriver, standing in for real hardware
// the way cmd/cncctl's simGPIO does for the interactive console.
type fakeGPIO struct {
	state map[core.GPIOPin]bool
}

func newFakeGPIO() *fakeGPIO { return &fakeGPIO{state: make(map[core.GPIOPin]bool)} }

func (f *fakeGPIO) ConfigureOutput(pin core.GPIOPin) error         { f.state[pin] = false; return nil }
func (f *fakeGPIO) ConfigureInputPullUp(pin core.GPIOPin) error    { f.state[pin] = true; return nil }
func (f *fakeGPIO) ConfigureInputPullDown(pin core.GPIOPin) error  { f.state[pin] = false; return nil }
func (f *fakeGPIO) SetPin(pin core.GPIOPin, value bool) error      { f.state[pin] = value; return nil }
func (f *fakeGPIO) GetPin(pin core.GPIOPin) (bool, error)          { return f.state[pin], nil }
func (f *fakeGPIO) ReadPin(pin core.GPIOPin) bool                  { return f.state[pin] }

func runTicks(t *testing.T, n int, stepUs uint32) {
	t.Helper()
	for i := 0; i < n; i++ {
		core.SetTime(core.GetTime() + core.TimerFromUS(stepUs))
		core.ProcessTimers()
	}
}

func TestMotorExecutorStepsAtCommandedRate(t *testing.T) {
	core.SetGPIODriver(newFakeGPIO())
	core.SetTime(0)

	m := NewMotorExecutor("X", 0, 1, 2, false, false, false)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.Enable()

	m.SetRate(1000) // 1000 steps/s
	runTicks(t, 4000, 100)

	if m.Position() <= 0 {
		t.Fatalf("Position() = %d, want > 0 after running at a positive rate", m.Position())
	}
}

func TestMotorExecutorDirectionFlipsSign(t *testing.T) {
	core.SetGPIODriver(newFakeGPIO())
	core.SetTime(0)

	m := NewMotorExecutor("Y", 0, 1, 2, false, false, false)
	_ = m.Init()
	m.Enable()

	m.SetRate(1000)
	runTicks(t, 4000, 100)
	forward := m.Position()

	m.SetRate(-1000)
	runTicks(t, 4000, 100)
	if m.Position() >= forward {
		t.Fatalf("Position() after reversing rate = %d, want < %d", m.Position(), forward)
	}
}

func TestMotorExecutorStopHaltsPulses(t *testing.T) {
	core.SetGPIODriver(newFakeGPIO())
	core.SetTime(0)

	m := NewMotorExecutor("Z", 0, 1, 2, false, false, false)
	_ = m.Init()
	m.Enable()
	m.SetRate(1000)
	runTicks(t, 2000, 100)
	m.Stop()
	stopped := m.Position()
	runTicks(t, 2000, 100)
	if m.Position() != stopped {
		t.Fatalf("Position() changed after Stop(): %d -> %d", stopped, m.Position())
	}
}

func TestMotorExecutorSetPosition(t *testing.T) {
	core.SetGPIODriver(newFakeGPIO())
	m := NewMotorExecutor("A", 0, 1, 2, false, false, false)
	m.SetPosition(500)
	if m.Position() != 500 {
		t.Fatalf("Position() after SetPosition(500) = %d, want 500", m.Position())
	}
}
