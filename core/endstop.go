// Endstop polling, adapted from the teacher firmware's GPIO endstop
// protocol. Homing/jogging cycles are external callers of the core (per
// the motion-pipeline spec); this package only exposes the debounced
// trigger predicate they poll, not the homing cycle itself.
package core

// Endstop is a debounced digital input used by an external homing caller
// to detect a mechanical/optical/hall-effect limit switch.
type Endstop struct {
	Pin          GPIOPin
	TriggerHigh  bool // pin level considered "triggered"
	SampleCount  uint8
	consecutive  uint8
}

// NewEndstop configures pin as a pulled input. pullUp selects pull-up vs
// pull-down; triggerHigh selects which level counts as triggered.
func NewEndstop(pin GPIOPin, pullUp, triggerHigh bool, sampleCount uint8) (*Endstop, error) {
	var err error
	if pullUp {
		err = MustGPIO().ConfigureInputPullUp(pin)
	} else {
		err = MustGPIO().ConfigureInputPullDown(pin)
	}
	if err != nil {
		return nil, err
	}
	if sampleCount == 0 {
		sampleCount = 1
	}
	return &Endstop{Pin: pin, TriggerHigh: triggerHigh, SampleCount: sampleCount}, nil
}

// Poll samples the pin once and returns true once SampleCount consecutive
// samples agree the switch is triggered. Call it repeatedly from the
// foreground homing loop; a single noisy read cannot fire a false trigger.
func (e *Endstop) Poll() bool {
	level := MustGPIO().ReadPin(e.Pin)
	if level == e.TriggerHigh {
		e.consecutive++
	} else {
		e.consecutive = 0
	}
	return e.consecutive >= e.SampleCount
}

// Reset clears the debounce counter, e.g. after backing off a switch.
func (e *Endstop) Reset() {
	e.consecutive = 0
}
