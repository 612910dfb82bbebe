// Side-effect outputs: spindle and coolant control driven from the planner
// queue's command buffers. Grounded on the digital-out/hardware-PWM timer
// scheduling in the teacher firmware's gpio.go/pwm.go, adapted to be called
// directly from Go rather than decoded off a wire command.
package core

import "sync"

// DigitalFlags for a DigitalOut.
const (
	DF_ON         = 1 << 0 // current pin state
	DF_DEFAULT_ON = 1 << 1 // default state to fall back to on max_duration expiry
	DF_CHECK_END  = 1 << 2 // a max_duration watchdog is armed
)

// DigitalOut is a GPIO output with an optional safety max-duration cutoff,
// used for coolant mist/flood solenoids and spindle enable/direction relays.
type DigitalOut struct {
	mu           sync.Mutex
	Pin          GPIOPin
	Flags        uint8
	MaxDuration  uint32 // ticks; 0 disables the watchdog
	EndTime      uint32
	Timer        Timer
}

// NewDigitalOut configures pin as an output and sets its initial/default state.
func NewDigitalOut(pin GPIOPin, initial, defaultOn bool, maxDuration uint32) (*DigitalOut, error) {
	if err := MustGPIO().ConfigureOutput(pin); err != nil {
		return nil, err
	}
	d := &DigitalOut{Pin: pin, MaxDuration: maxDuration}
	if defaultOn {
		d.Flags |= DF_DEFAULT_ON
	}
	if err := d.Set(initial); err != nil {
		return nil, err
	}
	return d, nil
}

// Set immediately updates the pin and arms/disarms the max-duration watchdog.
func (d *DigitalOut) Set(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := MustGPIO().SetPin(d.Pin, on); err != nil {
		return err
	}
	if on {
		d.Flags |= DF_ON
	} else {
		d.Flags &^= DF_ON
	}

	if d.MaxDuration == 0 {
		return nil
	}
	defaultOn := d.Flags&DF_DEFAULT_ON != 0
	if on != defaultOn {
		d.EndTime = GetTime() + d.MaxDuration
		d.Flags |= DF_CHECK_END
		d.Timer.Next = nil
		d.Timer.WakeTime = d.EndTime
		d.Timer.Handler = d.expire
		ScheduleTimer(&d.Timer)
	} else {
		d.Flags &^= DF_CHECK_END
	}
	return nil
}

// On reports the last commanded state.
func (d *DigitalOut) On() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Flags&DF_ON != 0
}

func (d *DigitalOut) expire(t *Timer) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Flags&DF_CHECK_END == 0 {
		return SF_DONE
	}
	defaultOn := d.Flags&DF_DEFAULT_ON != 0
	_ = MustGPIO().SetPin(d.Pin, defaultOn)
	if defaultOn {
		d.Flags |= DF_ON
	} else {
		d.Flags &^= DF_ON
	}
	d.Flags &^= DF_CHECK_END
	return SF_DONE
}

// HardwarePWM is a proportional output (spindle speed, proportional
// coolant valve) with the same max-duration safety cutoff as DigitalOut.
type HardwarePWM struct {
	mu           sync.Mutex
	Pin          PWMPin
	Value        PWMValue
	DefaultValue PWMValue
	MaxDuration  uint32
	EndTime      uint32
	checkEnd     bool
	Timer        Timer
}

// NewHardwarePWM configures a PWM pin with the given cycle time.
func NewHardwarePWM(pin PWMPin, cycleTicks uint32, initial, defaultValue PWMValue, maxDuration uint32) (*HardwarePWM, error) {
	if _, err := MustPWM().ConfigureHardwarePWM(pin, cycleTicks); err != nil {
		return nil, err
	}
	p := &HardwarePWM{Pin: pin, DefaultValue: defaultValue, MaxDuration: maxDuration}
	if err := p.Set(initial); err != nil {
		return nil, err
	}
	return p, nil
}

// Set immediately applies a duty-cycle value.
func (p *HardwarePWM) Set(value PWMValue) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := MustPWM().SetDutyCycle(p.Pin, value); err != nil {
		return err
	}
	p.Value = value

	if p.MaxDuration == 0 {
		return nil
	}
	if value != p.DefaultValue {
		p.EndTime = GetTime() + p.MaxDuration
		p.checkEnd = true
		p.Timer.Next = nil
		p.Timer.WakeTime = p.EndTime
		p.Timer.Handler = p.expire
		ScheduleTimer(&p.Timer)
	} else {
		p.checkEnd = false
	}
	return nil
}

func (p *HardwarePWM) expire(t *Timer) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.checkEnd {
		return SF_DONE
	}
	_ = MustPWM().SetDutyCycle(p.Pin, p.DefaultValue)
	p.Value = p.DefaultValue
	p.checkEnd = false
	return SF_DONE
}
