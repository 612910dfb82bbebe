package main

import "cncmotion/core"

// simGPIO is a software-only core.GPIODriver for running the pipeline
// without real hardware attached: every pin read/write is tracked in
// memory. Grounded on the pin-state-table shape of the teacher firmware's
// target drivers (targets/*/stepper_gpio.go), minus the actual register
// pokes.
type simGPIO struct {
	state map[core.GPIOPin]bool
}

func newSimGPIO() *simGPIO {
	return &simGPIO{state: make(map[core.GPIOPin]bool)}
}

func (s *simGPIO) ConfigureOutput(pin core.GPIOPin) error {
	s.state[pin] = false
	return nil
}

func (s *simGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	s.state[pin] = true
	return nil
}

func (s *simGPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	s.state[pin] = false
	return nil
}

func (s *simGPIO) SetPin(pin core.GPIOPin, value bool) error {
	s.state[pin] = value
	return nil
}

func (s *simGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	return s.state[pin], nil
}

func (s *simGPIO) ReadPin(pin core.GPIOPin) bool {
	return s.state[pin]
}
