// StopSync coordinates a synchronized stop across every active motor,
// adapted from the teacher firmware's trsync protocol (which coordinated
// endstop triggers across axes during homing). Here it backs the motion
// runtime's abort path from spec §5: one trigger, every stepper's
// registered callback runs before the queue is flushed.
package core

import "sync"

// StopSync is a one-shot broadcast: Trigger fires every registered
// callback once, then the StopSync is spent until Reset.
type StopSync struct {
	mu        sync.Mutex
	triggered bool
	reason    uint8
	callbacks []func(reason uint8)
}

// NewStopSync returns a fresh, untriggered StopSync.
func NewStopSync() *StopSync {
	return &StopSync{}
}

// OnTrigger registers a callback to run when Trigger is called. Safe to
// call from the foreground before motion starts; registration after a
// trigger has already fired runs the callback immediately.
func (s *StopSync) OnTrigger(cb func(reason uint8)) {
	s.mu.Lock()
	already := s.triggered
	reason := s.reason
	if !already {
		s.callbacks = append(s.callbacks, cb)
	}
	s.mu.Unlock()

	if already {
		cb(reason)
	}
}

// Trigger fires every registered callback exactly once with reason.
// Safe to call from either interrupt context or the foreground; a second
// call while already triggered is a no-op.
func (s *StopSync) Trigger(reason uint8) {
	s.mu.Lock()
	if s.triggered {
		s.mu.Unlock()
		return
	}
	s.triggered = true
	s.reason = reason
	callbacks := s.callbacks
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(reason)
	}
}

// Triggered reports whether Trigger has fired, and with what reason.
func (s *StopSync) Triggered() (bool, uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggered, s.reason
}

// Reset clears the trigger and registered callbacks, ready for reuse
// (e.g. after an alarm clear); callers register their callbacks again.
func (s *StopSync) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggered = false
	s.reason = 0
	s.callbacks = nil
}
