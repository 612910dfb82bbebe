package core

import "sync"

// Design note "Hard-alarm recovery": the original firmware scattered ad
// hoc alarmed flags across modules. This is the latch for a hard alarm:
// the segment runtime stops ticking while IsShutdown() is true, and
// manager.Machine refuses gcode lines while it is true. manager.Machine
// also keeps its own alarm flag (set by Abort and hard-fault statuses,
// cleared by ClearAlarm) and refuses lines while either is set.

var (
	shutdownMu     sync.Mutex
	shutdownReason string
	isShutdown     bool
)

// TryShutdown raises a hard alarm with reason. Safe to call from either
// interrupt context or the foreground. Idempotent: the first reason wins.
func TryShutdown(reason string) {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if isShutdown {
		return
	}
	isShutdown = true
	shutdownReason = reason
	// Async: TryShutdown can be called from interrupt-like contexts (a
	// stepper ISR tripping a hard limit) where blocking on the debug
	// writer would stall the timer tick.
	DebugAsync("[SHUTDOWN] " + reason)
}

// IsShutdown reports whether a hard alarm is currently latched.
func IsShutdown() bool {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	return isShutdown
}

// ShutdownReason returns the reason the last alarm was raised, or "" if
// no alarm is latched.
func ShutdownReason() string {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	return shutdownReason
}

// ClearShutdown unlatches the alarm. Only the foreground may call this,
// and only after the caller has confirmed it is safe (queue flushed,
// steppers stopped) — this package does not enforce that precondition.
func ClearShutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	isShutdown = false
	shutdownReason = ""
}
