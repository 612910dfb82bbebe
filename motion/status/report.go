// Package status holds the machine status report: one machine state
// (idle/run/hold/alarm/homing/jog), the line number, commanded velocity,
// machine and work position per axis, the active work offset, and the
// current modal settings. String renders only the state, the alarm
// reason, MPos, WPos, FS and Ln.
package status

import (
	"fmt"
	"strings"

	"cncmotion/motion"
)

// MachineState is the top-level alarm/ready state (spec §6).
type MachineState int

const (
	MachineIdle MachineState = iota
	MachineRun
	MachineHold
	MachineAlarm
	MachineHoming
	MachineJog
)

func (s MachineState) String() string {
	switch s {
	case MachineIdle:
		return "Idle"
	case MachineRun:
		return "Run"
	case MachineHold:
		return "Hold"
	case MachineAlarm:
		return "Alarm"
	case MachineHoming:
		return "Home"
	case MachineJog:
		return "Jog"
	default:
		return "Unknown"
	}
}

// Report is a full status snapshot (spec §6 "Status report fields").
type Report struct {
	Machine MachineState
	LineNo  int
	Feed    float64 // current commanded velocity, units/s

	MachinePosition motion.Vector6
	WorkPosition    motion.Vector6
	WorkOffset      motion.Vector6

	Units        motion.Units
	CoordSystem  motion.CoordSystem
	MotionMode   motion.MotionMode
	Plane        motion.Plane
	DistanceMode motion.DistanceMode
	FeedRateMode motion.FeedRateMode

	Homed [motion.NumAxes]bool

	AlarmReason string
}

// String renders the report the way a jog/console client would display
// it: a single compact line, axis letters inline.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s", r.Machine)
	if r.Machine == MachineAlarm && r.AlarmReason != "" {
		fmt.Fprintf(&b, ":%s", r.AlarmReason)
	}
	b.WriteString("|MPos:")
	writeVec(&b, r.MachinePosition)
	b.WriteString("|WPos:")
	writeVec(&b, r.WorkPosition)
	fmt.Fprintf(&b, "|FS:%.3f", r.Feed)
	fmt.Fprintf(&b, "|Ln:%d", r.LineNo)
	b.WriteString(">")
	return b.String()
}

func writeVec(b *strings.Builder, v motion.Vector6) {
	for i := 0; i < motion.NumAxes; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%.4f", v[i])
	}
}
