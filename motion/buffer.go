package motion

// MoveType classifies a planner buffer's payload (spec §3).
type MoveType int

const (
	MoveLine MoveType = iota
	MoveArcLine
	MoveDwell
	MoveCommand
	MoveEnd
)

// BufferState is a planner buffer's position in its lifecycle (spec §3):
// empty -> loading -> queued -> pending -> running -> empty.
type BufferState int32

const (
	BufferEmpty BufferState = iota
	BufferLoading
	BufferQueued
	BufferPending
	BufferRunning
)

// CommandID identifies a synchronous queued-command callback (spec §9
// design note: an enum whose variants carry their own payload, replacing
// the teacher firmware's function-pointer-in-buffer scheme).
type CommandID int

const (
	CommandNone CommandID = iota
	CommandSpindleOn
	CommandSpindleOff
	CommandCoolantMist
	CommandCoolantFlood
	CommandCoolantOff
	CommandProgramPause
	CommandProgramStop
	CommandProgramEnd
	CommandToolChange
)

// CommandPayload carries a queued command's values/flags (spec §3:
// "a callback identifier and its value/flag vectors").
type CommandPayload struct {
	ID     CommandID
	Values Vector6
	Flags  [NumAxes]bool
}

// ProfilePhase is the runtime's current position within a move's
// jerk-limited S-curve (spec §3/§4.4).
type ProfilePhase int

const (
	PhaseNew ProfilePhase = iota
	PhaseHeadConcave
	PhaseHeadConvex
	PhaseCruise
	PhaseTailConcave
	PhaseTailConvex
	PhaseDecel
	PhaseHold
	PhaseEnd
)

// Profile is a fully solved velocity profile for one move: a jerk-limited
// trapezoid or, when head+tail would exceed length, a triangle peaking at
// v_peak <= cruise_vmax (spec §4.3 forward-recompute pass).
type Profile struct {
	HeadLength     float64
	BodyLength     float64
	TailLength     float64
	EntryVelocity  float64
	CruiseVelocity float64
	ExitVelocity   float64
	Time           float64
}

// PlannerBuffer is one planner-queue entry: a move after arc expansion and
// geometry resolution, carrying both its static kinematic limits and its
// (re)computed profile (spec §3).
type PlannerBuffer struct {
	LineNo    int
	MoveType  MoveType
	State     BufferState

	Target   Vector6 // target position at move end
	Position Vector6 // absolute position at move start (runtime interpolates Position + Unit*s toward Target)
	Unit     Vector6 // unit direction vector
	Length   float64 // scalar move length
	Rapid    bool    // true for G0 traverses: bounded by velocity_max, not feedrate_max

	CruiseVmax float64 // velocity-limited cruise speed for this move
	DeltaVmax  float64 // max Δv achievable within Length under jerk bound
	Jerk       float64 // scalar jerk limit projected onto Unit

	EntryVmax       float64 // junction-deviation entry speed limit
	BrakingVelocity float64 // back-planned max entry speed

	Profile Profile

	Replannable bool

	DwellSeconds float64        // valid when MoveType == MoveDwell
	Command      CommandPayload // valid when MoveType == MoveCommand

	FeedRate float64 // commanded feed rate (mm/s) this move was queued with
}

// LengthConsistent reports whether head+body+tail matches Length within
// the tolerance spec §8 requires (1e-4 * length, with a floor for
// near-zero lengths).
func (b *PlannerBuffer) LengthConsistent() bool {
	sum := b.Profile.HeadLength + b.Profile.BodyLength + b.Profile.TailLength
	tol := b.Length * 1e-4
	if tol < 1e-9 {
		tol = 1e-9
	}
	diff := sum - b.Length
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}
