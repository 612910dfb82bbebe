package motion

// LineSink is the interface a straight-move consumer exposes to whatever
// feeds it canonical primitives: the arc expander feeds it expanded arc
// segments, and the gcode interpreter feeds it directly for G0/G1. It is
// implemented by the planner queue.
type LineSink interface {
	StraightFeed(target Vector6, feedRate float64) Status
	StraightTraverse(target Vector6) Status
	Dwell(seconds float64) Status
	QueueCommand(p CommandPayload) Status
}

// ArcRequest carries everything arc_feed needs (spec §4.1 public contract).
type ArcRequest struct {
	Start            Vector6 // position at arc start, canonical
	Target           Vector6
	TargetPresent    [NumAxes]bool
	Offsets          [3]float64 // I, J, K
	OffsetPresent    [3]bool
	Radius           float64
	RadiusPresent    bool
	RotationsP       int
	RotationsPresent bool
	MotionMode       MotionMode // MotionArcCW or MotionArcCCW
	FeedRate         float64
	InverseTime      bool // feed-rate mode is G93
	Plane            Plane
}

// PrimitiveSink is the full canonical-primitive contract the gcode
// interpreter drives (spec §4.1): straight moves plus arcs. Implemented
// by the arc expander, which handles ArcFeed itself and forwards
// everything else to its inner LineSink.
type PrimitiveSink interface {
	LineSink
	ArcFeed(req ArcRequest) Status
}
