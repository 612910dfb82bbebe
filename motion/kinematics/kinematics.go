// Package kinematics converts canonical axis positions into per-motor
// step targets. Spec Non-goals: Cartesian-only kinematics are assumed;
// this package exposes the transform as an interface so a non-Cartesian
// implementation has a hook, but none is specified.
package kinematics

import "cncmotion/motion"

// Kinematics is the coordinate-transform hook between the canonical
// machine position and per-motor step targets.
type Kinematics interface {
	// MotorSteps returns the target step count for each configured motor
	// given an absolute canonical position. A motor mapped to an axis
	// whose Mode is AxisInhibited contributes zero steps regardless of
	// position (spec §3/§4.4 step 4).
	MotorSteps(pos motion.Vector6, motors []motion.MotorConfig, axes [motion.NumAxes]motion.AxisConfig) []float64

	// CheckLimits validates a canonical position against the per-axis
	// soft-limit predicate (spec §1/§9.1 "optional predicate").
	CheckLimits(pos motion.Vector6, axes [motion.NumAxes]motion.AxisConfig) motion.Status
}
