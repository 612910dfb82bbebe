package kinematics

import "cncmotion/motion"

// Cartesian is a 1:1 mapping from canonical axis position to each motor's
// step target via the motor's own steps_per_unit — the only kinematics
// spec.md specifies.
type Cartesian struct{}

// NewCartesian returns the Cartesian transform. It has no state: every
// motor carries its own axis mapping and steps_per_unit.
func NewCartesian() *Cartesian { return &Cartesian{} }

// MotorSteps implements Kinematics. A motor mapped to a disabled motor
// config or an inhibited axis contributes zero steps regardless of
// position (spec §3: "inhibited axes produce zero steps regardless").
func (c *Cartesian) MotorSteps(pos motion.Vector6, motors []motion.MotorConfig, axes [motion.NumAxes]motion.AxisConfig) []float64 {
	out := make([]float64, len(motors))
	for i, m := range motors {
		if !m.Enabled || axes[m.Axis].Mode == motion.AxisInhibited {
			continue
		}
		out[i] = pos[m.Axis] * m.StepsPerUnit()
	}
	return out
}

// CheckLimits implements Kinematics using each axis's SoftLimitOK predicate.
func (c *Cartesian) CheckLimits(pos motion.Vector6, axes [motion.NumAxes]motion.AxisConfig) motion.Status {
	for i, a := range axes {
		if a.Mode == motion.AxisDisabled {
			continue
		}
		if !a.SoftLimitOK(pos[i]) {
			return motion.StatusSoftLimitExceeded
		}
	}
	return motion.StatusOK
}
