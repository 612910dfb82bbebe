// Package motion holds the canonical data model shared by the CNC motion
// pipeline: gcode interpretation, arc expansion, look-ahead trajectory
// planning, and the segment/stepper runtime that turns planned moves into
// step pulses. The top-level Machine façade is in package manager.
//
// All internal lengths are millimeters (or degrees for a rotary axis not
// in radius mode), all times are seconds, all velocities mm/s, all
// accelerations mm/s^2, all jerks mm/s^3. G-code feed rates (mm/min) and
// inch units are converted to this internal representation at the
// interpreter boundary.
package motion

import "math"

// AxisIndex identifies one of the six logical machine axes.
type AxisIndex int

const (
	AxisX AxisIndex = iota
	AxisY
	AxisZ
	AxisA
	AxisB
	AxisC
	NumAxes = 6
)

func (a AxisIndex) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisA:
		return "A"
	case AxisB:
		return "B"
	case AxisC:
		return "C"
	default:
		return "?"
	}
}

// AxisLetter maps the letters the gcode lexer accepts to an AxisIndex.
func AxisLetter(c byte) (AxisIndex, bool) {
	switch c {
	case 'X', 'x':
		return AxisX, true
	case 'Y', 'y':
		return AxisY, true
	case 'Z', 'z':
		return AxisZ, true
	case 'A', 'a':
		return AxisA, true
	case 'B', 'b':
		return AxisB, true
	case 'C', 'c':
		return AxisC, true
	}
	return 0, false
}

// IsRotary reports whether an axis is one of A/B/C.
func (a AxisIndex) IsRotary() bool { return a >= AxisA }

// Vector6 is the canonical 6-axis value type used for targets, positions,
// and unit direction vectors throughout the pipeline.
type Vector6 [NumAxes]float64

// Add returns v+o element-wise.
func (v Vector6) Add(o Vector6) Vector6 {
	var r Vector6
	for i := range v {
		r[i] = v[i] + o[i]
	}
	return r
}

// Sub returns v-o element-wise.
func (v Vector6) Sub(o Vector6) Vector6 {
	var r Vector6
	for i := range v {
		r[i] = v[i] - o[i]
	}
	return r
}

// Scale returns v scaled by k element-wise.
func (v Vector6) Scale(k float64) Vector6 {
	var r Vector6
	for i := range v {
		r[i] = v[i] * k
	}
	return r
}

// Length returns the Euclidean norm of v (√Σv²), the scalar move length
// used throughout the planner.
func (v Vector6) Length() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Unit returns v scaled to unit length, and the length it was scaled
// from. A zero-length vector returns the zero vector and length 0.
func (v Vector6) Unit() (Vector6, float64) {
	l := v.Length()
	if l <= 0 {
		return Vector6{}, 0
	}
	var u Vector6
	for i := range v {
		u[i] = v[i] / l
	}
	return u, l
}

// Dot returns the dot product v·o.
func (v Vector6) Dot(o Vector6) float64 {
	sum := 0.0
	for i := range v {
		sum += v[i] * o[i]
	}
	return sum
}

// AxisMode is the static per-axis enable/behavior mode (config key Xam).
type AxisMode int

const (
	AxisDisabled AxisMode = iota
	AxisStandard
	AxisInhibited
	AxisRadiusMode
)

// SwitchMode is the homing-switch wiring mode for one end of travel
// (config keys Xsn/Xsx): disabled, homing only, or homing plus limit.
type SwitchMode int

const (
	SwitchDisabled SwitchMode = iota
	SwitchHomingOnly
	SwitchHomingAndLimit
)

// AxisConfig is the static per-axis configuration from spec §3/§6.
type AxisConfig struct {
	Mode              AxisMode
	VelocityMax       float64 // Xvm, mm/s (or deg/s)
	FeedrateMax       float64 // Xfr, mm/s — cap on commanded feed for this axis
	TravelMax         float64 // Xtm, soft-limit travel bound (min is implicitly 0)
	JerkMax           float64 // Xjm, mm/s^3
	JunctionDeviation float64 // Xjd, mm
	SwitchMin         SwitchMode // Xsn
	SwitchMax         SwitchMode // Xsx
	SearchVelocity    float64    // Xsv, mm/s
	LatchVelocity     float64    // Xlv, mm/s
	LatchBackoff      float64    // Xlb, mm
	ZeroBackoff       float64    // Xzb, mm
	Radius            float64    // Xra, radius-mode length-per-radian for rotary axes
}

// Valid checks the homing-velocity invariant from spec §3: for every axis
// participating in homing, velocity_max ≥ search_velocity ≥ latch_velocity > 0.
func (c AxisConfig) Valid() bool {
	if c.SwitchMin == SwitchDisabled && c.SwitchMax == SwitchDisabled {
		return true // axis does not participate in homing
	}
	return c.VelocityMax >= c.SearchVelocity &&
		c.SearchVelocity >= c.LatchVelocity &&
		c.LatchVelocity > 0
}

// SoftLimitOK is the optional soft-limit predicate from spec §1/§9.1:
// true if value is within [0, TravelMax], or always true if TravelMax<=0
// (soft limiting disabled for this axis).
func (c AxisConfig) SoftLimitOK(value float64) bool {
	if c.TravelMax <= 0 {
		return true
	}
	return value >= 0 && value <= c.TravelMax
}

// MotorPolarity inverts the step or direction signal.
type MotorPolarity struct {
	InvertStep bool
	InvertDir  bool
}

// PowerMode controls when a motor driver's enable line is asserted.
type PowerMode int

const (
	PowerAlwaysOn PowerMode = iota
	PowerOnDuringMove
	PowerOnWhileStepping
	PowerDisabled
)

// MaxMotors is the number of physical motor outputs the runtime drives.
const MaxMotors = 4

// MotorConfig is the static per-motor configuration from spec §3/§6.
type MotorConfig struct {
	Axis          AxisIndex // Mma
	StepAngle     float64   // Msa, degrees per full step
	TravelPerRev  float64   // Mtr, length (or degrees) per revolution
	Microsteps    int       // Mmi, one of 1,2,4,8
	Polarity      MotorPolarity
	Power         PowerMode // Mpm
	Enabled       bool
}

// StepsPerUnit returns 360 / (StepAngle/Microsteps) / TravelPerRev, the
// derived constant from spec §3. Recomputed on demand, never cached,
// so a config write can never leave a stale derived value around.
func (m MotorConfig) StepsPerUnit() float64 {
	if m.StepAngle <= 0 || m.Microsteps <= 0 || m.TravelPerRev <= 0 {
		return 0
	}
	stepSize := m.StepAngle / float64(m.Microsteps)
	return 360.0 / stepSize / m.TravelPerRev
}

// Units is the gcode modal units setting (G20/G21).
type Units int

const (
	UnitsMM Units = iota
	UnitsInch
)

// Plane is the active gcode plane (G17/G18/G19) used by arc expansion.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

// DistanceMode is the gcode modal distance mode (G90/G91).
type DistanceMode int

const (
	DistanceAbsolute DistanceMode = iota
	DistanceIncremental
)

// FeedRateMode is the gcode modal feed-rate interpretation (G93/G94).
type FeedRateMode int

const (
	FeedRatePerMinute FeedRateMode = iota
	FeedRateInverseTime
)

// PathControlMode is the gcode modal cornering behavior (G61/G61.1/G64).
type PathControlMode int

const (
	PathExactStop PathControlMode = iota
	PathExactPath
	PathContinuous
)

// MotionMode is the gcode modal motion-word mode (G0/G1/G2/G3/G80).
type MotionMode int

const (
	MotionNone MotionMode = iota
	MotionTraverse
	MotionFeed
	MotionArcCW
	MotionArcCCW
)

// CoordSystem indexes one of G54..G59 (0..5) or G92 (index 6).
type CoordSystem int

const (
	CoordG54 CoordSystem = iota
	CoordG55
	CoordG56
	CoordG57
	CoordG58
	CoordG59
	CoordG92
	NumCoordSystems
)
