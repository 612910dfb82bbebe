// Package config implements the machine's key/value configuration store:
// every setting the motion pipeline reads is addressed by an opaque,
// at-most-5-character key (the same table a front-end CLI or host
// application lists/sets), backed by a tagged-sum-type Param rather than
// the function-pointer-over-raw-pointer table the teacher firmware used
// for its wire-protocol config commands.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"cncmotion/motion"
)

// Kind tags the dynamic type held in a Param's union-like storage.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
)

// Param is one named configuration slot. Only one of its fields is live,
// selected by Kind; Writable gates the runtime-write whitelist (ja, ct, st
// are the only keys spec §6 allows writing outside a full reload).
type Param struct {
	Key      string
	Kind     Kind
	F        float64
	I        int
	B        bool
	Writable bool
}

// Table is the full set of named parameters for one machine configuration.
// Keys are exactly the ones spec §6 lists: no more, no fewer.
type Table struct {
	params map[string]*Param
}

// NewTable returns a table with every required key present at its
// default value, so Get never has to distinguish "missing" from "unset".
func NewTable() *Table {
	t := &Table{params: make(map[string]*Param)}
	for i := 0; i < motion.NumAxes; i++ {
		p := axisKeyPrefix(motion.AxisIndex(i))
		t.defFloat(p+"vm", 0, false)
		t.defFloat(p+"fr", 0, false)
		t.defFloat(p+"tm", 0, false)
		t.defFloat(p+"jm", 0, false)
		t.defFloat(p+"jd", 0, false)
		t.defInt(p+"am", int(motion.AxisDisabled), false)
		t.defInt(p+"sn", int(motion.SwitchDisabled), false)
		t.defInt(p+"sx", int(motion.SwitchDisabled), false)
		t.defFloat(p+"sv", 0, false)
		t.defFloat(p+"lv", 0, false)
		t.defFloat(p+"lb", 0, false)
		t.defFloat(p+"zb", 0, false)
		if motion.AxisIndex(i).IsRotary() {
			t.defFloat(p+"ra", 0, false)
		}
	}
	for m := 1; m <= motion.MaxMotors; m++ {
		p := motorKeyPrefix(m)
		t.defInt(p+"ma", int(motion.AxisX), false)
		t.defFloat(p+"sa", 0, false)
		t.defFloat(p+"tr", 0, false)
		t.defInt(p+"mi", 1, false)
		t.defInt(p+"po", 0, false)
		t.defInt(p+"pm", int(motion.PowerAlwaysOn), false)
	}
	t.defFloat("ja", 0, true)
	t.defFloat("ct", 0.02, true)
	t.defFloat("ml", 0.001, false)
	t.defFloat("ma", 0.001, false)
	t.defFloat("mt", 0.001, false)
	t.defInt("st", 0, true)

	t.defInt("gpl", int(motion.PlaneXY), false)
	t.defInt("gun", int(motion.UnitsMM), false)
	t.defInt("gco", int(motion.CoordG54), false)
	t.defInt("gpa", int(motion.PathContinuous), false)
	t.defInt("gdi", int(motion.DistanceAbsolute), false)

	for cs := 0; cs < int(motion.NumCoordSystems); cs++ {
		p := coordKeyPrefix(cs)
		t.defFloat(p+"x", 0, false)
		t.defFloat(p+"y", 0, false)
		t.defFloat(p+"z", 0, false)
		t.defFloat(p+"a", 0, false)
		t.defFloat(p+"b", 0, false)
		t.defFloat(p+"c", 0, false)
	}
	return t
}

// axisKeyPrefix returns the axis's own letter (X/Y/Z/A/B/C): spec §6's
// "X" in Xam/Xvm/... is a placeholder for whichever axis letter it is,
// not literal X for every axis.
func axisKeyPrefix(a motion.AxisIndex) string { return a.String() }

func motorKeyPrefix(n int) string { return "M" + string(rune('0'+n)) }

// coordKeyPrefix returns the coordinate system's work-offset name
// (G54..G59, G92), the prefix for its per-axis offset keys (G54x, G92a...).
func coordKeyPrefix(cs int) string {
	names := []string{"G54", "G55", "G56", "G57", "G58", "G59", "G92"}
	if cs < 0 || cs >= len(names) {
		return "G54"
	}
	return names[cs]
}

func (t *Table) defFloat(key string, v float64, writable bool) {
	t.params[key] = &Param{Key: key, Kind: KindFloat, F: v, Writable: writable}
}
func (t *Table) defInt(key string, v int, writable bool) {
	t.params[key] = &Param{Key: key, Kind: KindInt, I: v, Writable: writable}
}

// Get returns the named param, or nil if the key is not part of the table.
func (t *Table) Get(key string) *Param {
	return t.params[key]
}

// SetFloat writes a float-kind param. enforceWritable controls whether the
// runtime-write whitelist (spec §6: only ja/ct/st are writable live; every
// other key requires a full reload) is enforced — callers loading a
// document from scratch pass false.
func (t *Table) SetFloat(key string, v float64, enforceWritable bool) error {
	p := t.params[key]
	if p == nil {
		return errors.Errorf("config: unknown key %q", key)
	}
	if p.Kind != KindFloat {
		return errors.Errorf("config: key %q is not float-valued", key)
	}
	if enforceWritable && !p.Writable {
		return errors.Errorf("config: key %q is not writable at runtime", key)
	}
	p.F = v
	return nil
}

// SetInt writes an int-kind param, same writability rule as SetFloat.
func (t *Table) SetInt(key string, v int, enforceWritable bool) error {
	p := t.params[key]
	if p == nil {
		return errors.Errorf("config: unknown key %q", key)
	}
	if p.Kind != KindInt {
		return errors.Errorf("config: key %q is not int-valued", key)
	}
	if enforceWritable && !p.Writable {
		return errors.Errorf("config: key %q is not writable at runtime", key)
	}
	p.I = v
	return nil
}

// Keys returns every key in the table, for a status/listing front end.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.params))
	for k := range t.params {
		keys = append(keys, k)
	}
	return keys
}

// document is the JSON shape a configuration file/string is loaded from:
// a flat map of key to either a number or an already-decoded value.
type document map[string]json.Number

// LoadJSON parses a flat JSON object of key->value pairs into a fresh
// Table, validating every key against the static schema before any value
// is applied. Modeled on the teacher firmware's config.LoadConfig, which
// parsed a JSON document into a MachineConfig and ran a defaulting pass;
// here the document is a flat opaque-key map instead of a nested struct,
// per spec §6.
func LoadJSON(data []byte) (*Table, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "config: parse document")
	}

	t := NewTable()
	var errs error
	for key, raw := range doc {
		p := t.params[key]
		if p == nil {
			errs = multierr.Append(errs, errors.Errorf("config: unknown key %q", key))
			continue
		}
		switch p.Kind {
		case KindFloat:
			f, err := raw.Float64()
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "config: key %q", key))
				continue
			}
			p.F = f
		case KindInt:
			i, err := raw.Int64()
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "config: key %q", key))
				continue
			}
			p.I = int(i)
		}
	}
	if errs != nil {
		return nil, errs
	}
	return t, nil
}

// AxisConfig assembles a motion.AxisConfig from the table's per-axis keys.
func (t *Table) AxisConfig(a motion.AxisIndex) motion.AxisConfig {
	p := axisKeyPrefix(a)
	c := motion.AxisConfig{
		Mode:              motion.AxisMode(t.params[p+"am"].I),
		VelocityMax:       t.params[p+"vm"].F,
		FeedrateMax:       t.params[p+"fr"].F,
		TravelMax:         t.params[p+"tm"].F,
		JerkMax:           t.params[p+"jm"].F,
		JunctionDeviation: t.params[p+"jd"].F,
		SwitchMin:         motion.SwitchMode(t.params[p+"sn"].I),
		SwitchMax:         motion.SwitchMode(t.params[p+"sx"].I),
		SearchVelocity:    t.params[p+"sv"].F,
		LatchVelocity:     t.params[p+"lv"].F,
		LatchBackoff:      t.params[p+"lb"].F,
		ZeroBackoff:       t.params[p+"zb"].F,
	}
	if ra, ok := t.params[p+"ra"]; ok {
		c.Radius = ra.F
	}
	return c
}

// MotorConfig assembles a motion.MotorConfig from the table's per-motor
// keys. motorNum is 1..MaxMotors.
func (t *Table) MotorConfig(motorNum int) motion.MotorConfig {
	p := motorKeyPrefix(motorNum)
	pol := t.params[p+"po"].I
	return motion.MotorConfig{
		Axis:         motion.AxisIndex(t.params[p+"ma"].I),
		StepAngle:    t.params[p+"sa"].F,
		TravelPerRev: t.params[p+"tr"].F,
		Microsteps:   t.params[p+"mi"].I,
		Polarity: motion.MotorPolarity{
			InvertStep: pol&0x1 != 0,
			InvertDir:  pol&0x2 != 0,
		},
		Power:   motion.PowerMode(t.params[p+"pm"].I),
		Enabled: true,
	}
}

// CoordOffset assembles the 6-axis offset vector for one coordinate system.
func (t *Table) CoordOffset(cs motion.CoordSystem) motion.Vector6 {
	p := coordKeyPrefix(int(cs))
	return motion.Vector6{
		t.params[p+"x"].F, t.params[p+"y"].F, t.params[p+"z"].F,
		t.params[p+"a"].F, t.params[p+"b"].F, t.params[p+"c"].F,
	}
}

// ChordalTolerance is the arc expander's segment-accuracy bound (key ct).
func (t *Table) ChordalTolerance() float64 { return t.params["ct"].F }

// JunctionAccel is the planner's centripetal-acceleration bound for the
// junction-deviation velocity formula (key ja).
func (t *Table) JunctionAccel() float64 { return t.params["ja"].F }

// MinSegmentLength is the planner's minimum accepted move length (key ml).
func (t *Table) MinSegmentLength() float64 { return t.params["ml"].F }

// MinArcSegmentLength is the arc expander's minimum chord length (key ma).
func (t *Table) MinArcSegmentLength() float64 { return t.params["ma"].F }

// MinSegmentTime is the runtime's minimum segment duration guard (key mt).
func (t *Table) MinSegmentTime() float64 { return t.params["mt"].F }

// GcodeDefaults assembles the modal default state gpl/gun/gco/gpa/gdi.
type GcodeDefaults struct {
	Plane        motion.Plane
	Units        motion.Units
	CoordSystem  motion.CoordSystem
	PathControl  motion.PathControlMode
	DistanceMode motion.DistanceMode
}

// GcodeDefaults returns the configured startup modal state.
func (t *Table) GcodeDefaults() GcodeDefaults {
	return GcodeDefaults{
		Plane:        motion.Plane(t.params["gpl"].I),
		Units:        motion.Units(t.params["gun"].I),
		CoordSystem:  motion.CoordSystem(t.params["gco"].I),
		PathControl:  motion.PathControlMode(t.params["gpa"].I),
		DistanceMode: motion.DistanceMode(t.params["gdi"].I),
	}
}

// String renders a param for a status/listing front end.
func (p Param) String() string {
	switch p.Kind {
	case KindFloat:
		return fmt.Sprintf("%s=%g", p.Key, p.F)
	case KindInt:
		return fmt.Sprintf("%s=%d", p.Key, p.I)
	case KindBool:
		return fmt.Sprintf("%s=%v", p.Key, p.B)
	default:
		return p.Key + "=?"
	}
}
