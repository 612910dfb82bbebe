package motion

// GcodeState holds the interpreter's modal variables and persistent
// positional state (spec §3 "Gcode state (model)").
type GcodeState struct {
	Units        Units
	Plane        Plane
	CoordSystem  CoordSystem
	DistanceMode DistanceMode
	FeedRateMode FeedRateMode
	PathControl  PathControlMode
	MotionMode   MotionMode
	FeedRate     float64 // mm/s, current commanded feed

	MachinePosition Vector6              // authoritative machine-coordinate position
	CoordOffsets    [NumCoordSystems - 1]Vector6 // G54..G59 work offsets (G92 kept separately)
	G92Offset       Vector6
	Homed           [NumAxes]bool
	Parked          [2]Vector6 // G28/G30 stored positions
}

// NewGcodeState returns the modal defaults described in motion/config's
// gpl/gun/gco/gpa/gdi keys, applied by the caller via ApplyDefaults.
func NewGcodeState() *GcodeState {
	return &GcodeState{
		Units:        UnitsMM,
		Plane:        PlaneXY,
		CoordSystem:  CoordG54,
		DistanceMode: DistanceAbsolute,
		FeedRateMode: FeedRatePerMinute,
		PathControl:  PathContinuous,
		MotionMode:   MotionNone,
	}
}

// ApplyDefaults seeds a fresh GcodeState from a loaded configuration's
// gcode-default keys (gpl/gun/gco/gpa/gdi).
func (s *GcodeState) ApplyDefaults(plane Plane, units Units, coord CoordSystem, path PathControlMode, dist DistanceMode) {
	s.Plane = plane
	s.Units = units
	s.CoordSystem = coord
	s.PathControl = path
	s.DistanceMode = dist
}

// WorkOffset returns the active offset to subtract from a commanded word
// to recover a machine-coordinate target (spec §4.1 target resolution):
// coord_offset[active_system] + g92_offset (tool-length offset is a
// caller concern, applied before this if present).
func (s *GcodeState) WorkOffset() Vector6 {
	off := s.G92Offset
	if int(s.CoordSystem) < len(s.CoordOffsets) {
		off = off.Add(s.CoordOffsets[s.CoordSystem])
	}
	return off
}

// SetCoordOffset stores a work offset for one of G54..G59.
func (s *GcodeState) SetCoordOffset(cs CoordSystem, v Vector6) {
	if int(cs) < len(s.CoordOffsets) {
		s.CoordOffsets[cs] = v
	}
}

// Clone returns a deep copy, used by the interpreter to snapshot modal
// state before attempting a block so a failed block leaves state unchanged
// (spec §4.1: "On non-ok, modal state is unchanged from before the block").
func (s *GcodeState) Clone() GcodeState {
	return *s
}

// Restore overwrites the receiver's fields from a previously Cloned snapshot.
func (s *GcodeState) Restore(snapshot GcodeState) {
	*s = snapshot
}
