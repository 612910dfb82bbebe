package motion

// Status is the fixed taxonomy every core entry point returns (spec §7).
// The protocol layer (out of scope here) maps these to text/JSON.
type Status int

const (
	StatusOK Status = iota

	// Parse/input
	StatusUnrecognizedCommand
	StatusBadNumberFormat
	StatusInputTooLong
	StatusInputOutOfRange
	StatusValueUnsupported

	// Gcode semantic
	StatusModalGroupViolation
	StatusAxisWordMissing
	StatusFeedrateMissing
	StatusArcSpecError
	StatusArcEndpointEqualsStart
	StatusArcRadiusOutOfTolerance
	StatusArcOffsetsMissingForPlane
	StatusMaxTravelExceeded
	StatusMaxSpindleSpeedExceeded
	StatusCommandNotAccepted

	// Motion runtime
	StatusMinimumLengthMove
	StatusMinimumTimeMove
	StatusSoftLimitExceeded
	StatusHomingFailed
	StatusProbingFailed

	// System
	StatusBufferFull
	StatusBufferFullFatal
	StatusPlannerAssertionFailure
	StatusMemoryFault
	StatusInternalError
	StatusInitializationFail
	StatusAlarmed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnrecognizedCommand:
		return "unrecognized_command"
	case StatusBadNumberFormat:
		return "bad_number_format"
	case StatusInputTooLong:
		return "input_too_long"
	case StatusInputOutOfRange:
		return "input_out_of_range"
	case StatusValueUnsupported:
		return "value_unsupported"
	case StatusModalGroupViolation:
		return "modal_group_violation"
	case StatusAxisWordMissing:
		return "axis_word_missing"
	case StatusFeedrateMissing:
		return "feedrate_missing"
	case StatusArcSpecError:
		return "arc_spec_error"
	case StatusArcEndpointEqualsStart:
		return "arc_endpoint_equals_start"
	case StatusArcRadiusOutOfTolerance:
		return "arc_radius_out_of_tolerance"
	case StatusArcOffsetsMissingForPlane:
		return "arc_offsets_missing_for_plane"
	case StatusMaxTravelExceeded:
		return "max_travel_exceeded"
	case StatusMaxSpindleSpeedExceeded:
		return "max_spindle_speed_exceeded"
	case StatusCommandNotAccepted:
		return "command_not_accepted"
	case StatusMinimumLengthMove:
		return "minimum_length_move"
	case StatusMinimumTimeMove:
		return "minimum_time_move"
	case StatusSoftLimitExceeded:
		return "soft_limit_exceeded"
	case StatusHomingFailed:
		return "homing_failed"
	case StatusProbingFailed:
		return "probing_failed"
	case StatusBufferFull:
		return "buffer_full"
	case StatusBufferFullFatal:
		return "buffer_full_fatal"
	case StatusPlannerAssertionFailure:
		return "planner_assertion_failure"
	case StatusMemoryFault:
		return "memory_fault"
	case StatusInternalError:
		return "internal_error"
	case StatusInitializationFail:
		return "initialization_fail"
	case StatusAlarmed:
		return "alarmed"
	default:
		return "unknown_status"
	}
}

// Err adapts a Status into an error for Go call sites that need one
// (e.g. config/runtime code paths shared with the rest of the module);
// StatusOK maps to nil.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return statusError(s)
}

type statusError Status

func (e statusError) Error() string { return Status(e).String() }

// StatusOf unwraps a statusError back into its Status, or StatusInternalError
// for any other error value.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	if se, ok := err.(statusError); ok {
		return Status(se)
	}
	return StatusInternalError
}
