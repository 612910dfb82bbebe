package motion

// Machine is implemented concretely in cncmotion/manager (a
// separate package, since it must import gcode/arc/planner/runtime,
// which would otherwise import this root package and cycle). This file
// only documents the public contract every caller (the CLI, tests)
// programs against; see manager.Machine for the implementation.
