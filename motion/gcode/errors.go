package gcode

import "cncmotion/motion"

// errBadNumberFormat is a sentinel used internally by the lexer; the
// interpreter maps it onto the public motion.Status taxonomy.
var errBadNumberFormat = statusErr(motion.StatusBadNumberFormat)

type statusErr motion.Status

func (e statusErr) Error() string { return motion.Status(e).String() }

func (e statusErr) Status() motion.Status { return motion.Status(e) }
