package gcode

import (
	"testing"

	"cncmotion/motion"
	"cncmotion/motion/arc"
	"cncmotion/motion/config"
)

// fakeSink records every primitive call it receives and can be made to
// fail the next call, standing in for the planner/arc-expander chain.
type fakeSink struct {
	feeds      []motion.Vector6
	traverses  []motion.Vector6
	dwells     []float64
	commands   []motion.CommandPayload
	arcs       []motion.ArcRequest
	failStatus motion.Status
}

func (s *fakeSink) StraightFeed(target motion.Vector6, feedRate float64) motion.Status {
	if s.failStatus != motion.StatusOK {
		return s.failStatus
	}
	s.feeds = append(s.feeds, target)
	return motion.StatusOK
}
func (s *fakeSink) StraightTraverse(target motion.Vector6) motion.Status {
	if s.failStatus != motion.StatusOK {
		return s.failStatus
	}
	s.traverses = append(s.traverses, target)
	return motion.StatusOK
}
func (s *fakeSink) Dwell(seconds float64) motion.Status {
	s.dwells = append(s.dwells, seconds)
	return motion.StatusOK
}
func (s *fakeSink) QueueCommand(p motion.CommandPayload) motion.Status {
	s.commands = append(s.commands, p)
	return motion.StatusOK
}
func (s *fakeSink) ArcFeed(req motion.ArcRequest) motion.Status {
	if s.failStatus != motion.StatusOK {
		return s.failStatus
	}
	s.arcs = append(s.arcs, req)
	return motion.StatusOK
}

func newTestInterpreter(t *testing.T) (*Interpreter, *fakeSink) {
	t.Helper()
	cfg := config.NewTable()
	for _, key := range []string{"Xvm", "Yvm", "Zvm"} {
		_ = cfg.SetFloat(key, 200, false)
	}
	for _, key := range []string{"Xtm", "Ytm", "Ztm"} {
		_ = cfg.SetFloat(key, 300, false)
	}
	sink := &fakeSink{}
	return NewInterpreter(cfg, sink), sink
}

func TestStraightFeedAbsoluteMM(t *testing.T) {
	in, sink := newTestInterpreter(t)
	if st := in.ExecuteBlock("G90 G21 G1 X10 Y20 F100"); st != motion.StatusOK {
		t.Fatalf("G1 X10 Y20 F100: %v", st)
	}
	if len(sink.feeds) != 1 {
		t.Fatalf("expected one feed, got %d", len(sink.feeds))
	}
	got := sink.feeds[0]
	if got[motion.AxisX] != 10 || got[motion.AxisY] != 20 {
		t.Fatalf("feed target = %v, want (10,20,...)", got)
	}
}

func TestFeedWithoutFeedrateIsRejected(t *testing.T) {
	in, _ := newTestInterpreter(t)
	st := in.ExecuteBlock("G1 X10")
	if st != motion.StatusFeedrateMissing {
		t.Fatalf("G1 with no F and no prior feed rate: got %v, want StatusFeedrateMissing", st)
	}
}

func TestCollinearContinuationReusesFeedRate(t *testing.T) {
	in, sink := newTestInterpreter(t)
	if st := in.ExecuteBlock("G1 X10 F50"); st != motion.StatusOK {
		t.Fatalf("first feed: %v", st)
	}
	if st := in.ExecuteBlock("G1 X20"); st != motion.StatusOK {
		t.Fatalf("second feed without F should reuse modal feed rate: %v", st)
	}
	if len(sink.feeds) != 2 {
		t.Fatalf("expected two feeds, got %d", len(sink.feeds))
	}
}

func TestModalGroupViolationRejected(t *testing.T) {
	in, _ := newTestInterpreter(t)
	st := in.ExecuteBlock("G0 G1 X10")
	if st != motion.StatusModalGroupViolation {
		t.Fatalf("two motion-group G codes on one line: got %v, want StatusModalGroupViolation", st)
	}
}

func TestDwellQueuesInOrder(t *testing.T) {
	in, sink := newTestInterpreter(t)
	if st := in.ExecuteBlock("G4 P1.5"); st != motion.StatusOK {
		t.Fatalf("G4 P1.5: %v", st)
	}
	if len(sink.dwells) != 1 || sink.dwells[0] != 1.5 {
		t.Fatalf("dwells = %v, want [1.5]", sink.dwells)
	}
}

func TestStateUnchangedOnRejectedBlock(t *testing.T) {
	in, _ := newTestInterpreter(t)
	before := in.State.Clone()
	if st := in.ExecuteBlock("G1 X10"); st != motion.StatusFeedrateMissing {
		t.Fatalf("expected StatusFeedrateMissing, got %v", st)
	}
	after := in.State.Clone()
	if before.MachinePosition != after.MachinePosition {
		t.Fatalf("modal state changed on a rejected block: before=%v after=%v",
			before.MachinePosition, after.MachinePosition)
	}
}

func TestArcEndpointEqualsStartRejected(t *testing.T) {
	// validateArcRequest only checks radius tolerance and plane-offset
	// presence; the endpoint-equals-start check lives in the arc
	// expander, so this exercises the interpreter wired to a real one.
	cfg := config.NewTable()
	_ = cfg.SetFloat("Xvm", 200, false)
	_ = cfg.SetFloat("Yvm", 200, false)
	sink := &fakeSink{}
	expander := arc.New(cfg, sink)
	in := NewInterpreter(cfg, expander)

	st := in.ExecuteBlock("G2 X0 Y0 R5 F100")
	if st != motion.StatusArcEndpointEqualsStart {
		t.Fatalf("arc to the current position: got %v, want StatusArcEndpointEqualsStart", st)
	}
}

func TestQueueFullPropagatesFromSink(t *testing.T) {
	in, sink := newTestInterpreter(t)
	sink.failStatus = motion.StatusBufferFull
	st := in.ExecuteBlock("G1 X10 F50")
	if st != motion.StatusBufferFull {
		t.Fatalf("sink reporting queue full: got %v, want StatusBufferFull", st)
	}
}
