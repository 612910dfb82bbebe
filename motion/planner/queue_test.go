package planner

import (
	"math"
	"testing"

	"cncmotion/motion"
	"cncmotion/motion/config"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	cfg := config.NewTable()
	for _, key := range []string{"Xvm", "Yvm", "Zvm"} {
		if err := cfg.SetFloat(key, 200, false); err != nil {
			t.Fatal(err)
		}
	}
	for _, key := range []string{"Xfr", "Yfr", "Zfr"} {
		if err := cfg.SetFloat(key, 150, false); err != nil {
			t.Fatal(err)
		}
	}
	for _, key := range []string{"Xjm", "Yjm", "Zjm"} {
		if err := cfg.SetFloat(key, 5000, false); err != nil {
			t.Fatal(err)
		}
	}
	for _, key := range []string{"Xjd", "Yjd", "Zjd"} {
		if err := cfg.SetFloat(key, 0.02, false); err != nil {
			t.Fatal(err)
		}
	}
	if err := cfg.SetFloat("ja", 500, true); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetFloat("ml", 0.001, false); err != nil {
		t.Fatal(err)
	}
	return New(cfg, motion.Vector6{})
}

func TestStraightFeedRejectsBelowMinimumLength(t *testing.T) {
	q := newTestQueue(t)
	st := q.StraightFeed(motion.Vector6{0.0000001, 0, 0, 0, 0, 0}, 100)
	if st != motion.StatusMinimumLengthMove {
		t.Fatalf("sub-minimum move status = %v, want StatusMinimumLengthMove", st)
	}
}

func TestAdjacentBuffersShareContinuousVelocity(t *testing.T) {
	q := newTestQueue(t)
	if st := q.StraightFeed(motion.Vector6{50, 0, 0, 0, 0, 0}, 100); st != motion.StatusOK {
		t.Fatalf("first feed: %v", st)
	}
	if st := q.StraightFeed(motion.Vector6{100, 0, 0, 0, 0, 0}, 100); st != motion.StatusOK {
		t.Fatalf("second feed: %v", st)
	}
	if q.Len() != 2 {
		t.Fatalf("queue length = %d, want 2", q.Len())
	}
	first := q.at(0)
	second := q.at(1)
	if math.Abs(first.Profile.ExitVelocity-second.Profile.EntryVelocity) > 1e-6 {
		t.Fatalf("exit/entry velocity mismatch across adjacent buffers: %v vs %v",
			first.Profile.ExitVelocity, second.Profile.EntryVelocity)
	}
}

func TestEveryProfileLengthIsConsistent(t *testing.T) {
	q := newTestQueue(t)
	moves := []motion.Vector6{
		{30, 0, 0, 0, 0, 0},
		{30, 30, 0, 0, 0, 0},
		{0, 30, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
	}
	for _, m := range moves {
		if st := q.StraightFeed(m, 80); st != motion.StatusOK {
			t.Fatalf("feed to %v: %v", m, st)
		}
	}
	for i := 0; i < q.Len(); i++ {
		b := q.at(i)
		if !b.LengthConsistent() {
			t.Fatalf("buffer %d: head+body+tail = %v, want ~= length %v",
				i, b.Profile.HeadLength+b.Profile.BodyLength+b.Profile.TailLength, b.Length)
		}
	}
}

func TestJunctionVelocityNeverExceedsEitherCruise(t *testing.T) {
	q := newTestQueue(t)
	q.StraightFeed(motion.Vector6{50, 0, 0, 0, 0, 0}, 40)
	q.StraightFeed(motion.Vector6{50, 50, 0, 0, 0, 0}, 120)
	first := q.at(0)
	second := q.at(1)
	if second.Profile.EntryVelocity > first.CruiseVmax+1e-6 {
		t.Fatalf("junction entry %v exceeds incoming cruise %v", second.Profile.EntryVelocity, first.CruiseVmax)
	}
	if second.Profile.EntryVelocity > second.CruiseVmax+1e-6 {
		t.Fatalf("junction entry %v exceeds outgoing cruise %v", second.Profile.EntryVelocity, second.CruiseVmax)
	}
}

func TestQueueFullReturnsBufferFull(t *testing.T) {
	q := newTestQueue(t)
	var last motion.Status
	for i := 0; i < Capacity+2; i++ {
		target := motion.Vector6{float64(i + 1), 0, 0, 0, 0, 0}
		last = q.StraightFeed(target, 80)
		if last == motion.StatusBufferFull {
			break
		}
	}
	if last != motion.StatusBufferFull {
		t.Fatalf("expected StatusBufferFull once capacity %d is exceeded, got %v", Capacity, last)
	}
}

func TestAdvanceDrainsHeadAndPreservesContinuity(t *testing.T) {
	q := newTestQueue(t)
	q.StraightFeed(motion.Vector6{50, 0, 0, 0, 0, 0}, 100)
	q.StraightFeed(motion.Vector6{100, 0, 0, 0, 0, 0}, 100)

	if st := q.MarkRunning(); st != motion.StatusOK {
		t.Fatalf("MarkRunning: %v", st)
	}
	if st := q.Advance(); st != motion.StatusOK {
		t.Fatalf("Advance: %v", st)
	}
	if q.Len() != 1 {
		t.Fatalf("queue length after Advance = %d, want 1", q.Len())
	}

	head, ok := q.Head()
	if !ok {
		t.Fatal("expected a remaining head buffer")
	}
	if math.Abs(head.Profile.EntryVelocity-q.lastExitVelocity) > 1e-6 {
		t.Fatalf("remaining head's entry velocity %v should match retired buffer's exit velocity %v",
			head.Profile.EntryVelocity, q.lastExitVelocity)
	}
}

func TestFlushQueuePreservesRunningBuffer(t *testing.T) {
	q := newTestQueue(t)
	q.StraightFeed(motion.Vector6{50, 0, 0, 0, 0, 0}, 100)
	q.StraightFeed(motion.Vector6{100, 0, 0, 0, 0, 0}, 100)
	q.MarkRunning()

	q.FlushQueue()
	if q.Len() != 1 {
		t.Fatalf("FlushQueue should keep the running buffer: len = %d, want 1", q.Len())
	}
	head, _ := q.Head()
	if head.State != motion.BufferRunning {
		t.Fatalf("surviving buffer state = %v, want BufferRunning", head.State)
	}
}
