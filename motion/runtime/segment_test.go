package runtime

import (
	"math"
	"testing"

	"cncmotion/core"
	"cncmotion/motion"
	"cncmotion/motion/config"
	"cncmotion/motion/kinematics"
	"cncmotion/motion/planner"
)

func TestProfileVelocityHeadBodyTailBounds(t *testing.T) {
	p := motion.Profile{
		HeadLength:     10,
		BodyLength:     80,
		TailLength:     10,
		EntryVelocity:  0,
		CruiseVelocity: 50,
		ExitVelocity:   0,
	}
	length := 100.0

	if v := profileVelocity(p, 0, length); math.Abs(v-p.EntryVelocity) > 1e-6 {
		t.Fatalf("velocity at s=0 = %v, want entry %v", v, p.EntryVelocity)
	}
	if v := profileVelocity(p, 50, length); math.Abs(v-p.CruiseVelocity) > 1e-6 {
		t.Fatalf("velocity in body phase = %v, want cruise %v", v, p.CruiseVelocity)
	}
	if v := profileVelocity(p, length, length); v > p.CruiseVelocity+1e-6 {
		t.Fatalf("velocity at move end = %v, should not exceed cruise %v", v, p.CruiseVelocity)
	}
}

func TestSegmentRuntimeDrainsQueueAndGoesIdle(t *testing.T) {
	core.SetGPIODriver(newFakeGPIO())
	core.SetTime(0)

	cfg := config.NewTable()
	for _, key := range []string{"Xvm"} {
		_ = cfg.SetFloat(key, 200, false)
	}
	for _, key := range []string{"Xfr"} {
		_ = cfg.SetFloat(key, 150, false)
	}
	for _, key := range []string{"Xjm"} {
		_ = cfg.SetFloat(key, 5000, false)
	}
	_ = cfg.SetFloat("ml", 0.001, false)

	q := planner.New(cfg, motion.Vector6{})
	if st := q.StraightFeed(motion.Vector6{10, 0, 0, 0, 0, 0}, 50); st != motion.StatusOK {
		t.Fatalf("enqueue feed: %v", st)
	}

	motors := []motion.MotorConfig{{
		Axis: motion.AxisX, StepAngle: 1.8, Microsteps: 16, TravelPerRev: 8, Enabled: true,
	}}
	var axes [motion.NumAxes]motion.AxisConfig
	axes[motion.AxisX] = motion.AxisConfig{Mode: motion.AxisStandard}

	exec := NewMotorExecutor("X", 0, 1, 2, false, false, false)
	_ = exec.Init()
	exec.Enable()

	rt := New(q, kinematics.NewCartesian(), motors, axes, []*MotorExecutor{exec}, 0.01)

	var completed int
	rt.OnLineComplete = func(int) { completed++ }
	rt.Kick()

	for i := 0; i < 5000 && !rt.Idle(); i++ {
		core.SetTime(core.GetTime() + core.TimerFromUS(10000))
		core.ProcessTimers()
	}

	if !rt.Idle() {
		t.Fatal("segment runtime never drained to idle")
	}
	if completed != 1 {
		t.Fatalf("OnLineComplete fired %d times, want 1", completed)
	}
}
