package config

import (
	"strings"
	"testing"

	"cncmotion/motion"
)

func TestNewTableDefaults(t *testing.T) {
	tbl := NewTable()
	if got := tbl.ChordalTolerance(); got != 0.02 {
		t.Fatalf("ct default = %v, want 0.02", got)
	}
	if got := tbl.MinSegmentLength(); got != 0.001 {
		t.Fatalf("ml default = %v, want 0.001", got)
	}
	ax := tbl.AxisConfig(motion.AxisX)
	if ax.Mode != motion.AxisDisabled {
		t.Fatalf("fresh table axis mode = %v, want AxisDisabled", ax.Mode)
	}
}

func TestSetFloatWritability(t *testing.T) {
	tbl := NewTable()
	if err := tbl.SetFloat("ja", 50, true); err != nil {
		t.Fatalf("SetFloat(ja) with enforceWritable=true: %v", err)
	}
	if err := tbl.SetFloat("ml", 0.01, true); err == nil {
		t.Fatal("SetFloat(ml) with enforceWritable=true should be rejected: ml is not in spec's live-write whitelist")
	}
	if err := tbl.SetFloat("ml", 0.01, false); err != nil {
		t.Fatalf("SetFloat(ml) with enforceWritable=false: %v", err)
	}
}

func TestSetFloatUnknownKey(t *testing.T) {
	tbl := NewTable()
	if err := tbl.SetFloat("zz", 1, false); err == nil {
		t.Fatal("SetFloat on an unknown key should fail")
	}
	if err := tbl.SetInt("Xvm", 1, false); err == nil {
		t.Fatal("SetInt on a float-kind key should fail")
	}
}

func TestLoadJSONRoundTrip(t *testing.T) {
	doc := `{"Xvm": 200, "Xfr": 150.5, "Xam": 1, "ja": 75}`
	tbl, err := LoadJSON([]byte(doc))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	ax := tbl.AxisConfig(motion.AxisX)
	if ax.VelocityMax != 200 {
		t.Fatalf("Xvm = %v, want 200", ax.VelocityMax)
	}
	if ax.FeedrateMax != 150.5 {
		t.Fatalf("Xfr = %v, want 150.5", ax.FeedrateMax)
	}
	if tbl.JunctionAccel() != 75 {
		t.Fatalf("ja = %v, want 75", tbl.JunctionAccel())
	}
}

func TestLoadJSONUnknownKeyAccumulates(t *testing.T) {
	doc := `{"bogus1": 1, "bogus2": 2, "Xvm": 10}`
	_, err := LoadJSON([]byte(doc))
	if err == nil {
		t.Fatal("LoadJSON with unknown keys should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, "bogus1") || !strings.Contains(msg, "bogus2") {
		t.Fatalf("expected multierr to report both bad keys, got: %s", msg)
	}
}

func TestMotorConfigPolarityBits(t *testing.T) {
	tbl := NewTable()
	if err := tbl.SetInt("M1po", 0x3, false); err != nil {
		t.Fatalf("SetInt(M1po): %v", err)
	}
	mc := tbl.MotorConfig(1)
	if !mc.Polarity.InvertStep || !mc.Polarity.InvertDir {
		t.Fatalf("MotorConfig(1).Polarity = %+v, want both inverted", mc.Polarity)
	}
}

func TestCoordOffset(t *testing.T) {
	tbl := NewTable()
	if err := tbl.SetFloat("G54x", 10, false); err != nil {
		t.Fatalf("SetFloat(G54x): %v", err)
	}
	off := tbl.CoordOffset(motion.CoordG54)
	if off[motion.AxisX] != 10 {
		t.Fatalf("CoordOffset(G54)[X] = %v, want 10", off[motion.AxisX])
	}
}
