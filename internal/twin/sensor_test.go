package twin

import (
	"math"
	"math/rand"
	"testing"
)

func TestSensorIsContractive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := NewSensor(PVPH, 30, 5.0)
	pv := 9.0
	prevErr := math.Abs(s.Meas - pv)
	for i := 0; i < 500; i++ {
		s.Step(pv, 0.5)
		curErr := math.Abs(s.Meas - pv)
		if curErr > prevErr+1e-12 {
			t.Fatalf("step %d: |err| grew from %v to %v", i, prevErr, curErr)
		}
		pv += rng.Float64()*0.01 - 0.005
		prevErr = math.Abs(s.Meas - pv)
	}
}

func TestSensorConvergesToConstantPV(t *testing.T) {
	s := NewSensor(PVQFeed, 10, 0)
	for i := 0; i < 2000; i++ {
		s.Step(100, 0.5)
	}
	if math.Abs(s.Meas-100) > 1e-3 {
		t.Errorf("Meas = %v, want ~100 after convergence", s.Meas)
	}
}

func TestInstrumentationOrderMatchesRegisterOrder(t *testing.T) {
	p := DefaultParameters()
	state := InitialTrueState(p)
	instr := NewInstrumentation(state, p.TauPH)
	ordered := instr.ordered()
	if ordered[0] != instr.QFeed || ordered[1] != instr.QPerm || ordered[2] != instr.LevelClearwell ||
		ordered[3] != instr.PH || ordered[4] != instr.Cl || ordered[5] != instr.DPRO {
		t.Fatal("ordered() does not match the documented §4.6 register order")
	}
}

func TestStepAllTracksTrueState(t *testing.T) {
	p := DefaultParameters()
	state := InitialTrueState(p)
	instr := NewInstrumentation(state, 5)
	state.QFeed = 50
	state.PHTrue = 8
	for i := 0; i < 200; i++ {
		instr.StepAll(state, 1)
	}
	m := instr.Measured()
	if math.Abs(m.QFeedMeas-50) > 1e-2 {
		t.Errorf("QFeedMeas = %v, want ~50", m.QFeedMeas)
	}
	if math.Abs(m.PHMeas-8) > 1e-2 {
		t.Errorf("PHMeas = %v, want ~8", m.PHMeas)
	}
}
