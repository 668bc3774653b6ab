package twin

import (
	"math"
	"testing"
)

func TestStepRejectsNonPositiveDt(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	if err := pr.Step(&s, NominalControls(p), 0); err == nil {
		t.Fatal("expected error for dt=0")
	}
	if err := pr.Step(&s, NominalControls(p), -1); err == nil {
		t.Fatal("expected error for negative dt")
	}
}

func TestStepKeepsFlowsAndConcentrationsNonNegative(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	controls := NominalControls(p)

	dts := []float64{0.1, 1.0, 5.0, 10.0}
	for i := 0; i < 2000; i++ {
		dt := dts[i%len(dts)]
		if err := pr.Step(&s, controls, dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s.QFeed < 0 || s.QPerm < 0 || s.QBrine < 0 || s.QOut < 0 {
			t.Fatalf("step %d: negative flow in %+v", i, s)
		}
		if s.TDSFeed < 0 || s.TDSPerm < 0 || s.TDSBrine < 0 || s.H2SFeed < 0 || s.H2SOut < 0 || s.ClTrue < 0 {
			t.Fatalf("step %d: negative concentration in %+v", i, s)
		}
	}
}

func TestROMassBalanceResidual(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	controls := NominalControls(p)

	for i := 0; i < 1000; i++ {
		if err := pr.Step(&s, controls, 1.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s.QFeed <= 1 {
			continue
		}
		lhs := s.QFeed*s.TDSFeed - s.QPerm*s.TDSPerm - s.QBrine*s.TDSBrine
		tol := 1e-6 * s.QFeed * s.TDSFeed
		if math.Abs(lhs) >= tol && tol > 0 {
			t.Fatalf("step %d: RO mass balance residual %v exceeds tolerance %v", i, lhs, tol)
		}
	}
}

func TestRecoveryAndSaltRejectionStayClamped(t *testing.T) {
	p := DefaultParameters()
	controls := NominalControls(p)

	for _, tds := range []float64{0, 1000, 2500, 10000, 50000} {
		// Step recomputes TDSFeed from the diurnal drift; an amplitude of
		// tds-base puts the drift's peak (t = 6 h) exactly at tds.
		pt := p
		pt.TDSRawAmp = tds - p.TDSRawBase
		pr := NewProcess(pt)
		s := InitialTrueState(pt)
		s.T = 6*3600 - 1
		if err := pr.Step(&s, controls, 1.0); err != nil {
			t.Fatalf("tds=%v: %v", tds, err)
		}
		if s.QFeed <= Epsilon {
			continue
		}
		recovery := s.QPerm / s.QFeed
		if recovery < 0.55-1e-9 || recovery > 0.82+1e-9 {
			t.Fatalf("tds=%v: recovery %v out of clamp", tds, recovery)
		}
		if s.TDSFeed > 0 {
			saltReject := 1 - s.TDSPerm/s.TDSFeed
			if saltReject < 0.90-1e-9 || saltReject > 0.99+1e-9 {
				t.Fatalf("tds=%v: salt rejection %v out of clamp", tds, saltReject)
			}
		}
	}
}

func TestWellfieldOffDrainsClearwell(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	controls := NominalControls(p)
	if err := pr.Step(&s, controls, 1.0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 899; i++ {
		pr.Step(&s, controls, 1.0)
	}

	controls.WellfieldOn = false
	prevLevel := s.LevelClearwell
	for i := 0; i < 600; i++ {
		if err := pr.Step(&s, controls, 1.0); err != nil {
			t.Fatal(err)
		}
		if s.LevelClearwell > prevLevel+1e-9 {
			t.Fatalf("tick %d: clearwell level rose from %v to %v with wellfield off", i, prevLevel, s.LevelClearwell)
		}
		prevLevel = s.LevelClearwell
	}
	if s.QFeed >= 0.1 {
		t.Fatalf("expected Q_feed < 0.1 after wellfield off, got %v", s.QFeed)
	}
	if s.QPerm != 0 {
		t.Fatalf("expected Q_perm == 0 after wellfield drains feed, got %v", s.QPerm)
	}
}

func TestROOffStepIsImmediate(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	controls := NominalControls(p)
	for i := 0; i < 900; i++ {
		pr.Step(&s, controls, 1.0)
	}

	controls.ROOn = false
	if err := pr.Step(&s, controls, 1.0); err != nil {
		t.Fatal(err)
	}
	if s.QPerm != 0 {
		t.Fatalf("expected Q_perm == 0 immediately after RO off, got %v", s.QPerm)
	}
	if s.QBrine != s.QFeed {
		t.Fatalf("expected Q_brine == Q_feed immediately after RO off, got %v vs %v", s.QBrine, s.QFeed)
	}
	if s.DPROTrue != 0 {
		t.Fatalf("expected dP_ro_true == 0 immediately after RO off, got %v", s.DPROTrue)
	}
}

func TestSteadyStateScenario(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	controls := NominalControls(p)
	for i := 0; i < 900; i++ {
		if err := pr.Step(&s, controls, 1.0); err != nil {
			t.Fatalf("warmup step %d: %v", i, err)
		}
	}

	if math.Abs(s.QFeed-100) > 5 {
		t.Errorf("Q_feed = %v, want ~100", s.QFeed)
	}
	if math.Abs(s.QPerm-75) > 8 {
		t.Errorf("Q_perm = %v, want ~75", s.QPerm)
	}
	if s.TDSPerm < 60 || s.TDSPerm > 110 {
		t.Errorf("TDS_perm = %v, want in [60,110]", s.TDSPerm)
	}
	if s.PHTrue < 6.8 || s.PHTrue > 7.2 {
		t.Errorf("pH_true = %v, want in [6.8,7.2]", s.PHTrue)
	}
	if s.ClTrue < 0.7 || s.ClTrue > 1.1 {
		t.Errorf("Cl_true = %v, want in [0.7,1.1]", s.ClTrue)
	}
}

func TestDiurnalDrift(t *testing.T) {
	p := DefaultParameters()
	s := TrueState{}
	for hour := 0; hour < 24; hour++ {
		tSec := float64(hour) * 3600.0
		driftRawWater(&s, p, tSec)
		theta := 2 * math.Pi * float64(hour) / 24
		want := p.TDSRawBase + p.TDSRawAmp*math.Sin(theta)
		if math.Abs(s.TDSFeed-want) > 1.0 {
			t.Errorf("hour %d: TDSFeed = %v, want ~%v", hour, s.TDSFeed, want)
		}
	}
}

func TestDemandSpikeEmptiesClearwell(t *testing.T) {
	p := DefaultParameters()
	pr := NewProcess(p)
	s := InitialTrueState(p)
	controls := NominalControls(p)
	for i := 0; i < 900; i++ {
		pr.Step(&s, controls, 1.0)
	}

	controls.QOutSP = 180
	for i := 0; i < 20000; i++ {
		if err := pr.Step(&s, controls, 1.0); err != nil {
			t.Fatal(err)
		}
	}
	if s.LevelClearwell < 0 {
		t.Fatalf("clearwell level went negative: %v", s.LevelClearwell)
	}
	if s.VClearwell != 0 && s.LevelClearwell > 0.1 {
		t.Errorf("expected clearwell to empty under sustained demand spike, level = %v", s.LevelClearwell)
	}
}
