package twin

import "testing"

func TestClampKeepsSetpointsInRange(t *testing.T) {
	c := Controls{NaOHDose: 1000, ClDose: -5, QOutSP: 9000}
	c.Clamp()
	if c.NaOHDose != NaOHDoseMax {
		t.Errorf("NaOHDose = %v, want %v", c.NaOHDose, NaOHDoseMax)
	}
	if c.ClDose != ClDoseMin {
		t.Errorf("ClDose = %v, want %v", c.ClDose, ClDoseMin)
	}
	if c.QOutSP != QOutSPMax {
		t.Errorf("QOutSP = %v, want %v", c.QOutSP, QOutSPMax)
	}
}

func TestClampIsIdempotentWithinRange(t *testing.T) {
	c := Controls{NaOHDose: 5, ClDose: 1, QOutSP: 80}
	c.Clamp()
	if c.NaOHDose != 5 || c.ClDose != 1 || c.QOutSP != 80 {
		t.Fatalf("in-range values were altered: %+v", c)
	}
}

func TestNominalControlsMatchesParameters(t *testing.T) {
	p := DefaultParameters()
	c := NominalControls(p)
	if !c.WellfieldOn || !c.ROOn || !c.DistPumpOn {
		t.Fatal("nominal controls must have all three pumps on")
	}
	if c.NaOHDose != p.NaOHDoseNominal || c.ClDose != p.ClDoseNominal || c.QOutSP != p.QOutNominal {
		t.Fatalf("nominal controls do not match parameters: %+v vs %+v", c, p)
	}
}
