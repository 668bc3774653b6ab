package twin

// Controls is the externally driven, discrete+continuous control surface of
// the plant (spec.md §3). It is decoded from the register bank once per
// driver tick; the process model never mutates it.
type Controls struct {
	WellfieldOn bool
	ROOn        bool
	DistPumpOn  bool

	NaOHDose float64 // mg/L, clamped to [0, 50]
	ClDose   float64 // mg/L, clamped to [0, 10]
	QOutSP   float64 // m3/h, clamped to [0, 200]
}

// Setpoint clamp ranges from spec.md §3. Exported so the register map can
// apply the identical clamp on write without duplicating the magic numbers.
const (
	NaOHDoseMin, NaOHDoseMax = 0.0, 50.0
	ClDoseMin, ClDoseMax     = 0.0, 10.0
	QOutSPMin, QOutSPMax     = 0.0, 200.0
)

// Clamp bounds every continuous setpoint into its spec-mandated range.
// Setpoint writes outside range are clamped, never rejected (spec.md §8).
func (c *Controls) Clamp() {
	c.NaOHDose = clamp(c.NaOHDose, NaOHDoseMin, NaOHDoseMax)
	c.ClDose = clamp(c.ClDose, ClDoseMin, ClDoseMax)
	c.QOutSP = clamp(c.QOutSP, QOutSPMin, QOutSPMax)
}

// NominalControls returns the nominal steady-state controls used by the
// warmup lifecycle and spec.md §8's end-to-end scenarios.
func NominalControls(p Parameters) Controls {
	return Controls{
		WellfieldOn: true,
		ROOn:        true,
		DistPumpOn:  true,
		NaOHDose:    p.NaOHDoseNominal,
		ClDose:      p.ClDoseNominal,
		QOutSP:      p.QOutNominal,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func maxEps(v float64) float64 {
	if v < Epsilon {
		return Epsilon
	}
	return v
}
