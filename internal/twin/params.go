// Package twin implements the physical-process and instrumentation model of
// the digital twin: the deterministic treatment-train simulation (wells -> RO
// -> degas -> pH -> clearwell -> chlorination), its first-order-lag
// instrumentation layer, and the optional equipment-health/damage variant.
package twin

import "fmt"

// Parameters holds the immutable physical/chemical constants and nominal
// setpoints of the plant. A Parameters value never changes after
// construction; every mutable quantity lives in TrueState/MeasuredState/
// DamageState instead.
type Parameters struct {
	QWellNom float64 // nominal wellfield flow, m3/h

	TDSRawBase, TDSRawAmp float64 // raw water TDS base/amplitude, mg/L
	H2SRawBase, H2SRawAmp float64 // raw water H2S base/amplitude, mg/L

	RORecoveryClean, RORecoveryDTDS         float64 // RO clean recovery and its TDS sensitivity
	ROSaltRejectClean, ROSaltRejectDTDS     float64 // RO clean salt rejection and its TDS sensitivity
	DPCleanBar, DPDTDSBar                   float64 // clean and TDS-sensitive differential pressure, bar
	DegasEfficiency                         float64 // fraction of H2S stripped

	AlkalinityMeq float64 // meq/L

	NaOHDoseNominal, ClDoseNominal float64 // mg/L
	TauPH                          float64 // pH response time constant, s

	ClearwellArea float64 // m2
	ClearwellInit float64 // initial clearwell volume, m3

	QOutNominal float64 // nominal demand, m3/h
	TauPump     float64 // pump ramp time constant, s

	KClBase, KClPHGain, KClTempGain float64 // bulk chlorine decay rate and its sensitivities
	BulkTempC                       float64 // assumed bulk temperature, deg C

	// PHBase is unused by the buffered pH model (spec open question); kept
	// only so parameter dumps stay backward compatible.
	PHBase float64
}

// Epsilon guards every division and log in the process model against
// zero/tiny denominators.
const Epsilon = 1e-6

// DefaultParameters returns the nominal parameter set used by the
// steady-state scenario: wellfield/RO/distribution on, NaOH 5 mg/L, Cl
// 1 mg/L, demand 75 m3/h (matched to nominal permeate production),
// recovery ~0.75, salt rejection ~0.965.
//
// AlkalinityMeq and the clearwell sizing below are chosen for the point
// pH adjustment and chlorination actually happen at: post-RO permeate,
// not raw feedwater. RO rejects ~97-98% of the raw water's dissolved
// solids, so the stream NaOH_dose is dosed into carries only a residual
// trace of titratable alkalinity — nothing like the 1-5 meq/L typical
// of the untreated source. The clearwell is sized so its hydraulic
// residence time (V/Q_perm) lets chlorine reach its dosed setpoint
// within one warmup cycle, matching a compact contact tank rather than
// a multi-hour distribution reservoir.
func DefaultParameters() Parameters {
	return Parameters{
		QWellNom: 100,

		TDSRawBase: 2500, TDSRawAmp: 300,
		H2SRawBase: 2.5, H2SRawAmp: 0.5,

		RORecoveryClean: 0.75, RORecoveryDTDS: 0.02,
		ROSaltRejectClean: 0.965, ROSaltRejectDTDS: 0.01,
		DPCleanBar: 1.2, DPDTDSBar: 0.05,
		DegasEfficiency: 1.0,

		AlkalinityMeq: 1e-4, // residual post-RO permeate alkalinity, meq/L

		NaOHDoseNominal: 5.0, ClDoseNominal: 1.0,
		TauPH: 120,

		ClearwellArea: 1.0,
		ClearwellInit: 5.0, // level = 5.0 m at A = 1 m2

		QOutNominal: 75,
		TauPump:     20,

		KClBase: 1.2e-5, KClPHGain: 0.6, KClTempGain: 0.02,
		BulkTempC: 20,

		PHBase: 7.0,
	}
}

// Validate checks a parameter set: QWellNom, AlkalinityMeq, TauPH,
// ClearwellArea, ClearwellInit, TauPump and KClBase must be positive, TauPH
// and TauPump at least 1 ms, and DegasEfficiency in [0,1]. No other field
// is checked; a zero or negative value in any of them passes.
func (p Parameters) Validate() error {
	positive := map[string]float64{
		"QWellNom":          p.QWellNom,
		"AlkalinityMeq":      p.AlkalinityMeq,
		"TauPH":              p.TauPH,
		"ClearwellArea":      p.ClearwellArea,
		"ClearwellInit":      p.ClearwellInit,
		"TauPump":            p.TauPump,
		"KClBase":            p.KClBase,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("twin: parameter %s must be positive, got %v", name, v)
		}
	}
	timeConstants := map[string]float64{
		"TauPH":   p.TauPH,
		"TauPump": p.TauPump,
	}
	for name, v := range timeConstants {
		if v < 1e-3 {
			return fmt.Errorf("twin: time constant %s must be >= 1ms, got %v", name, v)
		}
	}
	if p.DegasEfficiency < 0 || p.DegasEfficiency > 1 {
		return fmt.Errorf("twin: DegasEfficiency must be in [0,1], got %v", p.DegasEfficiency)
	}
	return nil
}
