package twin

import (
	"fmt"
	"math"
)

// Process is the deterministic treatment-train simulation: one call to
// Step advances TrueState by dt seconds in the fixed order spec.md §4.2
// requires (wellfield -> RO -> degas -> pH -> distribution -> clearwell ->
// chlorine). It holds no state of its own beyond the immutable Parameters,
// so a Process value is safe to reuse across ticks and safe to share for
// reads between ticks as long as callers do not call Step concurrently
// (Plant enforces that with its own mutex).
type Process struct {
	Params Parameters
}

// NewProcess constructs a Process bound to the given parameter set.
func NewProcess(p Parameters) *Process {
	return &Process{Params: p}
}

// naohUtilization is the fraction of dosed NaOH that remains as free
// hydroxide once in-line carbonate/CO2 buffering is accounted for.
const naohUtilization = 8e-4

// Step advances state by dt seconds under the given controls, mutating
// state in place. dt must be positive; all other degeneracies (tiny
// denominators, non-positive logs) are prevented by construction via
// max(x, Epsilon) guards, per spec.md §7.
func (pr *Process) Step(state *TrueState, controls Controls, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("twin: dt must be positive, got %v", dt)
	}
	p := pr.Params

	// 1. Time advance.
	state.T += dt

	// 2. Raw water drift (deterministic; the only source of "noise").
	driftRawWater(state, p, state.T)

	// 3. Wellfield ramp.
	qFeedTarget := 0.0
	if controls.WellfieldOn {
		qFeedTarget = p.QWellNom
	}
	state.QFeed += (dt / p.TauPump) * (qFeedTarget - state.QFeed)
	state.QFeed = max0(state.QFeed)

	// 4. RO unit (algebraic each tick).
	if controls.ROOn && state.QFeed > Epsilon {
		delta := max0((state.TDSFeed - p.TDSRawBase) / 1000.0) // g/L
		recovery := clamp(p.RORecoveryClean-p.RORecoveryDTDS*delta, 0.55, 0.82)
		saltReject := clamp(p.ROSaltRejectClean-p.ROSaltRejectDTDS*delta, 0.90, 0.99)

		state.QPerm = recovery * state.QFeed
		state.QBrine = (1 - recovery) * state.QFeed
		state.TDSPerm = (1 - saltReject) * state.TDSFeed
		state.TDSBrine = (state.QFeed*state.TDSFeed - state.QPerm*state.TDSPerm) / maxEps(state.QBrine)
		state.DPROTrue = p.DPCleanBar + p.DPDTDSBar*delta
	} else {
		state.QPerm = 0
		state.QBrine = state.QFeed
		// TDSPerm/TDSBrine carried over from the previous tick.
		state.DPROTrue = 0
	}
	state.QPerm = max0(state.QPerm)
	state.QBrine = max0(state.QBrine)
	state.TDSPerm = max0(state.TDSPerm)
	state.TDSBrine = max0(state.TDSBrine)

	// 5. Degas.
	state.H2SOut = max0((1 - p.DegasEfficiency) * state.H2SFeed)

	// 6. pH buffer dynamics. naohUtilization accounts for in-line
	// carbonate/CO2 buffering: only a small fraction of dosed caustic
	// survives as free hydroxide by the time it reaches the pH probe.
	alkalinity := p.AlkalinityMeq * 1e-3 // mol/L
	added := (max0(controls.NaOHDose) / 40000.0) * naohUtilization
	hPlus := math.Pow(10, -state.PHTrue)
	ohMinus := alkalinity + added - hPlus
	if ohMinus < 1e-12 {
		ohMinus = 1e-12
	}
	phTarget := 14 + math.Log10(ohMinus)
	state.PHTrue += (dt / p.TauPH) * (phTarget - state.PHTrue)

	// 7. Distribution pump ramp.
	qOutTarget := 0.0
	if controls.DistPumpOn {
		qOutTarget = max0(controls.QOutSP)
	}
	state.QOut += (dt / p.TauPump) * (qOutTarget - state.QOut)
	state.QOut = max0(state.QOut)

	// 8. Clearwell mass balance.
	vNew := state.VClearwell + (state.QPerm-state.QOut)*dt/3600.0
	vNew = max0(vNew)
	state.VClearwell = vNew
	state.LevelClearwell = vNew / p.ClearwellArea

	// 9. Chlorine CSTR.
	kCl := p.KClBase * (1 +
		p.KClPHGain*max0(state.PHTrue-7) +
		p.KClTempGain*max0(p.BulkTempC-20))
	var dCdt float64
	if vNew > Epsilon {
		dCdt = (state.QPerm/vNew)*(max0(controls.ClDose)-state.ClTrue) - kCl*state.ClTrue
	} else {
		dCdt = -p.KClBase * state.ClTrue
	}
	state.ClTrue = max0(state.ClTrue + (dt/3600.0)*dCdt)

	return nil
}

// driftRawWater applies spec.md §4.2 step 2's diurnal sinusoid to the raw
// feed water quality. It is the only place "noise" enters the model and is
// a pure function of simulated time, never wall-clock time.
func driftRawWater(state *TrueState, p Parameters, t float64) {
	theta := 2 * math.Pi * math.Mod(t/3600.0, 24) / 24
	state.TDSFeed = max0(p.TDSRawBase + p.TDSRawAmp*math.Sin(theta))
	state.H2SFeed = max0(p.H2SRawBase + p.H2SRawAmp*math.Sin(theta+math.Pi/4))
}
