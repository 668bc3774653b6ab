package twin

import "sync"

// Plant aggregates the deterministic process model, its instrumentation,
// and the optional damage-model variant behind a single mutex, so Step and
// Snapshot are mutually exclusive (spec.md §5: "plant state guarded by a
// mutex distinct from the register bank's"). A nil DamageState disables
// the damage-model variant entirely; Step then behaves exactly as the
// canonical process model alone.
type Plant struct {
	mu sync.Mutex

	params  Parameters
	process *Process
	true_   TrueState
	instr   *Instrumentation

	damage *DamageState
	valves Valves
	rates  DamageRates
}

// NewPlant constructs a Plant at cold-start initial conditions. Passing
// withDamage=true enables the equipment-health/damage-model variant with
// its default rates and fully open valves.
func NewPlant(p Parameters, withDamage bool) *Plant {
	initial := InitialTrueState(p)
	pl := &Plant{
		params:  p,
		process: NewProcess(p),
		true_:   initial,
		instr:   NewInstrumentation(initial, p.TauPH),
		valves:  OpenValves(),
	}
	if withDamage {
		d := NewDamageState()
		pl.damage = &d
		pl.rates = DefaultDamageRates()
	}
	return pl
}

// Warmup runs n fixed dt-second steps under the given controls without
// returning intermediate snapshots, bringing the plant from cold start to
// a representative operating point (spec.md §3 lifecycle).
func (pl *Plant) Warmup(n int, controls Controls, dt float64) error {
	for i := 0; i < n; i++ {
		if err := pl.Step(controls, dt); err != nil {
			return err
		}
	}
	return nil
}

// SetValves updates the auxiliary field-valve positions the damage model
// checks. It is a no-op when the damage-model variant is disabled.
func (pl *Plant) SetValves(v Valves) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.damage == nil {
		return
	}
	pl.valves = v
}

// Valves returns the current auxiliary valve positions.
func (pl *Plant) Valves() Valves {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.valves
}

// DamageEnabled reports whether this Plant was constructed with the
// damage-model variant active.
func (pl *Plant) DamageEnabled() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.damage != nil
}

// Step advances the plant by dt seconds under the given controls: the
// canonical process model runs first, then (if enabled) the damage model
// reads its outputs and attenuates this tick's RO salt rejection by
// scaling TDSPerm back up toward TDSFeed in proportion to lost membrane
// health. Sensors step last against the post-damage true state, exactly
// matching spec.md §4.2 step 10's position in the tick order.
func (pl *Plant) Step(controls Controls, dt float64) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	controls.Clamp()
	qWellfieldBefore := pl.true_.QFeed

	if err := pl.process.Step(&pl.true_, controls, dt); err != nil {
		return err
	}

	if pl.damage != nil {
		pl.damage.Step(controls, pl.valves, qWellfieldBefore, pl.true_.QFeed,
			pl.true_.LevelClearwell, pl.true_.ClTrue, pl.rates, dt)

		attenuation := pl.damage.SaltRejectionAttenuation()
		if attenuation < 1.0 {
			// Lost membrane integrity passes more salt through: TDSPerm
			// relaxes toward TDSFeed as health falls toward zero.
			pl.true_.TDSPerm = pl.true_.TDSPerm + (1-attenuation)*(pl.true_.TDSFeed-pl.true_.TDSPerm)
		}
	}

	pl.instr.StepAll(pl.true_, dt)
	return nil
}

// Snapshot returns copies of the true and measured state under the plant
// mutex, safe to read concurrently with further Step calls from a caller's
// perspective (the copy, not the live state, is handed back).
func (pl *Plant) Snapshot() (TrueState, MeasuredState) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.true_, pl.instr.Measured()
}

// DamageSnapshot returns a copy of the current damage state and whether the
// damage-model variant is enabled.
func (pl *Plant) DamageSnapshot() (DamageState, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.damage == nil {
		return DamageState{}, false
	}
	return *pl.damage, true
}

// ResetDamage restores every health score to 100, the only way damage
// recovers (spec.md §4.3). It is a no-op when the damage model is disabled.
func (pl *Plant) ResetDamage() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.damage != nil {
		pl.damage.Reset()
	}
}

// Parameters returns the immutable parameter set the plant was constructed
// with.
func (pl *Plant) Parameters() Parameters {
	return pl.params
}
