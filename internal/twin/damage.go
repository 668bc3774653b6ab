package twin

// Valves mirrors the field valve controls original_source/twin.py keeps
// (valve_101_open, valve_201_open, valve_202_open, valve_203_open,
// valve_401_open) but the canonical register map (spec.md §4.4) does not
// expose. They exist only to make the interlock conditions of spec.md
// §4.3 checkable; the canonical three booleans plus three setpoints in
// Controls are untouched by their presence. All five default open.
type Valves struct {
	Well101Open   bool // wellfield discharge
	Feed201Open   bool // RO feed pump discharge
	Feed202Open   bool // downstream of RO feed pump
	Feed203Open   bool // downstream of RO feed pump
	Dist401Open   bool // distribution pump discharge
}

// OpenValves returns all five valves in their default, fully-open state.
func OpenValves() Valves {
	return Valves{true, true, true, true, true}
}

// EquipmentHealth holds the per-component health scores in [0,100] that
// accrue irreversible wear while an interlock is violated (spec.md §4.3).
// They never recover except via Reset.
type EquipmentHealth struct {
	Membrane float64
	PumpWell float64
	PumpFeed float64
	PumpDist float64
	PipeWell float64
	PipeFeed float64
	PipeDist float64
}

// FullHealth returns every component at 100% health.
func FullHealth() EquipmentHealth {
	return EquipmentHealth{100, 100, 100, 100, 100, 100, 100}
}

// DamageRates holds the per-second decay rates for every interlock
// violation named in spec.md §4.3. Setting every field to zero yields
// the damage-free variant described in the spec's Open Questions.
type DamageRates struct {
	WellDeadhead   float64 // well pump vs closed outlet valve
	FeedSuction    float64 // RO feed pump, insufficient suction head
	FeedDeadhead   float64 // RO feed pump vs closed downstream
	DistDry        float64 // distribution pump running dry
	DistDeadhead   float64 // distribution pump vs closed outlet
	PipeWell       float64 // well segment overpressure
	PipeFeed       float64 // feed segment overpressure
	PipeDist       float64 // distribution segment overpressure
	MembraneChlor  float64 // residual chlorine attacking the membrane
	MembraneOverP  float64 // feed overpressure attacking the membrane
}

// DefaultDamageRates returns the rates spec.md §4.3 specifies.
func DefaultDamageRates() DamageRates {
	return DamageRates{
		WellDeadhead:  0.3,
		FeedSuction:   0.5,
		FeedDeadhead:  0.5,
		DistDry:       0.5,
		DistDeadhead:  0.3,
		PipeWell:      0.2,
		PipeFeed:      0.5,
		PipeDist:      0.3,
		MembraneChlor: 0.2,
		MembraneOverP: 1.0,
	}
}

// ZeroDamageRates returns every rate at zero: the damage-free variant.
func ZeroDamageRates() DamageRates { return DamageRates{} }

// Interlock thresholds named in spec.md §4.3.
const (
	MinSuctionHead        = 0.2  // m, below this the RO feed pump runs dry
	MembraneChlorineLimit = 0.1  // mg/L, above this the membrane is attacked
	MembraneOverPressure  = 20.0 // bar, feed pressure above this attacks the membrane
	PipeWellOverPressure  = 10.0 // bar
	PipeFeedOverPressure  = 20.0 // bar
	PipeDistOverPressure  = 12.0 // bar

	feedTankArea       = 10.0 // m2, auxiliary RO feed tank (original_source)
	feedTankMax        = 5.0  // m
	pressureTau        = 2.0  // s, pressure ramp time constant (original_source uses 0.5/tick at dt=1s)
	wellPressureOpen   = 3.0  // bar, well pump target pressure, valve open
	wellPressureClosed = 12.0 // bar, well pump target pressure, valve closed
	feedPressureOpen   = 12.0 // bar
	feedPressureClosed = MembraneOverPressure * 2.0
	feedPressureBlocked = MembraneOverPressure * 2.2
	distPressureOpen   = 4.0  // bar
	distPressureClosed = 15.0 // bar
)

// DamageState is the auxiliary state the damage-model variant needs beyond
// the canonical TrueState: equipment health, the RO feed tank it reads
// suction head from, and the three pipe-segment pressures whose thresholds
// drive pipe wear. None of it is read by the canonical Process.Step; it is
// advanced in its own Step, strictly after the canonical process step, so
// the order and invariants of spec.md §4.2 are undisturbed.
type DamageState struct {
	Health        EquipmentHealth
	LevelFeedTank float64
	PressureWell  float64
	PressureFeed  float64
	PressureDist  float64
}

// NewDamageState returns a fresh damage state: full health, feed tank at
// half capacity, pressures at rest.
func NewDamageState() DamageState {
	return DamageState{
		Health:        FullHealth(),
		LevelFeedTank: feedTankMax / 2,
	}
}

// Reset restores every health score to 100; the only way health recovers.
func (d *DamageState) Reset() {
	d.Health = FullHealth()
}

// SaltRejectionAttenuation returns the multiplicative factor the membrane's
// current health applies to the RO salt-rejection fraction computed by
// Process.Step (spec.md §4.3 "Membrane health multiplicatively attenuates
// salt rejection").
func (d DamageState) SaltRejectionAttenuation() float64 {
	return d.Health.Membrane / 100.0
}

// Step advances the damage model by dt seconds: it derives the auxiliary
// feed-tank mass balance and pump/pipe pressures from controls and valve
// state (recovered from original_source/twin.py, since the canonical
// control surface has no valves), then decrements health for every
// violated interlock. qWellfield is the flow into the auxiliary feed tank
// and qFeed the flow drawn from it; Plant passes the canonical QFeed from
// before and after this tick's process step.
func (d *DamageState) Step(controls Controls, valves Valves, qWellfield, qFeed, levelClearwell, clTrue float64, rates DamageRates, dt float64) {
	// Auxiliary pump target pressures, mirroring the ramp the canonical
	// process model uses for flow (design note: "Implementations may
	// substitute semi-implicit updates").
	targetPWell := 0.0
	if controls.WellfieldOn {
		if valves.Well101Open {
			targetPWell = wellPressureOpen
		} else {
			targetPWell = wellPressureClosed
		}
	}
	suctionOK := d.LevelFeedTank > MinSuctionHead
	targetPFeed := 0.0
	if controls.ROOn && suctionOK {
		if valves.Feed201Open {
			if valves.Feed202Open && valves.Feed203Open {
				targetPFeed = feedPressureOpen
			} else {
				targetPFeed = feedPressureClosed
			}
		} else {
			targetPFeed = feedPressureBlocked
		}
	}
	targetPDist := 0.0
	if controls.DistPumpOn && levelClearwell > 0.1 {
		if valves.Dist401Open {
			targetPDist = distPressureOpen
		} else {
			targetPDist = distPressureClosed
		}
	}
	d.PressureWell += (dt / pressureTau) * (targetPWell - d.PressureWell)
	d.PressureFeed += (dt / pressureTau) * (targetPFeed - d.PressureFeed)
	d.PressureDist += (dt / pressureTau) * (targetPDist - d.PressureDist)

	// Auxiliary RO feed tank mass balance: wellfield fills it, RO feed
	// draws it down.
	dV := (qWellfield - qFeed) * dt / 3600.0
	d.LevelFeedTank = clamp(d.LevelFeedTank+dV/feedTankArea, 0, feedTankMax)

	// Interlock violations and their decay, per spec.md §4.3.
	if controls.WellfieldOn && !valves.Well101Open {
		d.Health.PumpWell = decay(d.Health.PumpWell, rates.WellDeadhead, dt)
	}
	if controls.ROOn && !suctionOK {
		d.Health.PumpFeed = decay(d.Health.PumpFeed, rates.FeedSuction, dt)
	}
	if controls.ROOn && suctionOK && !valves.Feed201Open {
		d.Health.PumpFeed = decay(d.Health.PumpFeed, rates.FeedDeadhead, dt)
	}
	if controls.DistPumpOn && levelClearwell < 0.2 {
		d.Health.PumpDist = decay(d.Health.PumpDist, rates.DistDry, dt)
	}
	if controls.DistPumpOn && !valves.Dist401Open {
		d.Health.PumpDist = decay(d.Health.PumpDist, rates.DistDeadhead, dt)
	}
	if d.PressureWell > PipeWellOverPressure {
		d.Health.PipeWell = decay(d.Health.PipeWell, rates.PipeWell, dt)
	}
	if d.PressureFeed > PipeFeedOverPressure {
		d.Health.PipeFeed = decay(d.Health.PipeFeed, rates.PipeFeed, dt)
	}
	if d.PressureDist > PipeDistOverPressure {
		d.Health.PipeDist = decay(d.Health.PipeDist, rates.PipeDist, dt)
	}
	if clTrue > MembraneChlorineLimit && qFeed > 0 {
		d.Health.Membrane = decay(d.Health.Membrane, rates.MembraneChlor, dt)
	}
	if d.PressureFeed > MembraneOverPressure {
		d.Health.Membrane = decay(d.Health.Membrane, rates.MembraneOverP, dt)
	}
}

func decay(health, ratePerSec, dt float64) float64 {
	return max0(health - ratePerSec*dt)
}
