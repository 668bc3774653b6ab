// Package driver implements the simulation driver (spec.md §4.6): a
// ticker-driven task that each tick reads controls from the fieldbus
// gateway's register bank, advances the plant, and writes back the
// resulting measurements. Grounded on the ticker/stop-channel/WaitGroup
// shutdown shape of ratelimiter/core/worker.go's commitLoop, generalized
// from a variable-interval commit/eviction pair to a single fixed-period
// read-step-write cycle.
package driver

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pg-ot/dvwtp/internal/gateway"
	"github.com/pg-ot/dvwtp/internal/metrics"
	"github.com/pg-ot/dvwtp/internal/registermap"
	"github.com/pg-ot/dvwtp/internal/twin"
)

// Driver owns the ticker that advances the plant once per period and keeps
// it synchronized with the gateway's register bank.
type Driver struct {
	plant  *twin.Plant
	bank   *gateway.Bank
	period time.Duration
	log    zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  bool
	mu       sync.Mutex

	lastControls twin.Controls
}

// New constructs a Driver. period should equal the configured dt as a
// time.Duration (spec.md §4.6's target is 1 s).
func New(plant *twin.Plant, bank *gateway.Bank, period time.Duration, log zerolog.Logger) *Driver {
	return &Driver{
		plant:        plant,
		bank:         bank,
		period:       period,
		log:          log,
		stopChan:     make(chan struct{}),
		lastControls: twin.NominalControls(plant.Parameters()),
	}
}

// Start launches the driver loop in a background goroutine.
func (d *Driver) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run()
	}()
}

// Stop signals the loop to exit at its next sleep boundary and waits for it
// to finish (spec.md §5: "The driver responds to a shutdown signal at its
// sleep boundary").
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()
	close(d.stopChan)
	d.wg.Wait()
}

func (d *Driver) run() {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	dt := d.period.Seconds()
	for {
		select {
		case <-ticker.C:
			d.tick(dt)
		case <-d.stopChan:
			return
		}
	}
}

// tick performs one full read-decode-step-encode-write cycle. It never
// returns an error: every failure mode named in spec.md §7 is logged and
// absorbed so the loop always continues.
func (d *Driver) tick(dt float64) {
	start := time.Now()
	defer func() {
		metrics.TickDuration.Observe(time.Since(start).Seconds())
		metrics.TicksTotal.Inc()
	}()

	controls, damageInputs, ok := d.readControls()
	if !ok {
		metrics.DriverReadFailures.Inc()
		controls = d.lastControls
		d.log.Warn().Msg("register bank read failed, reusing last-known controls")
	} else {
		d.lastControls = controls
	}

	if ok && d.plant.DamageEnabled() {
		d.plant.SetValves(damageInputs)
	}

	if err := d.plant.Step(controls, dt); err != nil {
		d.log.Error().Err(err).Msg("process step failed")
		return
	}

	if err := d.writeMeasurements(); err != nil {
		metrics.DriverWriteFailures.Inc()
		d.log.Warn().Err(err).Msg("register bank write failed, measurements skipped this tick")
	}
}

// readControls reads coils 0-2 and holdings 100-102 (plus, when the
// damage-model variant is enabled, the added valve coils) and decodes them.
// ok is false if the coil or setpoint read failed, in which case the caller
// must fall back to its last-known controls (spec.md §7). A failed
// valve-coil read leaves ok true and reports every valve open.
func (d *Driver) readControls() (twin.Controls, twin.Valves, bool) {
	coilVals, err := d.bank.ReadCoils(registermap.CoilWellfieldOn, 3)
	if err != nil {
		return twin.Controls{}, twin.Valves{}, false
	}
	holdingVals, err := d.bank.ReadHoldings(registermap.HoldingNaOHDose, 3)
	if err != nil {
		return twin.Controls{}, twin.Valves{}, false
	}

	var coils [3]bool
	copy(coils[:], coilVals)
	var setpoints [3]uint16
	copy(setpoints[:], holdingVals)
	controls := registermap.DecodeControls(coils, setpoints)

	valves := twin.OpenValves()
	if d.plant.DamageEnabled() {
		valveVals, err := d.bank.ReadCoils(registermap.CoilValveWell101, 5)
		if err == nil {
			var raw [5]bool
			copy(raw[:], valveVals)
			valves = registermap.DecodeValves(raw)
		}
	}
	return controls, valves, true
}

// writeMeasurements encodes the plant's current measured state (plus health
// registers when the damage-model variant is enabled) into the register
// bank.
func (d *Driver) writeMeasurements() error {
	trueState, measured := d.plant.Snapshot()
	values := registermap.EncodeMeasurements(measured, trueState.TDSPerm)
	if err := d.bank.WriteHoldings(registermap.HoldingQFeedMeas, values[:]); err != nil {
		return err
	}

	if damage, ok := d.plant.DamageSnapshot(); ok {
		metrics.MembraneHealth.Set(damage.Health.Membrane)
		health := registermap.EncodeHealth(damage.Health)
		if err := d.bank.WriteHoldings(registermap.HoldingHealthMembrane, health[:]); err != nil {
			return err
		}
	}
	return nil
}
