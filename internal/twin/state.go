package twin

// TrueState is the physical truth of the plant, mutated only by the process
// model (spec.md §3). Time t advances monotonically and is never read from
// the wall clock by the model itself.
type TrueState struct {
	T float64 // simulated time, s

	QFeed, QPerm, QBrine, QOut float64 // m3/h
	TDSFeed, TDSPerm, TDSBrine float64 // mg/L
	H2SFeed, H2SOut            float64 // mg/L
	PHTrue                     float64
	ClTrue                     float64 // mg/L
	DPROTrue                   float64 // bar

	VClearwell     float64 // m3
	LevelClearwell float64 // m
}

// MeasuredState holds the lag-filtered companion of every instrumented true
// PV (spec.md §4.1). Sensors are the only writers.
type MeasuredState struct {
	QFeedMeas            float64
	QPermMeas            float64
	LevelClearwellMeas   float64
	PHMeas               float64
	ClMeas               float64
	DPROMeas             float64
}

// InitialTrueState returns a plausible cold-start true state: the raw-water
// drift formula evaluated at t=0, pumps at rest, clearwell at its
// configured initial volume, pH at 7.0, chlorine at zero. Warmup (spec.md §3
// lifecycle) is expected to run several hundred steps from this point
// before the plant is considered representative of the nominal scenario.
func InitialTrueState(p Parameters) TrueState {
	s := TrueState{
		VClearwell: p.ClearwellInit,
		PHTrue:     7.0,
		ClTrue:     0.0,
	}
	s.LevelClearwell = s.VClearwell / p.ClearwellArea
	driftRawWater(&s, p, 0)
	return s
}
