package twin

// PVKey identifies an instrumented true process variable. Using a small
// enum instead of the source's string-keyed state bag (design note
// "Dict of floats" state bag) lets the compiler catch a mismatched sensor
// wiring instead of discovering it at runtime.
type PVKey int

const (
	PVQFeed PVKey = iota
	PVQPerm
	PVLevelClearwell
	PVPH
	PVCl
	PVDPRO
)

// Sensor is a first-order lag from one true PV to its measured companion:
// meas <- meas + (dt/tau)*(pv - meas). No noise, no bias, no saturation.
// Sensors read PVs and write only their own measurement slot, so a slice
// of Sensors can be stepped in any order within one tick without
// interfering with each other (spec.md §4.1).
type Sensor struct {
	PV   PVKey
	Tau  float64
	Meas float64
}

// NewSensor constructs a sensor whose measurement starts equal to the PV.
func NewSensor(pv PVKey, tau, initial float64) *Sensor {
	return &Sensor{PV: pv, Tau: tau, Meas: initial}
}

// Step applies one lag update given the current true PV value.
func (s *Sensor) Step(pv float64, dt float64) {
	s.Meas += (dt / maxEps(s.Tau)) * (pv - s.Meas)
}

// Instrumentation bundles the six instrumented PVs in the fixed order
// spec.md §4.4/§4.6 encodes them into holding registers.
type Instrumentation struct {
	QFeed          *Sensor
	QPerm          *Sensor
	LevelClearwell *Sensor
	PH             *Sensor
	Cl             *Sensor
	DPRO           *Sensor
}

// NewInstrumentation constructs the six sensors initialized from the given
// true state, each with the given lag time constant.
func NewInstrumentation(state TrueState, tau float64) *Instrumentation {
	return &Instrumentation{
		QFeed:          NewSensor(PVQFeed, tau, state.QFeed),
		QPerm:          NewSensor(PVQPerm, tau, state.QPerm),
		LevelClearwell: NewSensor(PVLevelClearwell, tau, state.LevelClearwell),
		PH:             NewSensor(PVPH, tau, state.PHTrue),
		Cl:             NewSensor(PVCl, tau, state.ClTrue),
		DPRO:           NewSensor(PVDPRO, tau, state.DPROTrue),
	}
}

// ordered returns the six sensors in the fixed iteration order spec.md
// §4.6 step 3/§4.4 require: feed flow, permeate flow, clearwell level, pH,
// chlorine, RO differential pressure.
func (i *Instrumentation) ordered() [6]*Sensor {
	return [6]*Sensor{i.QFeed, i.QPerm, i.LevelClearwell, i.PH, i.Cl, i.DPRO}
}

// StepAll steps every sensor against its true PV (spec.md §4.2 step 10)
// and returns the resulting measured state.
func (i *Instrumentation) StepAll(state TrueState, dt float64) MeasuredState {
	trueValues := [6]float64{
		state.QFeed, state.QPerm, state.LevelClearwell,
		state.PHTrue, state.ClTrue, state.DPROTrue,
	}
	sensors := i.ordered()
	for idx, s := range sensors {
		s.Step(trueValues[idx], dt)
	}
	return MeasuredState{
		QFeedMeas:          i.QFeed.Meas,
		QPermMeas:          i.QPerm.Meas,
		LevelClearwellMeas: i.LevelClearwell.Meas,
		PHMeas:             i.PH.Meas,
		ClMeas:             i.Cl.Meas,
		DPROMeas:           i.DPRO.Meas,
	}
}

// Measured returns the current measured state without stepping.
func (i *Instrumentation) Measured() MeasuredState {
	return MeasuredState{
		QFeedMeas:          i.QFeed.Meas,
		QPermMeas:          i.QPerm.Meas,
		LevelClearwellMeas: i.LevelClearwell.Meas,
		PHMeas:             i.PH.Meas,
		ClMeas:             i.Cl.Meas,
		DPROMeas:           i.DPRO.Meas,
	}
}
