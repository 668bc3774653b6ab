// Package registermap implements the bit-exact, bidirectional projection
// between the plant's Go types and the Modbus coil/holding-register wire
// representation (spec.md §4.4). Grounded on the decode/encode helpers in
// danielkucera/gofutura's regs.go: one constant block of addresses, plain
// scale-and-round conversion functions, no reflection.
package registermap

import (
	"math"

	"github.com/pg-ot/dvwtp/internal/twin"
)

// Canonical coil addresses (spec.md §4.4). Bit-exact; never renumber.
const (
	CoilWellfieldOn = 0
	CoilROOn        = 1
	CoilDistPumpOn  = 2
)

// Canonical holding-register addresses (spec.md §4.4). Bit-exact; never
// renumber. Setpoints (100-102) and measurements (0-6) intentionally
// occupy disjoint ranges, matching the wire map as published.
const (
	HoldingQFeedMeas          = 0
	HoldingQPermMeas          = 1
	HoldingLevelClearwellMeas = 2
	HoldingPHMeas             = 3
	HoldingClMeas             = 4
	HoldingTDSPerm            = 5
	HoldingDPROMeas           = 6

	HoldingNaOHDose = 100
	HoldingClDose   = 101
	HoldingQOutSP   = 102
)

// Added, non-canonical objects that make the damage-model variant's
// interlocks observable and controllable over the fieldbus. These never
// collide with the three canonical coils or seven canonical holdings
// above; an implementation without the damage model simply never reads
// or writes them.
const (
	CoilValveWell101 = 3
	CoilValveFeed201 = 4
	CoilValveFeed202 = 5
	CoilValveFeed203 = 6
	CoilValveDist401 = 7

	HoldingHealthMembrane = 30
	HoldingHealthPumpWell = 31
	HoldingHealthPumpFeed = 32
	HoldingHealthPumpDist = 33
	HoldingHealthPipeWell = 34
	HoldingHealthPipeFeed = 35
	HoldingHealthPipeDist = 36
)

// Scale factors per spec.md §4.4.
const (
	ScaleQFeedMeas          = 10.0
	ScaleQPermMeas          = 10.0
	ScaleLevelClearwellMeas = 100.0
	ScalePHMeas             = 100.0
	ScaleClMeas             = 100.0
	ScaleTDSPerm            = 1.0
	ScaleDPROMeas           = 100.0

	ScaleNaOHDose = 100.0
	ScaleClDose   = 100.0
	ScaleQOutSP   = 10.0

	scaleHealth = 100.0 // health percentages stored ×100 like other quantities
)

// EncodeScaled converts an engineering-unit float to its scaled, saturated
// uint16 wire representation: non-negative clamp, multiply by scale,
// round-half-to-even, saturate to [0, 65535] (spec.md §4.4).
func EncodeScaled(value, scale float64) uint16 {
	if value < 0 {
		value = 0
	}
	scaled := math.RoundToEven(value * scale)
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 65535 {
		scaled = 65535
	}
	return uint16(scaled)
}

// DecodeScaled converts a raw register value back to engineering units by
// dividing by the declared scale.
func DecodeScaled(raw uint16, scale float64) float64 {
	return float64(raw) / scale
}

// DecodeControls builds a Controls value from the three canonical coils and
// three canonical setpoint holdings, clamping setpoints into their
// spec-mandated ranges on the way in (spec.md §8: "setpoint writes outside
// range are clamped, never rejected").
func DecodeControls(coils [3]bool, setpoints [3]uint16) twin.Controls {
	c := twin.Controls{
		WellfieldOn: coils[0],
		ROOn:        coils[1],
		DistPumpOn:  coils[2],
		NaOHDose:    DecodeScaled(setpoints[0], ScaleNaOHDose),
		ClDose:      DecodeScaled(setpoints[1], ScaleClDose),
		QOutSP:      DecodeScaled(setpoints[2], ScaleQOutSP),
	}
	c.Clamp()
	return c
}

// EncodeMeasurements projects a MeasuredState plus the read-only TDSPerm
// true-state value into the seven canonical measurement holdings, in
// register order 0..6.
func EncodeMeasurements(m twin.MeasuredState, tdsPerm float64) [7]uint16 {
	return [7]uint16{
		EncodeScaled(m.QFeedMeas, ScaleQFeedMeas),
		EncodeScaled(m.QPermMeas, ScaleQPermMeas),
		EncodeScaled(m.LevelClearwellMeas, ScaleLevelClearwellMeas),
		EncodeScaled(m.PHMeas, ScalePHMeas),
		EncodeScaled(m.ClMeas, ScaleClMeas),
		EncodeScaled(tdsPerm, ScaleTDSPerm),
		EncodeScaled(m.DPROMeas, ScaleDPROMeas),
	}
}

// EncodeValves projects the five auxiliary field valves into coil values,
// in address order 3..7.
func EncodeValves(v twin.Valves) [5]bool {
	return [5]bool{v.Well101Open, v.Feed201Open, v.Feed202Open, v.Feed203Open, v.Dist401Open}
}

// DecodeValves reconstructs Valves from coil values read in address order
// 3..7.
func DecodeValves(coils [5]bool) twin.Valves {
	return twin.Valves{
		Well101Open: coils[0],
		Feed201Open: coils[1],
		Feed202Open: coils[2],
		Feed203Open: coils[3],
		Dist401Open: coils[4],
	}
}

// EncodeHealth projects EquipmentHealth into the seven added health
// holdings, in address order 30..36.
func EncodeHealth(h twin.EquipmentHealth) [7]uint16 {
	return [7]uint16{
		EncodeScaled(h.Membrane, scaleHealth),
		EncodeScaled(h.PumpWell, scaleHealth),
		EncodeScaled(h.PumpFeed, scaleHealth),
		EncodeScaled(h.PumpDist, scaleHealth),
		EncodeScaled(h.PipeWell, scaleHealth),
		EncodeScaled(h.PipeFeed, scaleHealth),
		EncodeScaled(h.PipeDist, scaleHealth),
	}
}
