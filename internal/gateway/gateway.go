// Package gateway implements the Modbus-TCP fieldbus surface (spec.md §4.5):
// a register bank guarded by a single mutex, and a RequestHandler binding
// that bank to github.com/simonvetter/modbus's server. Grounded on the
// mutex-guarded in-memory Store in ratelimiter/core/store.go, generalized
// from a sync.Map of per-key counters to two fixed-size register arrays
// since the bank's shape (16 coils, 128 holdings) is static and known at
// compile time.
package gateway

import (
	"fmt"
	"sync"

	"github.com/simonvetter/modbus"

	"github.com/pg-ot/dvwtp/internal/registermap"
	"github.com/pg-ot/dvwtp/internal/metrics"
	"github.com/pg-ot/dvwtp/internal/twin"
)

// bankCoils / bankHoldings size the backing arrays generously; the driver
// only reads and writes the addresses registermap.go names, external
// clients may address any slot inside the arrays, and a range past their
// end is refused with an error instead of panicking.
const (
	bankCoils    = 16
	bankHoldings = 128
)

// Bank is the shared register/coil memory the simulation driver and all
// Modbus client handlers contend for. A single mutex serializes bulk reads
// and bulk writes so no client ever observes a torn update straddling two
// ticks (spec.md §5).
type Bank struct {
	mu       sync.Mutex
	coils    [bankCoils]bool
	holdings [bankHoldings]uint16
}

// NewBank constructs a Bank with the startup defaults spec.md §4.5 requires:
// coils 0-2 on, holdings 100-102 at nominal setpoints. withDamage also
// defaults the five added valve coils open.
func NewBank(withDamage bool, naohSP, clSP, qoutSP uint16) *Bank {
	b := &Bank{}
	b.coils[registermap.CoilWellfieldOn] = true
	b.coils[registermap.CoilROOn] = true
	b.coils[registermap.CoilDistPumpOn] = true
	b.holdings[registermap.HoldingNaOHDose] = naohSP
	b.holdings[registermap.HoldingClDose] = clSP
	b.holdings[registermap.HoldingQOutSP] = qoutSP
	if withDamage {
		for _, c := range []int{
			registermap.CoilValveWell101, registermap.CoilValveFeed201,
			registermap.CoilValveFeed202, registermap.CoilValveFeed203,
			registermap.CoilValveDist401,
		} {
			b.coils[c] = true
		}
	}
	return b
}

// ReadCoils returns a copy of n coil values starting at addr, atomically
// with respect to any concurrent write.
func (b *Bank) ReadCoils(addr, n int) ([]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr < 0 || addr+n > bankCoils {
		return nil, fmt.Errorf("gateway: coil range [%d,%d) out of bounds", addr, addr+n)
	}
	out := make([]bool, n)
	copy(out, b.coils[addr:addr+n])
	return out, nil
}

// WriteCoils writes values starting at addr, atomically with respect to any
// concurrent read or write.
func (b *Bank) WriteCoils(addr int, values []bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr < 0 || addr+len(values) > bankCoils {
		return fmt.Errorf("gateway: coil range [%d,%d) out of bounds", addr, addr+len(values))
	}
	copy(b.coils[addr:], values)
	return nil
}

// ReadHoldings returns a copy of n holding registers starting at addr.
func (b *Bank) ReadHoldings(addr, n int) ([]uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr < 0 || addr+n > bankHoldings {
		return nil, fmt.Errorf("gateway: holding range [%d,%d) out of bounds", addr, addr+n)
	}
	out := make([]uint16, n)
	copy(out, b.holdings[addr:addr+n])
	return out, nil
}

// WriteHoldings writes values starting at addr.
func (b *Bank) WriteHoldings(addr int, values []uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr < 0 || addr+len(values) > bankHoldings {
		return fmt.Errorf("gateway: holding range [%d,%d) out of bounds", addr, addr+len(values))
	}
	copy(b.holdings[addr:], values)
	return nil
}

// AuditSink receives a description of every external client write, decoupled
// from persistence: the spec names no persisted state, so a sink is free to
// be a no-op or an ephemeral pub/sub publish (see internal/audit).
type AuditSink interface {
	PublishWrite(kind string, addr int, n int)
}

// Handler adapts a Bank to github.com/simonvetter/modbus's RequestHandler
// interface. It never holds the bank mutex across the library's own I/O;
// each call locks only for the duration of one bulk array copy, matching
// spec.md §5's "held only for the duration of one bulk read or one bulk
// write."
type Handler struct {
	Bank  *Bank
	Audit AuditSink // may be nil
}

// NewHandler constructs a Handler; audit may be nil to disable the audit
// trail entirely.
func NewHandler(bank *Bank, audit AuditSink) *Handler {
	return &Handler{Bank: bank, Audit: audit}
}

// HandleCoils implements modbus.RequestHandler for coil reads and writes.
func (h *Handler) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	metrics.GatewayRequests.WithLabelValues("coils").Inc()
	addr := int(req.Addr)
	if req.IsWrite {
		if err := h.Bank.WriteCoils(addr, req.Args); err != nil {
			metrics.GatewayErrors.WithLabelValues("coils").Inc()
			return nil, modbus.ErrIllegalDataAddress
		}
		if h.Audit != nil {
			go h.Audit.PublishWrite("coils", addr, len(req.Args))
		}
		return nil, nil
	}
	out, err := h.Bank.ReadCoils(addr, int(req.Quantity))
	if err != nil {
		metrics.GatewayErrors.WithLabelValues("coils").Inc()
		return nil, modbus.ErrIllegalDataAddress
	}
	return out, nil
}

// HandleDiscreteInputs implements modbus.RequestHandler. The plant exposes
// no discrete inputs distinct from its coils (spec.md §4.4 defines none),
// so every request is refused.
func (h *Handler) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

// HandleHoldingRegisters implements modbus.RequestHandler for holding
// register reads and writes. Setpoint writes (holdings 100-102) above their
// range are clamped before being stored, never rejected, so the register
// reads back the clamped value (spec.md §8).
func (h *Handler) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	metrics.GatewayRequests.WithLabelValues("holdings").Inc()
	addr := int(req.Addr)
	if req.IsWrite {
		values := append([]uint16(nil), req.Args...)
		for i := range values {
			switch addr + i {
			case registermap.HoldingNaOHDose:
				values[i] = min(values[i], registermap.EncodeScaled(twin.NaOHDoseMax, registermap.ScaleNaOHDose))
			case registermap.HoldingClDose:
				values[i] = min(values[i], registermap.EncodeScaled(twin.ClDoseMax, registermap.ScaleClDose))
			case registermap.HoldingQOutSP:
				values[i] = min(values[i], registermap.EncodeScaled(twin.QOutSPMax, registermap.ScaleQOutSP))
			}
		}
		if err := h.Bank.WriteHoldings(addr, values); err != nil {
			metrics.GatewayErrors.WithLabelValues("holdings").Inc()
			return nil, modbus.ErrIllegalDataAddress
		}
		if h.Audit != nil {
			go h.Audit.PublishWrite("holdings", addr, len(req.Args))
		}
		return nil, nil
	}
	out, err := h.Bank.ReadHoldings(addr, int(req.Quantity))
	if err != nil {
		metrics.GatewayErrors.WithLabelValues("holdings").Inc()
		return nil, modbus.ErrIllegalDataAddress
	}
	return out, nil
}

// HandleInputRegisters implements modbus.RequestHandler. The plant exposes
// no separate input-register bank; all read-only measurements live in the
// holding range spec.md §4.4 defines, so every request is refused.
func (h *Handler) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	return nil, modbus.ErrIllegalFunction
}
