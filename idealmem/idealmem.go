// Package idealmem provides a memory model that speaks the controller's
// host-side request/acknowledge contract with a fixed synthetic latency. It
// stands in for the controller-plus-device pair when a collaborator, such as
// the calibration driver, is verified on its own.
package idealmem

import (
	"log"

	"github.com/till-s/sdramctrl/memory"
	"github.com/till-s/sdramctrl/sdram"
)

type pendingRead struct {
	ctr  int
	data uint64
}

// Comp is the ideal memory model.
type Comp struct {
	name    string
	latency int
	width   int
	storage *memory.Storage

	pending []pendingRead
}

// Builder can build ideal memory models.
type Builder struct {
	latency int
	width   int
	storage *memory.Storage
}

// MakeBuilder creates a builder with a latency of 2 cycles and a 2-byte
// data bus.
func MakeBuilder() Builder {
	return Builder{
		latency: 2,
		width:   2,
	}
}

// WithLatency sets the synthetic read latency in cycles.
func (b Builder) WithLatency(n int) Builder {
	b.latency = n
	return b
}

// WithDataBytes sets the width of the data bus in bytes.
func (b Builder) WithDataBytes(n int) Builder {
	b.width = n
	return b
}

// WithStorage makes the model use an existing storage.
func (b Builder) WithStorage(s *memory.Storage) Builder {
	b.storage = s
	return b
}

// Build builds the ideal memory model.
func (b Builder) Build(name string) *Comp {
	if b.latency < 1 {
		panic("idealmem: latency must be at least 1")
	}

	storage := b.storage
	if storage == nil {
		storage = memory.NewStorage(1 << 24)
	}

	return &Comp{
		name:    name,
		latency: b.latency,
		width:   b.width,
		storage: storage,
	}
}

// Name returns the name of the model.
func (m *Comp) Name() string {
	return m.name
}

// Storage returns the backing storage.
func (m *Comp) Storage() *memory.Storage {
	return m.storage
}

// Step advances the model by one cycle. Requests are always acknowledged
// immediately; read data returns after the fixed latency; Rdy is asserted
// from the first cycle.
func (m *Comp) Step(in sdram.HostIn) sdram.HostOut {
	out := sdram.HostOut{Rdy: true}

	if len(m.pending) > 0 && m.pending[0].ctr == 0 {
		out.Vld = true
		out.RData = m.pending[0].data
		m.pending = m.pending[1:]
	}

	for i := range m.pending {
		m.pending[i].ctr--
	}

	if !in.Req {
		return out
	}

	out.Ack = true
	addr := uint64(in.Addr) * uint64(m.width)

	if in.Read {
		raw, err := m.storage.Read(addr, uint64(m.width))
		if err != nil {
			log.Panic(err)
		}

		var data uint64
		for i, b := range raw {
			data |= uint64(b) << (8 * uint(i))
		}

		// The emission check of the delivery cycle runs before that
		// cycle's decrement, so the counter seeds with latency-1.
		m.pending = append(m.pending, pendingRead{
			ctr:  m.latency - 1,
			data: data,
		})

		return out
	}

	data := make([]byte, m.width)
	for i := range data {
		data[i] = byte(in.WData >> (8 * uint(i)))
	}

	err := m.storage.WriteMasked(addr, data, in.WStrb)
	if err != nil {
		log.Panic(err)
	}

	return out
}
