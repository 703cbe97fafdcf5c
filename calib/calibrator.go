// Package calib provides the calibration driver. It exercises a memory
// through the request/acknowledge host contract: one pass writes a
// deterministic pattern over a range of cells, one pass reads it back and
// flags write-path corruption, and after that the driver free-runs read
// passes forever, flagging read-path corruption and toggling a marker on
// every address wraparound. The flags are single-cycle pulses so they can be
// observed on scope-style probes as well as polled.
package calib

import (
	"github.com/till-s/sdramctrl/sdram"
)

type phase int

const (
	phaseWait phase = iota
	phaseWrite
	phaseVerify
	phaseRead
)

// Comp is the calibration driver.
type Comp struct {
	name  string
	cells uint32
	width int

	phase phase
	addr  uint32

	// expected queues the pattern values of the reads in flight. Read data
	// returns strictly in order.
	expected []uint64

	// drain marks the tail of a read pass: no new requests, only waiting
	// for the reads in flight to return.
	drain bool

	writeMismatch bool
	readMismatch  bool
	wrapToggle    bool

	writeMismatchCount int
	readMismatchCount  int
	passCount          int
}

// Builder can build calibration drivers.
type Builder struct {
	cells uint32
	width int
}

// MakeBuilder creates a builder that exercises 64Ki cells of a 2-byte bus.
func MakeBuilder() Builder {
	return Builder{
		cells: 1 << 16,
		width: 2,
	}
}

// WithCells sets the number of cells each pass covers.
func (b Builder) WithCells(n uint32) Builder {
	b.cells = n
	return b
}

// WithDataBytes sets the width of the data bus in bytes.
func (b Builder) WithDataBytes(n int) Builder {
	b.width = n
	return b
}

// Build builds the calibration driver.
func (b Builder) Build(name string) *Comp {
	if b.cells == 0 {
		panic("calib: cell count must be positive")
	}
	if b.width < 1 || b.width > 8 {
		panic("calib: data bus width must be between 1 and 8 bytes")
	}

	return &Comp{
		name:  name,
		cells: b.cells,
		width: b.width,
	}
}

// Name returns the name of the driver.
func (c *Comp) Name() string {
	return c.name
}

// WriteMismatch reports whether the verify pass flagged a mismatch during
// the last cycle.
func (c *Comp) WriteMismatch() bool {
	return c.writeMismatch
}

// ReadMismatch reports whether a free-running read pass flagged a mismatch
// during the last cycle.
func (c *Comp) ReadMismatch() bool {
	return c.readMismatch
}

// WrapToggle returns the marker that flips on every address wraparound of
// the free-running read passes.
func (c *Comp) WrapToggle() bool {
	return c.wrapToggle
}

// Counts returns the accumulated mismatch counts and the number of completed
// read passes.
func (c *Comp) Counts() (writeMismatches, readMismatches, passes int) {
	return c.writeMismatchCount, c.readMismatchCount, c.passCount
}

// pattern derives the data written to a cell from its address. Neighboring
// cells get unrelated values so that address-line faults do not cancel out.
func (c *Comp) pattern(addr uint32) uint64 {
	x := uint64(addr)*0x9e3779b97f4a7c15 + 0x2545f4914f6cdd1d
	x ^= x >> 29

	if c.width == 8 {
		return x
	}

	return x & (1<<(8*uint(c.width)) - 1)
}

// Step advances the driver by one cycle.
func (c *Comp) Step(in sdram.HostOut) sdram.HostIn {
	c.writeMismatch = false
	c.readMismatch = false

	if in.Vld {
		c.check(in.RData)
	}

	switch c.phase {
	case phaseWait:
		if in.Rdy {
			c.phase = phaseWrite
		}

		return sdram.HostIn{}

	case phaseWrite:
		// The acknowledge observed this cycle belongs to the address
		// presented last cycle, so it is retired before the next
		// request is composed.
		if in.Ack {
			c.advanceWrite()
		}

		if c.phase != phaseWrite {
			return c.stepRead(false)
		}

		return sdram.HostIn{
			Req:   true,
			Addr:  c.addr,
			WData: c.pattern(c.addr),
			WStrb: uint8(1<<uint(c.width) - 1),
		}

	default:
		return c.stepRead(in.Ack)
	}
}

func (c *Comp) advanceWrite() {
	c.addr++
	if c.addr < c.cells {
		return
	}

	c.addr = 0
	c.phase = phaseVerify
}

func (c *Comp) stepRead(acked bool) sdram.HostIn {
	if acked {
		c.expected = append(c.expected, c.pattern(c.addr))

		c.addr++
		if c.addr == c.cells {
			c.addr = 0
			c.drain = true
		}
	}

	if c.drain {
		if len(c.expected) == 0 {
			c.finishPass()
		} else {
			return sdram.HostIn{}
		}
	}

	return sdram.HostIn{
		Req:  true,
		Read: true,
		Addr: c.addr,
	}
}

func (c *Comp) finishPass() {
	c.drain = false

	if c.phase == phaseVerify {
		c.phase = phaseRead
		return
	}

	c.wrapToggle = !c.wrapToggle
	c.passCount++
}

func (c *Comp) check(data uint64) {
	if len(c.expected) == 0 {
		// Stray data is counted against the current pass.
		c.flagMismatch()
		return
	}

	want := c.expected[0]
	c.expected = c.expected[1:]

	if data != want {
		c.flagMismatch()
	}
}

func (c *Comp) flagMismatch() {
	if c.phase == phaseVerify {
		c.writeMismatch = true
		c.writeMismatchCount++

		return
	}

	c.readMismatch = true
	c.readMismatchCount++
}
