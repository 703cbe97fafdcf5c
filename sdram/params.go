// Package sdram models a single-channel SDRAM controller at cycle accuracy.
//
// The controller keeps one row open as long as possible, refreshes the array
// within the device's deadline, and presents a burst-of-one, fully pipelined
// request/acknowledge interface on the host side.
package sdram

import (
	"fmt"

	"github.com/till-s/sdramctrl/sim"
)

// DeviceParams describes the timing and geometry of the attached SDRAM
// device, as found in its datasheet. All durations are in seconds.
type DeviceParams struct {
	// ClkFreqMax is the highest clock frequency the device supports.
	ClkFreqMax sim.Freq

	// TRefresh is the period within which every row must be refreshed once.
	TRefresh sim.VTimeInSec

	// TRefCycle is the duration of one auto-refresh cycle (tRFC).
	TRefCycle sim.VTimeInSec

	// TRP is the precharge time.
	TRP sim.VTimeInSec

	// TRCD is the activate-to-access time.
	TRCD sim.VTimeInSec

	// TRASMin is the minimum time a row must remain open.
	TRASMin sim.VTimeInSec

	// TRASMax is the maximum time a row may remain open.
	TRASMax sim.VTimeInSec

	// TInitPause is the pause required after power-up before the device
	// accepts commands.
	TInitPause sim.VTimeInSec

	// NInitRefresh is the number of refresh cycles the device requires
	// during initialization.
	NInitRefresh int

	// CASLatency is the read latency in cycles.
	CASLatency int

	// WriteRecovery is the number of cycles that must elapse after a write
	// before the row may be closed.
	WriteRecovery int

	// DataBytes is the width of the data bus in bytes.
	DataBytes int

	// RowBits, BankBits and ColBits give the widths of the three address
	// components.
	RowBits  int
	BankBits int
	ColBits  int
}

// DefaultDeviceParams returns the parameters of a typical 256 Mb part
// (4 banks x 8192 rows x 512 columns x 16 bit).
func DefaultDeviceParams() DeviceParams {
	return DeviceParams{
		ClkFreqMax:    166 * sim.MHz,
		TRefresh:      64e-3,
		TRefCycle:     60e-9,
		TRP:           18e-9,
		TRCD:          18e-9,
		TRASMin:       42e-9,
		TRASMax:       100e-6,
		TInitPause:    100e-6,
		NInitRefresh:  8,
		CASLatency:    2,
		WriteRecovery: 2,
		DataBytes:     2,
		RowBits:       13,
		BankBits:      2,
		ColBits:       9,
	}
}

// NumBanks returns the number of banks of the device.
func (p DeviceParams) NumBanks() int {
	return 1 << p.BankBits
}

// NumRows returns the number of rows per bank.
func (p DeviceParams) NumRows() int {
	return 1 << p.RowBits
}

// NumCols returns the number of columns per row.
func (p DeviceParams) NumCols() int {
	return 1 << p.ColBits
}

// ByteCapacity returns the total number of bytes the device holds.
func (p DeviceParams) ByteCapacity() uint64 {
	return uint64(p.NumBanks()) * uint64(p.NumRows()) *
		uint64(p.NumCols()) * uint64(p.DataBytes)
}

// refreshPerRow returns the interval within which a single refresh cycle
// must be issued so that all rows are covered within TRefresh.
func (p DeviceParams) refreshPerRow() sim.VTimeInSec {
	return p.TRefresh / sim.VTimeInSec(p.NumRows())
}

// Validate checks that the parameters describe a device the controller can
// serve. A row stays open for up to one per-row refresh interval, so TRASMax
// must exceed that interval; there is no way to operate the device otherwise.
func (p DeviceParams) Validate() error {
	if p.DataBytes < 1 || p.DataBytes > 8 {
		return fmt.Errorf("data bus width of %d bytes is not supported",
			p.DataBytes)
	}

	if p.CASLatency < 1 {
		return fmt.Errorf("CAS latency must be at least 1, got %d",
			p.CASLatency)
	}

	if p.WriteRecovery < 1 {
		return fmt.Errorf("write recovery must be at least 1, got %d",
			p.WriteRecovery)
	}

	if p.TRASMax <= p.refreshPerRow() {
		return fmt.Errorf(
			"maximum active time %.3gs does not exceed the per-row "+
				"refresh interval %.3gs",
			float64(p.TRASMax), float64(p.refreshPerRow()))
	}

	return nil
}
