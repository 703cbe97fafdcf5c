// Package memdevice provides a pin-level behavioral model of an SDRAM
// device. It decodes the control lines cycle by cycle, stores data in a
// backing Storage, returns read data after the programmed CAS latency, and
// panics on protocol violations so that controller bugs surface in tests
// instead of silently corrupting data.
package memdevice

import (
	"log"

	"github.com/till-s/sdramctrl/memory"
	"github.com/till-s/sdramctrl/sdram"
	"github.com/till-s/sdramctrl/sim"
)

type bankState struct {
	rowOpen bool
	row     uint32

	// Ages count the cycles since the named command hit this bank. They
	// saturate well above any timing constraint.
	actAge int
	preAge int
	wrAge  int
}

type pendingRead struct {
	ctr  int
	data uint64
}

// Comp is the behavioral SDRAM device.
type Comp struct {
	name    string
	params  sdram.DeviceParams
	cycles  sdram.CycleCounts
	storage *memory.Storage

	mode    uint32
	modeSet bool

	banks   []bankState
	pending []pendingRead

	// refBusy counts the remaining cycles of a refresh in progress.
	refBusy      int
	refreshCount int
}

// Builder can build behavioral SDRAM devices.
type Builder struct {
	params  sdram.DeviceParams
	freq    sim.Freq
	storage *memory.Storage
}

// MakeBuilder creates a builder with the default device parameters and a
// 166 MHz clock.
func MakeBuilder() Builder {
	return Builder{
		params: sdram.DefaultDeviceParams(),
		freq:   166 * sim.MHz,
	}
}

// WithDeviceParams sets the modeled device parameters.
func (b Builder) WithDeviceParams(p sdram.DeviceParams) Builder {
	b.params = p
	return b
}

// WithFreq sets the clock frequency used to check timing constraints.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithStorage makes the device use an existing storage instead of allocating
// its own.
func (b Builder) WithStorage(s *memory.Storage) Builder {
	b.storage = s
	return b
}

// Build builds the device model.
func (b Builder) Build(name string) *Comp {
	cycles, err := sdram.DeriveCycleCounts(b.params, b.freq)
	if err != nil {
		panic("memdevice: " + err.Error())
	}

	if b.params.CASLatency < 2 {
		panic("memdevice: CAS latency below 2 is not modeled")
	}

	storage := b.storage
	if storage == nil {
		storage = memory.NewStorage(b.params.ByteCapacity())
	}

	d := &Comp{
		name:    name,
		params:  b.params,
		cycles:  cycles,
		storage: storage,
		banks:   make([]bankState, b.params.NumBanks()),
	}

	for i := range d.banks {
		// Fresh out of reset nothing constrains the first activate.
		d.banks[i].preAge = 1 << 20
		d.banks[i].wrAge = 1 << 20
	}

	return d
}

// Name returns the name of the device.
func (d *Comp) Name() string {
	return d.name
}

// Storage returns the backing storage of the device.
func (d *Comp) Storage() *memory.Storage {
	return d.storage
}

// RefreshCount returns the number of refresh cycles performed so far.
func (d *Comp) RefreshCount() int {
	return d.refreshCount
}

// Mode returns the mode-register value and whether it has been programmed.
func (d *Comp) Mode() (uint32, bool) {
	return d.mode, d.modeSet
}

// Step consumes the pin state of the current cycle and returns the signals
// the device drives during the next cycle.
func (d *Comp) Step(pins sdram.DevicePins) sdram.DeviceIn {
	out := sdram.DeviceIn{}

	for i := range d.banks {
		d.banks[i].actAge++
		d.banks[i].preAge++
		d.banks[i].wrAge++
	}

	if d.refBusy > 0 {
		d.refBusy--
	}

	out.DQ = d.drainPending()

	if !pins.CKE || pins.CSn {
		return out
	}

	d.decode(pins)

	return out
}

func (d *Comp) drainPending() uint64 {
	if len(d.pending) == 0 || d.pending[0].ctr > 0 {
		for i := range d.pending {
			d.pending[i].ctr--
		}

		return 0
	}

	data := d.pending[0].data
	d.pending = d.pending[1:]

	for i := range d.pending {
		d.pending[i].ctr--
	}

	return data
}

func (d *Comp) decode(pins sdram.DevicePins) {
	switch {
	case pins.RASn && pins.CASn:
		// NOP, including bursts terminated by WEn.

	case !pins.RASn && pins.CASn && pins.WEn:
		d.activate(pins)

	case !pins.RASn && pins.CASn && !pins.WEn:
		d.precharge(pins)

	case pins.RASn && !pins.CASn && pins.WEn:
		d.read(pins)

	case pins.RASn && !pins.CASn && !pins.WEn:
		d.write(pins)

	case !pins.RASn && !pins.CASn && pins.WEn:
		d.refresh()

	default:
		d.setMode(pins)
	}
}

func (d *Comp) mustBeOutOfRefresh(what string) {
	if d.refBusy > 0 {
		log.Panicf("%s: %s issued %d cycles before the refresh completes",
			d.name, what, d.refBusy)
	}
}

func (d *Comp) activate(pins sdram.DevicePins) {
	d.mustBeOutOfRefresh("activate")

	bank := &d.banks[pins.Bank]
	if bank.rowOpen {
		log.Panicf("%s: activate on bank %d while row %d is open",
			d.name, pins.Bank, bank.row)
	}

	if bank.preAge < d.cycles.Precharge {
		log.Panicf("%s: activate on bank %d only %d cycles after precharge",
			d.name, pins.Bank, bank.preAge)
	}

	bank.rowOpen = true
	bank.row = pins.Addr
	bank.actAge = 0
}

func (d *Comp) precharge(pins sdram.DevicePins) {
	if pins.Addr&1<<10 != 0 {
		for i := range d.banks {
			d.prechargeBank(uint8(i))
		}

		return
	}

	d.prechargeBank(pins.Bank)
}

func (d *Comp) prechargeBank(bank uint8) {
	b := &d.banks[bank]

	// Precharging an idle bank is a NOP.
	if !b.rowOpen {
		return
	}

	if b.actAge < d.cycles.MinActive {
		log.Panicf("%s: precharge on bank %d only %d cycles after activate",
			d.name, bank, b.actAge)
	}

	if b.wrAge < d.params.WriteRecovery {
		log.Panicf("%s: precharge on bank %d only %d cycles after write",
			d.name, bank, b.wrAge)
	}

	b.rowOpen = false
	b.preAge = 0
}

func (d *Comp) accessAddr(pins sdram.DevicePins, what string) uint64 {
	d.mustBeOutOfRefresh(what)

	bank := &d.banks[pins.Bank]
	if !bank.rowOpen {
		log.Panicf("%s: %s on bank %d with no open row",
			d.name, what, pins.Bank)
	}

	if bank.actAge < d.cycles.ActToAccess {
		log.Panicf("%s: %s on bank %d only %d cycles after activate",
			d.name, what, pins.Bank, bank.actAge)
	}

	return d.params.LinearAddr(pins.Bank, bank.row, pins.Addr)
}

func (d *Comp) read(pins sdram.DevicePins) {
	addr := d.accessAddr(pins, "read")

	raw, err := d.storage.Read(addr, uint64(d.params.DataBytes))
	if err != nil {
		log.Panic(err)
	}

	var data uint64
	for i, b := range raw {
		if pins.DQM&(1<<uint(i)) != 0 {
			continue
		}

		data |= uint64(b) << (8 * uint(i))
	}

	casLat := int(d.mode >> 4 & 7)
	if !d.modeSet {
		log.Panicf("%s: read before the mode register was programmed", d.name)
	}

	d.pending = append(d.pending, pendingRead{
		ctr:  casLat - 2,
		data: data,
	})
}

func (d *Comp) write(pins sdram.DevicePins) {
	addr := d.accessAddr(pins, "write")

	if len(d.pending) != 0 {
		log.Panicf("%s: write contends with readback on the data bus", d.name)
	}

	if !pins.DQEnable {
		log.Panicf("%s: write cycle without the data bus driven", d.name)
	}

	data := make([]byte, d.params.DataBytes)
	for i := range data {
		data[i] = byte(pins.DQ >> (8 * uint(i)))
	}

	maskAll := uint8(1<<d.params.DataBytes - 1)
	enable := ^pins.DQM & maskAll

	err := d.storage.WriteMasked(addr, data, enable)
	if err != nil {
		log.Panic(err)
	}

	d.banks[pins.Bank].wrAge = 0
}

func (d *Comp) refresh() {
	d.mustBeOutOfRefresh("refresh")

	for i := range d.banks {
		if d.banks[i].rowOpen {
			log.Panicf("%s: refresh while bank %d has an open row",
				d.name, i)
		}
	}

	d.refBusy = d.cycles.RefCycle - 1
	d.refreshCount++
}

func (d *Comp) setMode(pins sdram.DevicePins) {
	for i := range d.banks {
		if d.banks[i].rowOpen {
			log.Panicf("%s: mode register set while bank %d has an open row",
				d.name, i)
		}
	}

	d.mode = pins.Addr
	d.modeSet = true
}
