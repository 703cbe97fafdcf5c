// Package system wires a driver, the SDRAM controller and the behavioral
// device model into one clocked simulation that runs on an event engine.
package system

import (
	"log"

	"github.com/till-s/sdramctrl/datarecording"
	"github.com/till-s/sdramctrl/memdevice"
	"github.com/till-s/sdramctrl/sdram"
	"github.com/till-s/sdramctrl/sim"
)

// A Driver sits on the host side of the controller. It is stepped once per
// cycle with the controller output of the previous cycle and produces the
// request bus of the current one.
type Driver interface {
	Step(sdram.HostOut) sdram.HostIn
}

// System is the top-level simulation. It ticks on an event engine and steps
// the driver, the controller and the device once per clock cycle.
type System struct {
	*sim.TickScheduler

	name   string
	ctrl   *sdram.Comp
	dev    *memdevice.Comp
	driver Driver

	maxCycles uint64
	cycle     uint64

	// Registered cycle boundaries: each component sees the outputs the
	// others produced during the previous cycle.
	hostOut sdram.HostOut
	devIn   sdram.DeviceIn
	pinsReg sdram.DevicePins
}

// Builder can build systems.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	params    sdram.DeviceParams
	stages    int
	extOutReg bool
	driver    Driver
	maxCycles uint64
	recorder  datarecording.DataRecorder
}

// MakeBuilder creates a builder with the default device parameters and a
// 166 MHz clock.
func MakeBuilder() Builder {
	return Builder{
		freq:   166 * sim.MHz,
		params: sdram.DefaultDeviceParams(),
	}
}

// WithEngine sets the event engine the system runs on.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock frequency of the whole system.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithDeviceParams sets the parameters of the simulated device.
func (b Builder) WithDeviceParams(p sdram.DeviceParams) Builder {
	b.params = p
	return b
}

// WithInputStages sets the controller input staging depth.
func (b Builder) WithInputStages(n int) Builder {
	b.stages = n
	return b
}

// WithExternalOutputRegister places the controller output register at the
// system level. The system then delays the pins by one cycle on the way to
// the device.
func (b Builder) WithExternalOutputRegister() Builder {
	b.extOutReg = true
	return b
}

// WithDriver sets the host-side driver.
func (b Builder) WithDriver(d Driver) Builder {
	b.driver = d
	return b
}

// WithMaxCycles limits the simulation to the given number of cycles. Zero
// means no limit.
func (b Builder) WithMaxCycles(n uint64) Builder {
	b.maxCycles = n
	return b
}

// WithRecorder makes the system record the controller command stream into
// the given recorder.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// Build builds the system.
func (b Builder) Build(name string) *System {
	if b.engine == nil {
		panic("system: an engine is required")
	}
	if b.driver == nil {
		panic("system: a driver is required")
	}

	ctrlBuilder := sdram.MakeBuilder().
		WithDeviceParams(b.params).
		WithFreq(b.freq).
		WithInputStages(b.stages)
	if b.extOutReg {
		ctrlBuilder = ctrlBuilder.WithExternalOutputRegister()
	}

	s := &System{
		name: name,
		ctrl: ctrlBuilder.Build(name + ".Ctrl"),
		dev: memdevice.MakeBuilder().
			WithDeviceParams(b.params).
			WithFreq(b.freq).
			Build(name + ".Dev"),
		driver:    b.driver,
		maxCycles: b.maxCycles,
	}
	s.TickScheduler = sim.NewTickScheduler(s, b.engine, b.freq)

	if b.recorder != nil {
		s.ctrl.AcceptHook(newTraceHook(b.recorder))
	}

	return s
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.name
}

// Controller returns the simulated controller.
func (s *System) Controller() *sdram.Comp {
	return s.ctrl
}

// Device returns the simulated device.
func (s *System) Device() *memdevice.Comp {
	return s.dev
}

// CycleCount returns the number of cycles simulated so far.
func (s *System) CycleCount() uint64 {
	return s.cycle
}

// Handle handles tick events by advancing the system one cycle.
func (s *System) Handle(e sim.Event) error {
	switch e.(type) {
	case sim.TickEvent:
		if s.Tick() {
			s.TickLater()
		}
	default:
		log.Panicf("cannot handle event of type %T", e)
	}

	return nil
}

// Tick advances every component by one clock cycle and reports whether the
// simulation should keep running.
func (s *System) Tick() bool {
	hostIn := s.driver.Step(s.hostOut)

	hostOut, pins := s.ctrl.Step(hostIn, s.devIn)

	if s.ctrl.ExternalOutputRegister() {
		pins, s.pinsReg = s.pinsReg, pins
	}

	s.hostOut = hostOut
	s.devIn = s.dev.Step(pins)

	s.cycle++

	return s.maxCycles == 0 || s.cycle < s.maxCycles
}

// Run ticks the system until the cycle limit is reached and all other events
// of the engine are drained.
func (s *System) Run() error {
	s.TickNow()

	return s.Engine.Run()
}
