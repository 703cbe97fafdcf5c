package sdram

import "github.com/till-s/sdramctrl/sim"

// Builder can build SDRAM controllers.
type Builder struct {
	params    DeviceParams
	freq      sim.Freq
	stages    int
	extOutReg bool
}

// MakeBuilder creates a builder with the default configuration: the default
// device, a 166 MHz clock, no input staging and internal output registers.
func MakeBuilder() Builder {
	return Builder{
		params: DefaultDeviceParams(),
		freq:   166 * sim.MHz,
	}
}

// WithDeviceParams sets the parameters of the attached device.
func (b Builder) WithDeviceParams(p DeviceParams) Builder {
	b.params = p
	return b
}

// WithFreq sets the operating clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithInputStages sets the depth of the input staging pipeline. Valid depths
// are 0 (pass-through, combinational acknowledge), 1 (registered request,
// combinational acknowledge) and 2 (registered request and acknowledge).
func (b Builder) WithInputStages(n int) Builder {
	b.stages = n
	return b
}

// WithExternalOutputRegister marks the command output register as placed
// outside this core. Read data then returns one cycle later, which is
// accounted for in the valid pipeline; the state machine is unaffected.
func (b Builder) WithExternalOutputRegister() Builder {
	b.extOutReg = true
	return b
}

// Build builds the controller. It panics when the device parameters and the
// clock frequency cannot be reconciled; this is the only fatal condition of
// the controller and it cannot be detected any later than here.
func (b Builder) Build(name string) *Comp {
	cycles, err := DeriveCycleCounts(b.params, b.freq)
	if err != nil {
		panic("sdram: " + err.Error())
	}

	rdDepth := b.params.CASLatency
	if b.extOutReg {
		rdDepth++
	}

	c := &Comp{
		name:      name,
		params:    b.params,
		cycles:    cycles,
		stages:    b.stages,
		extOutReg: b.extOutReg,
		state:     stateInit,
		refTimer:  cycles.RefInterval - 1,
		rdPipe:    newLatencyPipe(rdDepth),
		wrPipe:    newLatencyPipe(b.params.WriteRecovery),
		fe:        newFrontend(b.stages),
	}

	return c
}
