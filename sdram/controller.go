package sdram

import (
	"github.com/till-s/sdramctrl/sim"
)

// fsmState enumerates the controller states.
type fsmState int

const (
	stateInit fsmState = iota
	stateInitRefresh
	stateIdle
	stateActivate
	statePrecharge
	stateActive
	stateAutoRefresh
)

func (s fsmState) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateInitRefresh:
		return "INIT_REFRESH"
	case stateIdle:
		return "IDLE"
	case stateActivate:
		return "ACTIVATE"
	case statePrecharge:
		return "PRECHARGE"
	case stateActive:
		return "ACTIVE"
	case stateAutoRefresh:
		return "AUTOREF"
	default:
		return "UNKNOWN"
	}
}

// HookPosCmdIssue is triggered every cycle the controller issues a command
// other than NOP.
var HookPosCmdIssue = &sim.HookPos{Name: "CmdIssue"}

// CmdTrace is the hook item delivered at HookPosCmdIssue.
type CmdTrace struct {
	Cycle uint64
	State string
	Cmd   Command
}

// Comp is the SDRAM controller. It is stepped exactly once per clock cycle;
// all outputs of a cycle are a pure function of the state reached on the
// previous cycle and the inputs of the current one.
type Comp struct {
	sim.HookableBase

	name      string
	params    DeviceParams
	cycles    CycleCounts
	stages    int
	extOutReg bool

	state fsmState

	// curBank and curRow identify the open (or opening) row. lastBank is
	// the bank that was open before the most recent bank switch; it still
	// needs a precharge while it differs from curBank.
	curBank  uint8
	curRow   uint32
	lastBank uint8

	// Down-counters; each is seeded with count-1 and has expired once it
	// is negative.
	refTimer int
	timer    int

	// initLeft counts down the power-up pause slices and then the forced
	// refresh cycles.
	initLeft  int
	initPhase int

	rdPipe latencyPipe
	wrPipe latencyPipe

	fe frontend

	rdy   bool
	cycle uint64
}

// Name returns the name of the controller.
func (c *Comp) Name() string {
	return c.name
}

// Params returns the device parameters the controller was built with.
func (c *Comp) Params() DeviceParams {
	return c.params
}

// CycleCounts returns the derived cycle counts the controller operates with.
func (c *Comp) CycleCounts() CycleCounts {
	return c.cycles
}

// Ready reports whether initialization has completed.
func (c *Comp) Ready() bool {
	return c.rdy
}

// ExternalOutputRegister reports whether the command output register is
// placed outside the core. The integration then owns that register and must
// delay the pins by one cycle on the way to the device.
func (c *Comp) ExternalOutputRegister() bool {
	return c.extOutReg
}

// Step advances the controller by one clock cycle. host carries the request
// bus as driven by the requester, dev the signals driven by the device.
func (c *Comp) Step(host HostIn, dev DeviceIn) (HostOut, DevicePins) {
	out := HostOut{Rdy: c.rdy}
	cmd := Command{Kind: CmdKindNop}

	if c.rdPipe.shift() {
		out.Vld = true
		out.RData = dev.DQ
	}
	c.wrPipe.shift()

	c.refTimer--
	c.timer--

	req := c.fe.head(c.params, host, c.curBank, c.curRow)
	consumed := false

	switch c.state {
	case stateInit:
		cmd = c.stepInit()

	case stateInitRefresh:
		cmd = c.stepInitRefresh()

	case stateIdle:
		switch {
		case c.refTimer < 0:
			// A due refresh preempts any pending request.
			cmd = Command{Kind: CmdKindRefresh}
			c.timer = c.cycles.RefCycle - 1
			c.state = stateAutoRefresh
		case req != nil:
			cmd = Command{
				Kind: CmdKindActivate,
				Bank: req.bank,
				Row:  req.row,
			}
			c.curBank = req.bank
			c.curRow = req.row
			c.lastBank = req.bank
			c.timer = c.cycles.ActToAccess - 2
			c.state = stateActivate
			c.fe.noteActivate(req.bank, req.row)
		}

	case stateActivate:
		// When switching banks the old bank still holds an open row.
		// Its precharge overlaps the activation latency of the new
		// bank, but only once every write has landed.
		if c.curBank != c.lastBank && c.wrPipe.empty() {
			cmd = Command{Kind: CmdKindPrecharge, Bank: c.lastBank}
			c.lastBank = c.curBank
		}

		if c.curBank == c.lastBank && c.timer < 0 {
			c.timer = c.cycles.MinActive - c.cycles.ActToAccess
			c.state = stateActive
		}

	case statePrecharge:
		if c.timer < 0 {
			c.state = stateIdle
		}

	case stateActive:
		cmd, consumed = c.stepActive(req)

	case stateAutoRefresh:
		if c.timer < 0 {
			c.state = stateIdle
			c.refTimer = c.cycles.RefInterval - 1
		}
	}

	if consumed {
		c.fe.consume()
	}

	out.Ack = c.fe.commit(c.params, host, consumed, c.curBank, c.curRow)

	pins := c.encodeCommand(cmd)

	if cmd.Kind != CmdKindNop {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosCmdIssue,
			Item: CmdTrace{
				Cycle: c.cycle,
				State: c.state.String(),
				Cmd:   cmd,
			},
		})
	}

	c.cycle++

	return out, pins
}

// stepInit walks the power-up sequence: precharge all banks, program the
// mode register, then sit out the initial pause, subdivided into
// refresh-interval slices so the one refresh timer can measure it.
func (c *Comp) stepInit() Command {
	cmd := Command{Kind: CmdKindNop}

	switch c.initPhase {
	case 0:
		cmd = Command{Kind: CmdKindPrecharge, AllBanks: true}
		c.timer = c.cycles.Precharge - 1
		c.initPhase = 1

	case 1:
		if c.timer < 0 {
			cmd = Command{
				Kind: CmdKindSetMode,
				Mode: modeRegister(c.params),
			}
			c.refTimer = c.cycles.RefInterval - 1
			c.initLeft = c.cycles.InitPauseSlices - 1
			c.initPhase = 2
		}

	case 2:
		if c.refTimer < 0 {
			c.initLeft--
			if c.initLeft < 0 {
				c.state = stateInitRefresh
				c.initLeft = c.params.NInitRefresh - 1
				c.refTimer = -1
			} else {
				c.refTimer = c.cycles.RefInterval - 1
			}
		}
	}

	return cmd
}

// stepInitRefresh issues the refresh cycles the device requires before
// regular operation, spaced by the refresh cycle time.
func (c *Comp) stepInitRefresh() Command {
	cmd := Command{Kind: CmdKindNop}

	if c.refTimer < 0 {
		if c.initLeft < 0 {
			c.state = stateIdle
			c.rdy = true
			c.refTimer = c.cycles.RefInterval - 1
		} else {
			cmd = Command{Kind: CmdKindRefresh}
			c.refTimer = c.cycles.RefCycle - 1
			c.initLeft--
		}
	}

	return cmd
}

// stepActive serves requests against the open row. A due refresh dominates
// everything; among requests, a hit is always served before any row or bank
// switch is started, and an in-flight write always drains before its row is
// closed.
func (c *Comp) stepActive(req *stagedRequest) (Command, bool) {
	cmd := Command{Kind: CmdKindNop}

	switch {
	case c.refTimer < 0:
		if c.timer < 0 && c.wrPipe.empty() {
			cmd = Command{Kind: CmdKindPrecharge, Bank: c.curBank}
			c.timer = c.cycles.Precharge - 1
			c.state = statePrecharge
			c.fe.noteClose()
		}

	case req == nil:

	case req.sameBank && req.sameRow:
		if req.read {
			cmd = Command{
				Kind: CmdKindRead,
				Bank: c.curBank,
				Col:  req.col,
			}
			c.rdPipe.load()

			return cmd, true
		}

		// Bus turnaround: a write must wait until readback data has
		// cleared the shared data bus.
		if c.rdPipe.empty() {
			cmd = Command{
				Kind:       CmdKindWrite,
				Bank:       c.curBank,
				Col:        req.col,
				Data:       req.data,
				ByteEnable: req.strb,
			}
			c.wrPipe.load()

			return cmd, true
		}

	case req.sameBank:
		// Row switch within the bank: close the row and take the full
		// trip through IDLE.
		if c.timer < 0 && c.wrPipe.empty() {
			cmd = Command{Kind: CmdKindPrecharge, Bank: c.curBank}
			c.timer = c.cycles.Precharge - 1
			c.state = statePrecharge
			c.fe.noteClose()
		}

	default:
		// Bank switch: activate the new bank right away; the old bank
		// is precharged opportunistically during the activation.
		if c.timer < 0 {
			cmd = Command{
				Kind: CmdKindActivate,
				Bank: req.bank,
				Row:  req.row,
			}
			c.curBank = req.bank
			c.curRow = req.row
			c.timer = c.cycles.ActToAccess - 2
			c.state = stateActivate
			c.fe.noteActivate(req.bank, req.row)
		}
	}

	return cmd, false
}
