package system

import (
	"github.com/till-s/sdramctrl/datarecording"
	"github.com/till-s/sdramctrl/sdram"
	"github.com/till-s/sdramctrl/sim"
)

// commandTable is the recorder table the command stream is written to.
const commandTable = "sdram_commands"

// commandRow is one recorded command. The fields are flattened so each one
// maps to a database column.
type commandRow struct {
	Cycle uint64
	State string
	Cmd   string
	Bank  uint8
	Row   uint32
	Col   uint32
	Data  uint64
}

// traceHook records every non-NOP command the controller issues.
type traceHook struct {
	recorder datarecording.DataRecorder
}

func newTraceHook(r datarecording.DataRecorder) *traceHook {
	r.CreateTable(commandTable, commandRow{})

	return &traceHook{recorder: r}
}

// Func implements sim.Hook.
func (h *traceHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sdram.HookPosCmdIssue {
		return
	}

	trace := ctx.Item.(sdram.CmdTrace)

	h.recorder.InsertData(commandTable, commandRow{
		Cycle: trace.Cycle,
		State: trace.State,
		Cmd:   trace.Cmd.Kind.String(),
		Bank:  trace.Cmd.Bank,
		Row:   trace.Cmd.Row,
		Col:   trace.Cmd.Col,
		Data:  trace.Cmd.Data,
	})
}
