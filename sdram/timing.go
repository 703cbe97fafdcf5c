package sdram

import (
	"fmt"
	"math"

	"github.com/till-s/sdramctrl/sim"
)

// CycleCounts holds the device timings converted into integral clock cycles
// at the operating frequency. All deadlines in the controller are expressed
// as down-counters that are seeded with count-1 and fire when they go
// negative, so a counter seeded from one of these fields expires exactly
// count cycles later.
type CycleCounts struct {
	// Precharge is the precharge time (tRP).
	Precharge int

	// ActToAccess is the activate-to-access time (tRCD).
	ActToAccess int

	// RefCycle is the duration of one auto-refresh cycle (tRFC).
	RefCycle int

	// MinActive is the minimum time a row must stay open (tRAS min).
	MinActive int

	// RefDeadline is the hard per-row refresh deadline: no two refresh
	// cycles may be further apart than this.
	RefDeadline int

	// RefInterval is the refresh-timer reload value. It is RefDeadline
	// minus the worst-case overhead of one refresh sweep (the refresh
	// cycle itself plus closing an open row), so the observed spacing
	// stays within RefDeadline even under continuous request pressure.
	RefInterval int

	// InitPauseSlices is the number of RefInterval slices that cover the
	// power-up pause.
	InitPauseSlices int
}

// DeriveCycleCounts converts the device timings into cycle counts at the
// given clock frequency. It fails when the parameters are invalid or the
// frequency exceeds what the device supports.
func DeriveCycleCounts(p DeviceParams, f sim.Freq) (CycleCounts, error) {
	err := p.Validate()
	if err != nil {
		return CycleCounts{}, err
	}

	if f > p.ClkFreqMax {
		return CycleCounts{}, fmt.Errorf(
			"clock frequency %.4g Hz exceeds the device limit %.4g Hz",
			float64(f), float64(p.ClkFreqMax))
	}

	c := CycleCounts{
		Precharge:   f.Cycles(p.TRP),
		ActToAccess: f.Cycles(p.TRCD),
		RefCycle:    f.Cycles(p.TRefCycle),
		MinActive:   f.Cycles(p.TRASMin),
		RefDeadline: f.Cycles(p.refreshPerRow()),
	}

	// Worst case between timer expiry and the REFRESH command: an open
	// row sits out the rest of tRAS (or drains a just-landed write),
	// precharges, and the state machine spends a few cycles on the
	// transitions.
	margin := c.RefCycle + c.Precharge +
		max(c.MinActive, p.WriteRecovery) + 4
	if margin >= c.RefDeadline {
		return CycleCounts{}, fmt.Errorf(
			"refresh deadline of %d cycles leaves no room for the "+
				"%d-cycle sweep overhead", c.RefDeadline, margin)
	}
	c.RefInterval = c.RefDeadline - margin

	c.InitPauseSlices = int(math.Ceil(
		float64(f.Cycles(p.TInitPause)) / float64(c.RefInterval)))

	return c, nil
}

// CounterWidth returns the width, in bits, of the smallest signed counter
// that can hold n-1 and count down to the -1 sentinel. The hardware
// counterpart of every timer in the controller is sized with this function.
func CounterWidth(n int) int {
	if n < 1 {
		panic(fmt.Sprintf("counter must count at least once, got %d", n))
	}

	width := 2 // holds 0..1 plus sign
	for (n - 1) > (1<<(width-1) - 1) {
		width++
	}

	return width
}

func (c CycleCounts) String() string {
	return fmt.Sprintf(
		"precharge=%d actToAccess=%d refCycle=%d minActive=%d "+
			"refDeadline=%d refInterval=%d initPauseSlices=%d",
		c.Precharge, c.ActToAccess, c.RefCycle, c.MinActive,
		c.RefDeadline, c.RefInterval, c.InitPauseSlices)
}
