package sdram

// latencyPipe is a one-bit-wide shift register tracking in-flight
// operations. A bit loaded at the input end emerges at the output end after
// depth shifts.
type latencyPipe struct {
	bits  uint32
	depth int
}

func newLatencyPipe(depth int) latencyPipe {
	if depth < 1 || depth > 31 {
		panic("latency pipe depth out of range")
	}

	return latencyPipe{depth: depth}
}

// shift advances the pipe by one cycle and reports whether an operation
// reached the output end.
func (p *latencyPipe) shift() bool {
	out := p.bits&1 != 0
	p.bits >>= 1

	return out
}

// load marks an operation issued this cycle.
func (p *latencyPipe) load() {
	p.bits |= 1 << uint(p.depth-1)
}

// empty reports whether no operation is in flight.
func (p *latencyPipe) empty() bool {
	return p.bits == 0
}
