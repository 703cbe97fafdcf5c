package sdram

// stagedRequest is one buffered host request together with its decomposed
// address and the comparison flags against the currently open row.
type stagedRequest struct {
	valid bool
	read  bool

	bank uint8
	row  uint32
	col  uint32

	data uint64
	strb uint8

	sameBank bool
	sameRow  bool
}

// frontend is the input staging pipeline between the raw host bus and the
// controller core. With 0 stages the bus passes straight through and the
// acknowledge is combinational. With 1 stage requests are buffered in a
// register. With 2 stages a shadow register buffers a second request and the
// acknowledge itself is registered, removing every combinational path from
// the bus to ack at the cost of one extra round-trip cycle.
type frontend struct {
	stages int

	prim   stagedRequest
	shadow stagedRequest

	// ackPulse drives the registered acknowledge of the 2-stage variant.
	// It is set the cycle a request is captured and emitted the cycle
	// after.
	ackPulse bool

	// scratch holds the pass-through view of the raw bus for the 0-stage
	// variant.
	scratch stagedRequest
}

func newFrontend(stages int) frontend {
	if stages < 0 || stages > 2 {
		panic("input staging depth must be 0, 1 or 2")
	}

	return frontend{stages: stages}
}

func decodeRequest(p DeviceParams, in HostIn, bank uint8, row uint32) stagedRequest {
	r := stagedRequest{
		valid: true,
		read:  in.Read,
		data:  in.WData,
		strb:  in.WStrb,
	}

	r.row, r.bank, r.col = p.AddrFields(in.Addr)
	r.sameBank = r.bank == bank
	r.sameRow = r.row == row

	return r
}

// head returns the request the core should consider this cycle, or nil.
// bank and row identify the currently open (or currently activating) row;
// the 0-stage variant compares against them combinationally.
func (f *frontend) head(p DeviceParams, in HostIn, bank uint8, row uint32) *stagedRequest {
	if f.stages == 0 {
		if !in.Req {
			return nil
		}

		f.scratch = decodeRequest(p, in, bank, row)

		return &f.scratch
	}

	if f.prim.valid {
		return &f.prim
	}

	return nil
}

// consume drops the request the core accepted this cycle. The shadow entry,
// if any, slides into the primary register.
func (f *frontend) consume() {
	switch f.stages {
	case 0:
		f.scratch.valid = false
	case 1:
		f.prim.valid = false
	case 2:
		f.prim = f.shadow
		f.shadow.valid = false
	}
}

// noteActivate is called the cycle the core issues an ACTIVATE. The entry
// that triggered the activation compares equal against the new row and ends
// up with its flags set; any other buffered entry is recomputed against the
// row now being activated, since its previous reference point is gone.
func (f *frontend) noteActivate(bank uint8, row uint32) {
	for _, r := range []*stagedRequest{&f.prim, &f.shadow} {
		if !r.valid {
			continue
		}

		r.sameBank = r.bank == bank
		r.sameRow = r.row == row
	}
}

// noteClose is called the cycle the core closes the open row without
// activating a new one.
func (f *frontend) noteClose() {
	f.prim.sameRow = false
	f.shadow.sameRow = false
}

// commit runs the capture half of the cycle, after the core has made its
// decision, and returns the acknowledge to drive on the bus. consumed tells
// whether the core accepted the head request this cycle; bank and row are
// the open-row reference for the comparison flags of a newly captured
// request.
func (f *frontend) commit(
	p DeviceParams,
	in HostIn,
	consumed bool,
	bank uint8,
	row uint32,
) bool {
	switch f.stages {
	case 0:
		return consumed

	case 1:
		if in.Req && !f.prim.valid {
			f.prim = decodeRequest(p, in, bank, row)

			return true
		}

		return false

	default:
		// The requester keeps driving the old request while the
		// registered acknowledge is on the wire, so capture is
		// suppressed for that one cycle.
		if f.ackPulse {
			f.ackPulse = false

			return true
		}

		if in.Req {
			if !f.prim.valid {
				f.prim = decodeRequest(p, in, bank, row)
				f.ackPulse = true
			} else if !f.shadow.valid {
				f.shadow = decodeRequest(p, in, bank, row)
				f.ackPulse = true
			}
		}

		return false
	}
}
