package sdram

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Frontend", func() {
	var p DeviceParams

	BeforeEach(func() {
		p = DefaultDeviceParams()
	})

	Context("with 0 stages", func() {
		var f frontend

		BeforeEach(func() {
			f = newFrontend(0)
		})

		It("should pass the bus straight through", func() {
			in := HostIn{Req: true, Read: true, Addr: 0x123}

			req := f.head(p, in, 0, 0)

			Expect(req).NotTo(BeNil())
			Expect(req.read).To(BeTrue())
		})

		It("should return no head without a request", func() {
			Expect(f.head(p, HostIn{}, 0, 0)).To(BeNil())
		})

		It("should acknowledge combinationally on consumption", func() {
			in := HostIn{Req: true}

			Expect(f.commit(p, in, true, 0, 0)).To(BeTrue())
			Expect(f.commit(p, in, false, 0, 0)).To(BeFalse())
		})

		It("should compare against the open row combinationally", func() {
			addr := uint32(7)<<(p.ColBits+p.BankBits) |
				uint32(1)<<p.ColBits | 3
			in := HostIn{Req: true, Addr: addr}

			req := f.head(p, in, 1, 7)

			Expect(req.sameBank).To(BeTrue())
			Expect(req.sameRow).To(BeTrue())
		})
	})

	Context("with 1 stage", func() {
		var f frontend

		BeforeEach(func() {
			f = newFrontend(1)
		})

		It("should capture and acknowledge in the same cycle", func() {
			in := HostIn{Req: true, Addr: 42}

			Expect(f.head(p, in, 0, 0)).To(BeNil())
			Expect(f.commit(p, in, false, 0, 0)).To(BeTrue())

			req := f.head(p, HostIn{}, 0, 0)
			Expect(req).NotTo(BeNil())
			Expect(req.col).To(Equal(uint32(42)))
		})

		It("should hold off while the register is occupied", func() {
			in := HostIn{Req: true, Addr: 42}

			Expect(f.commit(p, in, false, 0, 0)).To(BeTrue())
			Expect(f.commit(p, in, false, 0, 0)).To(BeFalse())

			f.consume()

			Expect(f.commit(p, in, false, 0, 0)).To(BeTrue())
		})
	})

	Context("with 2 stages", func() {
		var f frontend

		BeforeEach(func() {
			f = newFrontend(2)
		})

		It("should register the acknowledge", func() {
			in := HostIn{Req: true, Addr: 42}

			// Capture cycle: no acknowledge yet.
			Expect(f.commit(p, in, false, 0, 0)).To(BeFalse())

			// Acknowledge cycle: the requester still drives the old
			// request, which must not be captured again.
			Expect(f.commit(p, in, false, 0, 0)).To(BeTrue())

			Expect(f.shadow.valid).To(BeFalse())
		})

		It("should buffer a second request in the shadow register", func() {
			a := HostIn{Req: true, Addr: 1}
			b := HostIn{Req: true, Addr: 2}

			Expect(f.commit(p, a, false, 0, 0)).To(BeFalse())
			Expect(f.commit(p, a, false, 0, 0)).To(BeTrue())

			Expect(f.commit(p, b, false, 0, 0)).To(BeFalse())
			Expect(f.commit(p, b, false, 0, 0)).To(BeTrue())

			Expect(f.prim.col).To(Equal(uint32(1)))
			Expect(f.shadow.col).To(Equal(uint32(2)))
		})

		It("should acknowledge three requests exactly once each", func() {
			reqs := []HostIn{
				{Req: true, Addr: 1},
				{Req: true, Addr: 2},
				{Req: true, Addr: 3},
			}

			acks := make([]int, len(reqs))
			next := 0

			for cycle := 0; cycle < 20 && next < len(reqs); cycle++ {
				in := reqs[next]

				// Emulate the core draining one request per cycle.
				consumed := false
				if f.head(p, in, 0, 0) != nil {
					f.consume()
					consumed = true
				}

				if f.commit(p, in, consumed, 0, 0) {
					acks[next]++
					next++
				}
			}

			Expect(next).To(Equal(3))
			Expect(acks).To(Equal([]int{1, 1, 1}))
		})

		It("should keep both stages current across activations", func() {
			rowAddr := func(row uint32) uint32 {
				return row << (p.ColBits + p.BankBits)
			}

			a := HostIn{Req: true, Addr: rowAddr(5)}
			b := HostIn{Req: true, Addr: rowAddr(6)}

			Expect(f.commit(p, a, false, 0, 0)).To(BeFalse())
			Expect(f.commit(p, a, false, 0, 0)).To(BeTrue())
			Expect(f.commit(p, b, false, 0, 0)).To(BeFalse())
			Expect(f.commit(p, b, false, 0, 0)).To(BeTrue())

			f.noteActivate(0, 5)
			Expect(f.prim.sameRow).To(BeTrue())
			Expect(f.shadow.sameRow).To(BeFalse())

			f.consume()
			f.noteActivate(0, 6)
			Expect(f.prim.sameRow).To(BeTrue())

			f.noteClose()
			Expect(f.prim.sameRow).To(BeFalse())
		})
	})

	Describe("activation tracking", func() {
		It("should recompute flags when a row is activated", func() {
			f := newFrontend(2)

			addr := uint32(7)<<(p.ColBits+p.BankBits) |
				uint32(1)<<p.ColBits | 3
			in := HostIn{Req: true, Addr: addr}

			f.commit(p, in, false, 0, 0)
			Expect(f.prim.sameRow).To(BeFalse())

			f.noteActivate(1, 7)

			Expect(f.prim.sameBank).To(BeTrue())
			Expect(f.prim.sameRow).To(BeTrue())
		})

		It("should clear the row flag when the row is closed", func() {
			f := newFrontend(1)

			addr := uint32(7)<<(p.ColBits+p.BankBits) |
				uint32(1)<<p.ColBits | 3
			in := HostIn{Req: true, Addr: addr}

			f.commit(p, in, false, 1, 7)
			Expect(f.prim.sameRow).To(BeTrue())

			f.noteClose()

			Expect(f.prim.sameRow).To(BeFalse())
		})
	})
})
