package system

import (
	"database/sql"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/till-s/sdramctrl/calib"
	"github.com/till-s/sdramctrl/datarecording"
	"github.com/till-s/sdramctrl/sdram"
	"github.com/till-s/sdramctrl/sim"
)

var _ = Describe("System", func() {
	runCalibration := func(stages, cells int, extOutReg bool) *calib.Comp {
		engine := sim.NewSerialEngine()
		driver := calib.MakeBuilder().
			WithCells(uint32(cells)).
			Build("Calib")

		builder := MakeBuilder().
			WithEngine(engine).
			WithDriver(driver).
			WithInputStages(stages).
			WithMaxCycles(80000)
		if extOutReg {
			builder = builder.WithExternalOutputRegister()
		}

		s := builder.Build("Sim")

		err := s.Run()
		Expect(err).To(BeNil())
		Expect(s.CycleCount()).To(Equal(uint64(80000)))

		return driver
	}

	It("should run a clean calibration with a pass-through frontend", func() {
		driver := runCalibration(0, 256, false)

		writeMismatches, readMismatches, passes := driver.Counts()
		Expect(writeMismatches).To(BeZero())
		Expect(readMismatches).To(BeZero())
		Expect(passes).To(BeNumerically(">=", 2))
	})

	It("should run a clean calibration with a registered frontend", func() {
		driver := runCalibration(1, 256, false)

		writeMismatches, readMismatches, passes := driver.Counts()
		Expect(writeMismatches).To(BeZero())
		Expect(readMismatches).To(BeZero())
		Expect(passes).To(BeNumerically(">=", 2))
	})

	It("should run a clean calibration with a fully registered bus", func() {
		// 4096 cells sweep two full rows of every bank, so the staged
		// frontend sees bank switches and a row switch on every pass.
		driver := runCalibration(2, 4096, true)

		writeMismatches, readMismatches, passes := driver.Counts()
		Expect(writeMismatches).To(BeZero())
		Expect(readMismatches).To(BeZero())
		Expect(passes).To(BeNumerically(">=", 1))
	})

	It("should keep the device refreshed throughout the run", func() {
		engine := sim.NewSerialEngine()
		driver := calib.MakeBuilder().WithCells(256).Build("Calib")

		s := MakeBuilder().
			WithEngine(engine).
			WithDriver(driver).
			WithMaxCycles(80000).
			Build("Sim")

		err := s.Run()
		Expect(err).To(BeNil())

		// The device model panics on a late refresh only indirectly (row
		// decay is not modeled), so the cadence is checked by count: the
		// active part of the run spans ~48 refresh intervals plus the
		// initialization burst.
		Expect(s.Device().RefreshCount()).To(BeNumerically(">=", 50))
	})

	Describe("with a scripted driver", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should round-trip one write and one read", func() {
			engine := sim.NewSerialEngine()
			driver := NewMockDriver(mockCtrl)

			phase := "wait"
			var got []uint64
			driver.EXPECT().Step(gomock.Any()).DoAndReturn(
				func(out sdram.HostOut) sdram.HostIn {
					if out.Vld {
						got = append(got, out.RData)
					}

					switch phase {
					case "wait":
						if out.Rdy {
							phase = "write"
						}
						return sdram.HostIn{}

					case "write":
						if out.Ack {
							phase = "read"
							return sdram.HostIn{
								Req: true, Read: true, Addr: 5,
							}
						}
						return sdram.HostIn{
							Req: true, Addr: 5,
							WData: 0xabcd, WStrb: 0x3,
						}

					case "read":
						if out.Ack {
							phase = "drain"
							return sdram.HostIn{}
						}
						return sdram.HostIn{
							Req: true, Read: true, Addr: 5,
						}

					default:
						return sdram.HostIn{}
					}
				}).AnyTimes()

			s := MakeBuilder().
				WithEngine(engine).
				WithDriver(driver).
				WithMaxCycles(20000).
				Build("Sim")

			err := s.Run()
			Expect(err).To(BeNil())

			Expect(got).To(Equal([]uint64{0xabcd}))

			stored, err := s.Device().Storage().Read(5*2, 2)
			Expect(err).To(BeNil())
			Expect(stored).To(Equal([]byte{0xcd, 0xab}))
		})
	})

	Describe("command recording", func() {
		It("should record the issued commands", func() {
			prefix := filepath.Join(GinkgoT().TempDir(), "trace")
			recorder := datarecording.NewDataRecorder(prefix)
			defer recorder.Close()

			engine := sim.NewSerialEngine()
			driver := calib.MakeBuilder().WithCells(64).Build("Calib")

			s := MakeBuilder().
				WithEngine(engine).
				WithDriver(driver).
				WithMaxCycles(20000).
				WithRecorder(recorder).
				Build("Sim")

			err := s.Run()
			Expect(err).To(BeNil())

			recorder.Flush()

			db, err := sql.Open("sqlite3", datarecording.DBName(recorder))
			Expect(err).To(BeNil())
			defer db.Close()

			var count int
			err = db.QueryRow(
				"SELECT COUNT(*) FROM sdram_commands").Scan(&count)
			Expect(err).To(BeNil())
			Expect(count).To(BeNumerically(">", 0))

			var refreshes int
			err = db.QueryRow(
				"SELECT COUNT(*) FROM sdram_commands WHERE Cmd = 'REFRESH'").
				Scan(&refreshes)
			Expect(err).To(BeNil())
			Expect(refreshes).To(BeNumerically(">", 0))
		})
	})

	Describe("builder validation", func() {
		It("should require an engine", func() {
			Expect(func() {
				MakeBuilder().
					WithDriver(calib.MakeBuilder().Build("Calib")).
					Build("Sim")
			}).To(Panic())
		})

		It("should require a driver", func() {
			Expect(func() {
				MakeBuilder().
					WithEngine(sim.NewSerialEngine()).
					Build("Sim")
			}).To(Panic())
		})
	})
})
