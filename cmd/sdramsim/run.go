package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/till-s/sdramctrl/calib"
	"github.com/till-s/sdramctrl/datarecording"
	"github.com/till-s/sdramctrl/monitoring"
	"github.com/till-s/sdramctrl/sdram"
	"github.com/till-s/sdramctrl/sim"
	"github.com/till-s/sdramctrl/system"
)

var runFlags = struct {
	freqMHz     uint
	cycles      uint64
	stages      int
	extOutReg   bool
	cells       uint32
	record      bool
	traceDB     string
	monitor     bool
	monitorPort int
	openBrowser bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the calibration pattern against the simulated device.",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().UintVar(&runFlags.freqMHz, "freq-mhz",
		envUint("SDRAMSIM_FREQ_MHZ", 166),
		"clock frequency in MHz")
	runCmd.Flags().Uint64Var(&runFlags.cycles, "cycles",
		envUint64("SDRAMSIM_CYCLES", 2_000_000),
		"number of cycles to simulate, 0 for no limit")
	runCmd.Flags().IntVar(&runFlags.stages, "stages",
		0, "input staging depth of the controller (0, 1 or 2)")
	runCmd.Flags().BoolVar(&runFlags.extOutReg, "ext-out-reg",
		false, "place the command output register outside the core")
	runCmd.Flags().Uint32Var(&runFlags.cells, "cells",
		1<<16, "number of cells each calibration pass covers")
	runCmd.Flags().BoolVar(&runFlags.record, "record",
		false, "record the command stream into a SQLite database")
	runCmd.Flags().StringVar(&runFlags.traceDB, "trace-db",
		"sdramsim", "file name prefix of the trace database")
	runCmd.Flags().BoolVar(&runFlags.monitor, "monitor",
		false, "serve the monitoring API while running")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "monitor-port",
		0, "port of the monitoring server, 0 for a random port")
	runCmd.Flags().BoolVar(&runFlags.openBrowser, "open-browser",
		false, "open the monitoring page in the default browser")
}

// envUint reads an unsigned default from the environment. A .env file in the
// working directory is loaded first, so simulation campaigns can pin their
// settings next to their results.
func envUint(key string, fallback uint) uint {
	return uint(envUint64(key, uint64(fallback)))
}

func envUint64(key string, fallback uint64) uint64 {
	_ = godotenv.Load()

	s, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Panicf("%s: %v", key, err)
	}

	return v
}

func run() {
	params := sdram.DefaultDeviceParams()
	freq := sim.Freq(runFlags.freqMHz) * sim.MHz

	engine := sim.NewSerialEngine()

	driver := calib.MakeBuilder().
		WithCells(runFlags.cells).
		WithDataBytes(params.DataBytes).
		Build("Calib")

	builder := system.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithDeviceParams(params).
		WithInputStages(runFlags.stages).
		WithDriver(driver).
		WithMaxCycles(runFlags.cycles)

	if runFlags.extOutReg {
		builder = builder.WithExternalOutputRegister()
	}

	var recorder datarecording.DataRecorder
	if runFlags.record {
		recorder = datarecording.NewDataRecorder(runFlags.traceDB)
		builder = builder.WithRecorder(recorder)
	}

	s := builder.Build("Sim")

	if runFlags.monitor {
		monitor := monitoring.NewMonitor().
			WithPortNumber(runFlags.monitorPort)
		if runFlags.openBrowser {
			monitor = monitor.WithBrowser()
		}

		monitor.RegisterEngine(engine)
		monitor.RegisterComponent(s)
		monitor.RegisterComponent(s.Controller())
		monitor.RegisterComponent(s.Device())
		monitor.RegisterComponent(driver)
		monitor.StartServer()
	}

	err := s.Run()
	if err != nil {
		log.Panic(err)
	}

	writeMismatches, readMismatches, passes := driver.Counts()

	fmt.Printf("cycles:           %d\n", s.CycleCount())
	fmt.Printf("refresh cycles:   %d\n", s.Device().RefreshCount())
	fmt.Printf("read passes:      %d\n", passes)
	fmt.Printf("write mismatches: %d\n", writeMismatches)
	fmt.Printf("read mismatches:  %d\n", readMismatches)

	if recorder != nil {
		fmt.Printf("trace database:   %s\n", datarecording.DBName(recorder))
	}

	status := 0
	if writeMismatches > 0 || readMismatches > 0 {
		status = 1
	}

	atexit.Exit(status)
}
