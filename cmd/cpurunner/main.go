// cpurunner executes a ROM headlessly for a bounded number of opcodes.
// Serial output is streamed to stdout, which is how the common CPU
// test ROMs report pass/fail.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroware/gbcore/internal/emu"
	"github.com/retroware/gbcore/internal/gblog"
	"github.com/retroware/gbcore/internal/romfile"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, also .gz/.zip/.7z)")
	steps := flag.Int("steps", 5_000_000, "max opcodes to execute")
	chunk := flag.Int("chunk", 10_000, "opcodes per run slice between serial checks")
	trace := flag.Bool("trace", false, "log every instruction")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	logLevel := flag.Int("loglevel", int(gblog.Warn), "log level 0=err 1=warn 2=info 3=trace")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "-rom is required")
		os.Exit(2)
	}
	rom, err := romfile.Load(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read rom: %v\n", err)
		os.Exit(1)
	}

	level := gblog.Level(*logLevel)
	if *trace {
		level = gblog.Trace
	}
	log := gblog.New(os.Stderr, level, gblog.AllChannels)

	m := emu.New(emu.Config{Trace: *trace, PostBoot: true}, log)
	if err := m.LoadCartridge(rom); err != nil {
		fmt.Fprintf(os.Stderr, "load cartridge: %v\n", err)
		os.Exit(1)
	}

	var ser bytes.Buffer
	m.SetSerialWriter(io.MultiWriter(os.Stdout, &ser))

	executed := 0
	for executed < *steps {
		budget := *chunk
		if rem := *steps - executed; rem < budget {
			budget = rem
		}
		n := m.Run(budget)
		executed += n
		if m.Faulted() {
			log.Flush()
			fmt.Fprintf(os.Stderr, "stopped on unhandled opcode after %d opcodes\n", executed)
			os.Exit(1)
		}
		if *until != "" && strings.Contains(strings.ToLower(ser.String()), strings.ToLower(*until)) {
			break
		}
	}

	log.Flush()
	fmt.Fprintf(os.Stderr, "executed %d opcodes\n", executed)
}
