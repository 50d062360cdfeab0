// gbemu is the windowed front-end: it loads a cartridge and shows the
// live machine state while the interpreter runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retroware/gbcore/internal/emu"
	"github.com/retroware/gbcore/internal/gblog"
	"github.com/retroware/gbcore/internal/romfile"
	"github.com/retroware/gbcore/internal/ui"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, also .gz/.zip/.7z)")
	scale := flag.Int("scale", 3, "window scale")
	trace := flag.Bool("trace", false, "CPU trace log to stderr")
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

	title := "gbemu - " + filepath.Base(*romPath)
	if err := ui.Run(ui.NewApp(m, title), *scale); err != nil {
		fmt.Fprintf(os.Stderr, "ui: %v\n", err)
		os.Exit(1)
	}
	log.Flush()
}
