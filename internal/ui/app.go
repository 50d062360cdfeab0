// Package ui is a small ebiten front-end for the core: it runs a step
// budget every frame and draws the machine state as text. There is no
// PPU in the core, so this view is registers, bank state and serial
// output rather than pixels.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/retroware/gbcore/internal/emu"
)

const (
	viewW = 320
	viewH = 200

	// opcodes per 60 Hz frame, roughly one DMG frame's worth
	frameBudget = 17000
)

// App drives a Machine from the ebiten game loop.
type App struct {
	m      *emu.Machine
	title  string
	paused bool

	mu     sync.Mutex
	serial []byte
}

func NewApp(m *emu.Machine, title string) *App {
	a := &App{m: m, title: title}
	m.SetSerialWriter(serialFunc(func(p []byte) (int, error) {
		a.mu.Lock()
		a.serial = append(a.serial, p...)
		if len(a.serial) > 512 {
			a.serial = a.serial[len(a.serial)-512:]
		}
		a.mu.Unlock()
		return len(p), nil
	}))
	return a
}

type serialFunc func(p []byte) (int, error)

func (f serialFunc) Write(p []byte) (int, error) { return f(p) }

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.m.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.m.Run(1)
		}
		return nil
	}
	if !a.m.Faulted() {
		a.m.Run(frameBudget)
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	c := a.m.CPU()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.title)
	fmt.Fprintf(&b, "PC %04X  SP %04X\n", c.PC, c.SP)
	fmt.Fprintf(&b, "AF %04X  BC %04X\n", c.AF(), c.BC())
	fmt.Fprintf(&b, "DE %04X  HL %04X\n", c.DE(), c.HL())
	fmt.Fprintf(&b, "Z%d N%d H%d C%d\n", bit(c.F, 7), bit(c.F, 6), bit(c.F, 5), bit(c.F, 4))
	fmt.Fprintf(&b, "ROM bank %d\n", a.m.Cart().ROMBank())
	fmt.Fprintf(&b, "next  %02X %02X %02X\n\n", a.m.Bus().Peek(c.PC), a.m.Bus().Peek(c.PC+1), a.m.Bus().Peek(c.PC+2))
	switch {
	case a.m.Faulted():
		b.WriteString("FAULT: unhandled opcode\n")
	case a.paused:
		b.WriteString("paused  [N] step  [P] resume\n")
	default:
		b.WriteString("running  [P] pause  [R] reset\n")
	}

	a.mu.Lock()
	if len(a.serial) > 0 {
		fmt.Fprintf(&b, "\nserial:\n%s", string(a.serial))
	}
	a.mu.Unlock()

	ebitenutil.DebugPrint(screen, b.String())
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return viewW, viewH
}

func bit(v byte, n uint) int {
	return int(v>>n) & 1
}

// Run opens the window and blocks until the user quits.
func Run(a *App, scale int) error {
	if scale < 1 {
		scale = 1
	}
	ebiten.SetWindowSize(viewW*scale, viewH*scale)
	ebiten.SetWindowTitle(a.title)
	return ebiten.RunGame(a)
}
