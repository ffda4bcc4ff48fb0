// Command nes is the NES emulator executable: it loads an iNES ROM,
// wires the default NROM memory map (§6), and drives the cooperative
// CPU/PPU loop either through an ebiten window or, with -nogui, headless
// for a fixed number of frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nes-core/nesgo/internal/cartridge"
	"github.com/nes-core/nesgo/internal/console"
	"github.com/nes-core/nesgo/internal/graphics"
	"github.com/nes-core/nesgo/internal/input"
	"github.com/nes-core/nesgo/internal/ppu"
)

func main() {
	scale := flag.Int("scale", 3, "integer window scale applied to the 256x240 frame")
	nogui := flag.Bool("nogui", false, "run headless, driving a fixed number of frames without opening a window")
	frames := flag.Int("frames", 120, "frames to run in -nogui mode")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: nes [-scale N] [-nogui] [-frames N] <rom.nes>")
		os.Exit(2)
	}
	romPath := flag.Arg(0)

	cart, err := cartridge.Load(romPath)
	if err != nil {
		log.Fatalf("loading %s: %v", romPath, err)
	}
	fmt.Printf("loaded %s: PRG=%dKiB CHR=%dKiB mapper=%d\n",
		romPath, cart.Header.PRGSize/1024, cart.Header.CHRSize/1024, cart.Header.MapperID)

	if cart.Header.MapperID != 0 {
		log.Fatalf("mapper %d not supported: only NROM (mapper 0) is in scope", cart.Header.MapperID)
	}

	if *nogui {
		if err := runHeadless(cart, *frames); err != nil {
			log.Fatalf("headless run failed: %v", err)
		}
		return
	}

	if err := runGUI(cart, *scale); err != nil {
		log.Fatalf("gui run failed: %v", err)
	}
}

func noKeysDown(input.Button) bool { return false }

func runGUI(cart *cartridge.Cartridge, scale int) error {
	game := graphics.NewGame(scale)
	cons, err := console.New(cart, game.KeyDown)
	if err != nil {
		return fmt.Errorf("wiring console: %w", err)
	}
	cons.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- cons.Run(ctx, game, game.Ticks) }()

	ebiten.SetWindowSize(ppu.FrameWidth*scale, ppu.FrameHeight*scale)
	ebiten.SetWindowTitle("nesgo")
	if err := ebiten.RunGame(game); err != nil {
		cancel()
		return err
	}
	cancel()
	return <-runErr
}

// headlessSink drives exactly `budget` frames, then requests close; it
// never touches a window so -nogui runs in CI without a display.
type headlessSink struct {
	budget int
}

func (h *headlessSink) ShouldClose() bool {
	if h.budget <= 0 {
		return true
	}
	h.budget--
	return false
}
func (h *headlessSink) SetPixel(x, y int, c ppu.RGBA) {}
func (h *headlessSink) Present()                      {}

func runHeadless(cart *cartridge.Cartridge, frames int) error {
	cons, err := console.New(cart, noKeysDown)
	if err != nil {
		return fmt.Errorf("wiring console: %w", err)
	}
	cons.Reset()

	ctx := context.Background()
	sink := &headlessSink{budget: frames}
	ticks := make(chan struct{}, 1)
	go func() {
		for i := 0; i < frames+1; i++ {
			ticks <- struct{}{}
		}
	}()

	if err := cons.Run(ctx, sink, ticks); err != nil {
		return err
	}
	fmt.Printf("ran %d frames headless\n", frames)
	return nil
}
