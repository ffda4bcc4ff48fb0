// Package console wires a cartridge, a Cpu, a Ppu, and an Apu into the
// default NES memory map and runs the two cooperative tasks §5
// describes: the CPU step loop and the PPU render loop, connected by a
// shared interrupt.Channel.
package console

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nes-core/nesgo/internal/apu"
	"github.com/nes-core/nesgo/internal/bus"
	"github.com/nes-core/nesgo/internal/cartridge"
	"github.com/nes-core/nesgo/internal/cpu"
	"github.com/nes-core/nesgo/internal/input"
	"github.com/nes-core/nesgo/internal/interrupt"
	"github.com/nes-core/nesgo/internal/ppu"
)

const (
	cpuRAMSize      = 0x0800
	ppuRegisterBase = 0x2000
	ppuRegisterEnd  = 0x4000
	apuRegisterBase = 0x4000
	apuRegisterEnd  = 0x4018
	prgWindowBase   = 0x8000
	prgWindowEnd    = 0x10000

	chrWindowEnd  = 0x2000
	nametableBase = 0x2000
	nametableEnd  = 0x3000
	nametableSize = 0x1000
	paletteBase   = 0x3F00
	paletteSize   = 0x20
	oamDMASize    = 256
)

// Console is a fully wired NES: a Cpu and Ppu sharing an interrupt
// channel, each with its own bus.MemoryController, per §3.
type Console struct {
	Cpu *cpu.Cpu
	Ppu *ppu.Ppu
	Apu *apu.Apu

	interrupts interrupt.Channel
}

// New builds a Console from cart using the default NROM memory map
// (§6), driven by keyDown for controller input. Only mapper 0 is
// supported; cart is expected to already have been validated by the
// cartridge loader.
func New(cart *cartridge.Cartridge, keyDown input.KeyDown) (*Console, error) {
	interrupts := interrupt.NewChannel()

	ppuMemory := bus.NewMemoryController()
	if err := ppuMemory.AddMemory(bus.NewROM(cart.CHR), 0x0000, chrWindowEnd); err != nil {
		return nil, fmt.Errorf("wiring CHR: %w", err)
	}
	if err := ppuMemory.AddMemory(bus.NewRAM(nametableSize), nametableBase, nametableEnd); err != nil {
		return nil, fmt.Errorf("wiring nametables: %w", err)
	}
	if err := ppuMemory.AddMemory(bus.NewMirroredRAM(paletteSize), paletteBase, paletteBase+0x100); err != nil {
		return nil, fmt.Errorf("wiring palette RAM: %w", err)
	}

	p := ppu.New(ppuMemory)
	a := apu.New()

	cpuMemory := bus.NewMemoryController()
	if err := cpuMemory.AddMemory(bus.NewMirroredRAM(cpuRAMSize), 0x0000, ppuRegisterBase); err != nil {
		return nil, fmt.Errorf("wiring CPU RAM: %w", err)
	}
	if err := cpuMemory.AddMemory(ppu.NewBusAdapter(p), ppuRegisterBase, ppuRegisterEnd); err != nil {
		return nil, fmt.Errorf("wiring PPU registers: %w", err)
	}

	dma := func(page uint8) {
		base := uint16(page) << 8
		for i := 0; i < oamDMASize; i++ {
			v, err := cpuMemory.Read(base + uint16(i))
			if err != nil {
				return
			}
			p.WriteOamData(v)
		}
	}
	apuAdapter := apu.NewBusAdapter(a, keyDown, dma)
	if err := cpuMemory.AddMemory(apuAdapter, apuRegisterBase, apuRegisterEnd); err != nil {
		return nil, fmt.Errorf("wiring APU registers: %w", err)
	}
	if err := cpuMemory.AddMemory(bus.NewMirroredROM(cart.PRG, prgWindowEnd-prgWindowBase), prgWindowBase, prgWindowEnd); err != nil {
		return nil, fmt.Errorf("wiring PRG-ROM: %w", err)
	}

	c := cpu.New(cpuMemory, interrupts)

	return &Console{Cpu: c, Ppu: p, Apu: a, interrupts: interrupts}, nil
}

// Reset enqueues a Reset interrupt so the next CPU step services it and
// loads PC from the reset vector.
func (c *Console) Reset() {
	c.interrupts.TrySend(interrupt.Reset)
}

// Run drives the CPU step loop and the PPU render loop as two
// cooperative errgroup tasks (§5): a fault in either tears down the
// other. The CPU loop runs until ctx is cancelled or Step fails; the
// PPU loop runs one RenderFrame per tick of ticks and returns when sink
// requests a close or ctx is cancelled.
func (c *Console) Run(ctx context.Context, sink ppu.FrameSink, ticks <-chan struct{}) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := c.Cpu.Step(); err != nil {
				return fmt.Errorf("cpu step: %w", err)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
				if c.Ppu.RenderFrame(sink, c.interrupts) {
					return errClosed
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		if err == errClosed || err == context.Canceled {
			return nil
		}
		return err
	}
	return nil
}

var errClosed = fmt.Errorf("host window closed")
