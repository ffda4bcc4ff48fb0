package console

import (
	"context"
	"testing"
	"time"

	"github.com/nes-core/nesgo/internal/cartridge"
	"github.com/nes-core/nesgo/internal/input"
	"github.com/nes-core/nesgo/internal/ppu"
)

func newTestCartridge() *cartridge.Cartridge {
	return &cartridge.Cartridge{
		PRG: make([]uint8, 0x4000),
		CHR: make([]uint8, 0x2000),
	}
}

func noKeysDown(input.Button) bool { return false }

func TestNewWiresDefaultMemoryMap(t *testing.T) {
	cart := newTestCartridge()
	cart.PRG[0x3FFC] = 0x00 // reset vector low byte, PRG mirrored to $FFFC
	cart.PRG[0x3FFD] = 0x80 // reset vector high byte -> PC = 0x8000
	cart.PRG[0] = 0xEA      // NOP at $8000

	c, err := New(cart, noKeysDown)
	if err != nil {
		t.Fatal(err)
	}

	c.Reset()
	// First step services the Reset (PC = 0x8000); second runs the NOP.
	for i := 0; i < 2; i++ {
		if err := c.Cpu.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if c.Cpu.PC != 0x8001 {
		t.Errorf("PC = 0x%04X, want 0x8001 after NOP following reset", c.Cpu.PC)
	}
}

func TestOamDmaCopiesPageIntoPpuOam(t *testing.T) {
	cart := newTestCartridge()
	c, err := New(cart, noKeysDown)
	if err != nil {
		t.Fatal(err)
	}

	// Stage a 256-byte page of OAM data in CPU RAM at $0200, then trigger
	// DMA from that page via a write to $4014.
	for i := 0; i < 256; i++ {
		if err := c.Cpu.Memory.Write(0x0200+uint16(i), uint8(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Cpu.Memory.Write(0x4014, 0x02); err != nil {
		t.Fatal(err)
	}

	oam := c.Ppu.OAM()
	if oam[0].Y != 0 || oam[0].Tile != 1 || oam[0].Attribute != 2 || oam[0].X != 3 {
		t.Errorf("oam[0] = %+v, want Y=0 Tile=1 Attribute=2 X=3", oam[0])
	}
}

type fakeSink struct {
	frames int
	closed bool
}

func (f *fakeSink) ShouldClose() bool { return f.closed }
func (f *fakeSink) SetPixel(x, y int, c ppu.RGBA) {}
func (f *fakeSink) Present() { f.frames++ }

func TestRunStopsWhenSinkRequestsClose(t *testing.T) {
	cart := newTestCartridge()
	for i := range cart.PRG {
		cart.PRG[i] = 0xEA // fill with NOP so the CPU loop never faults
	}
	cart.PRG[0x3FFC] = 0x00
	cart.PRG[0x3FFD] = 0x80

	c, err := New(cart, noKeysDown)
	if err != nil {
		t.Fatal(err)
	}
	c.Reset()

	sink := &fakeSink{closed: true}
	ticks := make(chan struct{}, 1)
	ticks <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, sink, ticks) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil after sink close", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after sink requested close")
	}
}
