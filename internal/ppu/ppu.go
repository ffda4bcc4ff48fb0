// Package ppu implements the NES Picture Processing Unit: internal
// registers, OAM, VRAM access through its own memory controller, the
// framebuffer, and NMI emission. Cycle-exact scanline timing is out of
// scope (§1 non-goals); the render loop implements the coarse
// NMI/vblank contract §4.7 specifies.
package ppu

import (
	"sync"

	"github.com/nes-core/nesgo/internal/bus"
)

const (
	FrameWidth  = 256
	FrameHeight = 240
	oamSize     = 64 // sprite entries
)

// Sprite is one 4-byte OAM entry.
type Sprite struct {
	Y, Tile, Attribute, X uint8
}

// Ppu holds all PPU-visible state. Memory is a bus.MemoryController
// wired independently of the CPU's, per §3's "separate controller
// instance for the PPU address space".
type Ppu struct {
	Memory *bus.MemoryController

	// mu guards every field below. The CPU goroutine reaches these
	// through the bus adapter's synchronous calls (WritePpuCtrl,
	// WriteOamData, the $4014 DMA loop, ...) while the PPU's own render
	// loop goroutine reads/writes nmiPending, sprite0Hit, spriteOverflow,
	// and nmiOnVblank once per frame (render.go). §5 requires adapter
	// calls to be serialized against the render loop; a mutex is the
	// idiomatic Go way to do that without routing writes through another
	// queue.
	mu sync.Mutex

	v, t uint16
	x    uint8 // fine X scroll (5 bits, per the internal latch this core models)
	w    bool  // write latch, toggled by PpuAddr/PpuScroll, cleared by status read

	oam     [oamSize]Sprite
	oamAddr uint8

	nmiPending     bool
	sprite0Hit     bool
	spriteOverflow bool

	greyscale             bool
	showBackgroundLeft8   bool
	showSpritesLeft8      bool
	showBackground        bool
	showSprites           bool
	emphasizeR, emphasizeG, emphasizeB bool

	vramIncrement       uint16 // 1 or 32
	spritePatternBase   uint16 // 0x0000 or 0x1000
	backgroundPatternBase uint16
	wideSprites         bool
	nmiOnVblank         bool
	baseNametable       uint16 // one of 0x2000, 0x2400, 0x2800, 0x2C00

	xScroll, yScroll uint8

	framebuffer [FrameWidth * FrameHeight]uint8
}

// New creates a Ppu whose VRAM reads/writes route through memory.
func New(memory *bus.MemoryController) *Ppu {
	return &Ppu{
		Memory:        memory,
		baseNametable: 0x2000,
		vramIncrement: 1,
	}
}

// WritePpuCtrl implements the $2000 entry point.
func (p *Ppu) WritePpuCtrl(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseNametable = 0x2000 + 0x400*uint16(v&0x03)
	if v&0x04 != 0 {
		p.vramIncrement = 32
	} else {
		p.vramIncrement = 1
	}
	if v&0x08 != 0 {
		p.spritePatternBase = 0x1000
	} else {
		p.spritePatternBase = 0x0000
	}
	if v&0x10 != 0 {
		p.backgroundPatternBase = 0x1000
	} else {
		p.backgroundPatternBase = 0x0000
	}
	p.wideSprites = v&0x20 != 0
	p.nmiOnVblank = v&0x80 != 0
}

// WritePpuMask implements the $2001 entry point.
func (p *Ppu) WritePpuMask(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.greyscale = v&0x01 != 0
	p.showBackgroundLeft8 = v&0x02 != 0
	p.showSpritesLeft8 = v&0x04 != 0
	p.showBackground = v&0x08 != 0
	p.showSprites = v&0x10 != 0
	p.emphasizeR = v&0x20 != 0
	p.emphasizeG = v&0x40 != 0
	p.emphasizeB = v&0x80 != 0
}

// WritePpuAddr implements the two-write $2006 state machine.
func (p *Ppu) WritePpuAddr(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.w {
		p.t = (p.t &^ 0x3F00) | (uint16(v&0x3F) << 8)
		p.w = true
		return
	}
	p.t = (p.t &^ 0x00FF) | uint16(v)
	p.v = p.t
	p.w = false
}

// WritePpuData implements the $2007 entry point: writes v to PPU memory
// at V, then auto-increments V.
func (p *Ppu) WritePpuData(v uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Memory.Write(p.v, v); err != nil {
		return err
	}
	p.v += p.vramIncrement
	return nil
}

// WritePpuScroll implements the two-write $2005 latch.
func (p *Ppu) WritePpuScroll(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.w {
		p.xScroll = v
		p.w = true
		return
	}
	p.yScroll = v
	p.w = false
}

// WriteOamAddr implements the $2003 entry point.
func (p *Ppu) WriteOamAddr(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.oamAddr = v
}

// WriteOamData implements the $2004 write entry point: stores v into the
// OAM entry/field selected by OAM_ADDR, then post-increments OAM_ADDR.
func (p *Ppu) WriteOamData(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry := &p.oam[p.oamAddr/4]
	switch p.oamAddr % 4 {
	case 0:
		entry.Y = v
	case 1:
		entry.Tile = v
	case 2:
		entry.Attribute = v
	case 3:
		entry.X = v
	}
	p.oamAddr++
}

// ReadOamData returns the OAM byte currently selected by OAM_ADDR,
// without advancing the cursor.
func (p *Ppu) ReadOamData() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry := p.oam[p.oamAddr/4]
	switch p.oamAddr % 4 {
	case 0:
		return entry.Y
	case 1:
		return entry.Tile
	case 2:
		return entry.Attribute
	default:
		return entry.X
	}
}

// ReadPpuStatus implements the $2002 entry point: composes the status
// byte, then clears W and the pending NMI flag.
func (p *Ppu) ReadPpuStatus() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var status uint8
	if p.nmiPending {
		status |= 0x80
	}
	if p.sprite0Hit {
		status |= 0x40
	}
	if p.spriteOverflow {
		status |= 0x20
	}
	p.w = false
	p.nmiPending = false
	return status
}

// OAM returns a snapshot of the 64 OAM entries, in (y, tile, attribute,
// x) order, for inspecting OAM (for example after an OAM DMA) and for
// tests.
func (p *Ppu) OAM() [oamSize]Sprite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oam
}

// Framebuffer returns the current 256x240 grid of palette indices
// (0..63). It is a PPU-private resource per §5: the CPU never observes
// it, only the host renderer does.
func (p *Ppu) Framebuffer() *[FrameWidth * FrameHeight]uint8 {
	return &p.framebuffer
}

// FetchTileBackground reads an 8x8 tile of 2-bit palette indices from
// the background pattern table at the given tile index, per §4.7.
func (p *Ppu) FetchTileBackground(index uint8) ([8][8]uint8, error) {
	p.mu.Lock()
	base := p.backgroundPatternBase
	p.mu.Unlock()
	return fetchTile(p.Memory, base, index)
}

// FetchTileSprite is the sprite-pattern-table analogue of
// FetchTileBackground.
func (p *Ppu) FetchTileSprite(index uint8) ([8][8]uint8, error) {
	p.mu.Lock()
	base := p.spritePatternBase
	p.mu.Unlock()
	return fetchTile(p.Memory, base, index)
}

func fetchTile(memory *bus.MemoryController, base uint16, index uint8) ([8][8]uint8, error) {
	var tile [8][8]uint8
	addr := base + 16*uint16(index)
	plane0, err := memory.Read64(addr)
	if err != nil {
		return tile, err
	}
	plane1, err := memory.Read64(addr + 8)
	if err != nil {
		return tile, err
	}
	p0 := littleEndianBytes(plane0)
	p1 := littleEndianBytes(plane1)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			bit0 := (p0[row] >> (7 - uint(col))) & 1
			bit1 := (p1[row] >> (7 - uint(col))) & 1
			tile[row][col] = (bit0 << 1) | bit1
		}
	}
	return tile, nil
}

func littleEndianBytes(v uint64) [8]uint8 {
	var b [8]uint8
	for i := range b {
		b[i] = uint8(v >> (8 * uint(i)))
	}
	return b
}
