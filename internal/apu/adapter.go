package apu

import (
	"fmt"

	"github.com/nes-core/nesgo/internal/cpuerr"
	"github.com/nes-core/nesgo/internal/input"
)

// DmaFn performs the 256-byte OAM DMA copy triggered by a write to
// $4014: page is the high byte of the source page in CPU address space.
// The console wiring supplies this, since it needs both the CPU's
// memory controller (to read the source page) and the PPU (to receive
// the 256 OamData writes).
type DmaFn func(page uint8)

// BusAdapter maps CPU addresses $4000-$4018 to Apu register writes and
// to the two controller-input shift registers at $4016/$4017.
type BusAdapter struct {
	apu *Apu

	controller1, controller2 input.ShiftRegister
	keyDown                  input.KeyDown
	strobeHigh               bool

	dma DmaFn
}

// NewBusAdapter builds an adapter over apu. keyDown is the host-supplied
// key-down predicate the core consumes instead of polling input itself
// (§4.6); dma performs OAM DMA on a $4014 write.
func NewBusAdapter(a *Apu, keyDown input.KeyDown, dma DmaFn) *BusAdapter {
	return &BusAdapter{apu: a, keyDown: keyDown, dma: dma}
}

// Read implements bus.Device. offset is relative to $4000.
func (b *BusAdapter) Read(offset uint16) (uint8, error) {
	switch offset {
	case 0x16:
		return b.controller1.ReadLSBAndShift(), nil
	case 0x17:
		return b.controller2.ReadLSBAndShift(), nil
	default:
		return 0, &cpuerr.Unimplemented{Detail: fmt.Sprintf("APU register read at offset 0x%02X", offset)}
	}
}

// Write implements bus.Device. offset is relative to $4000.
func (b *BusAdapter) Write(offset uint16, value uint8) error {
	switch offset {
	case 0x11:
		b.apu.SetDmcValue(value)
	case 0x14:
		if b.dma != nil {
			b.dma(value)
		}
	case 0x15:
		b.apu.SetStatus(value)
	case 0x16:
		high := value&0x01 != 0
		if b.strobeHigh && !high {
			b.controller1.Snapshot(b.keyDown)
		}
		b.strobeHigh = high
	case 0x17:
		b.apu.SetFrameCounterOptions(value)
	default:
		return &cpuerr.Unimplemented{Detail: fmt.Sprintf("APU register write at offset 0x%02X", offset)}
	}
	return nil
}
