package ppu

import "github.com/nes-core/nesgo/internal/cpuerr"

// Register offsets within the 8-byte window the CPU sees mirrored
// across $2000..$4000.
const (
	regPpuCtrl = iota
	regPpuMask
	regPpuStatus
	regOamAddr
	regOamData
	regPpuScroll
	regPpuAddr
	regPpuData
)

// BusAdapter exposes the PPU's eight register ports to the CPU bus,
// mirrored every 8 bytes across $2000..$4000.
type BusAdapter struct {
	ppu *Ppu
}

// NewBusAdapter wraps ppu for CPU-bus access.
func NewBusAdapter(p *Ppu) *BusAdapter {
	return &BusAdapter{ppu: p}
}

// Read implements bus.Device.
func (a *BusAdapter) Read(offset uint16) (uint8, error) {
	switch offset % 8 {
	case regPpuStatus:
		return a.ppu.ReadPpuStatus(), nil
	case regOamData:
		return a.ppu.ReadOamData(), nil
	default:
		return 0, &cpuerr.MemoryAccessViolation{Address: offset, Reason: "read from write-only PPU register"}
	}
}

// Write implements bus.Device.
func (a *BusAdapter) Write(offset uint16, value uint8) error {
	switch offset % 8 {
	case regPpuCtrl:
		a.ppu.WritePpuCtrl(value)
	case regPpuMask:
		a.ppu.WritePpuMask(value)
	case regPpuStatus:
		return &cpuerr.MemoryAccessViolation{Address: offset, Reason: "write to read-only PPUSTATUS"}
	case regOamAddr:
		a.ppu.WriteOamAddr(value)
	case regOamData:
		a.ppu.WriteOamData(value)
	case regPpuScroll:
		a.ppu.WritePpuScroll(value)
	case regPpuAddr:
		a.ppu.WritePpuAddr(value)
	case regPpuData:
		return a.ppu.WritePpuData(value)
	}
	return nil
}
