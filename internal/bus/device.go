// Package bus implements the memory-mapped address decoder that routes
// CPU and PPU reads/writes to interchangeable leaf devices.
package bus

import "github.com/nes-core/nesgo/internal/cpuerr"

// Device is the uniform interface every bus-mapped component implements.
// offset is device-local: the MemoryController has already subtracted
// the region base before calling in.
type Device interface {
	Read(offset uint16) (uint8, error)
	Write(offset uint16, value uint8) error
}

// RAM is a plain backing store of size bytes. The caller must supply an
// in-range offset; RAM performs no wrapping of its own.
type RAM struct {
	data []uint8
}

// NewRAM allocates a RAM device of the given size.
func NewRAM(size int) *RAM {
	return &RAM{data: make([]uint8, size)}
}

func (r *RAM) Read(offset uint16) (uint8, error) {
	return r.data[offset], nil
}

func (r *RAM) Write(offset uint16, value uint8) error {
	r.data[offset] = value
	return nil
}

// MirroredRAM behaves like RAM but wraps offset modulo its nominal size,
// so the device appears to span a larger bus window by repetition.
type MirroredRAM struct {
	data []uint8
}

// NewMirroredRAM allocates a MirroredRAM device with the given true size.
func NewMirroredRAM(size int) *MirroredRAM {
	return &MirroredRAM{data: make([]uint8, size)}
}

func (m *MirroredRAM) Read(offset uint16) (uint8, error) {
	return m.data[int(offset)%len(m.data)], nil
}

func (m *MirroredRAM) Write(offset uint16, value uint8) error {
	m.data[int(offset)%len(m.data)] = value
	return nil
}

// ROM is an immutable backing store; writes always fail.
type ROM struct {
	data []uint8
}

// NewROM wraps bytes as a read-only device.
func NewROM(bytes []uint8) *ROM {
	return &ROM{data: bytes}
}

func (r *ROM) Read(offset uint16) (uint8, error) {
	return r.data[offset], nil
}

func (r *ROM) Write(offset uint16, value uint8) error {
	return &cpuerr.MemoryAccessViolation{Address: offset, Reason: "write to ROM"}
}

// MirroredROM wraps bytes by repetition into a buffer of length
// targetSize, then behaves as ROM. Used for NROM mapping where a 16KiB
// PRG-ROM must appear twice across 0x8000..0x10000.
type MirroredROM struct {
	data []uint8
}

// NewMirroredROM builds a MirroredROM spanning targetSize bytes by
// repeating bytes.
func NewMirroredROM(bytes []uint8, targetSize int) *MirroredROM {
	data := make([]uint8, targetSize)
	if len(bytes) > 0 {
		for i := range data {
			data[i] = bytes[i%len(bytes)]
		}
	}
	return &MirroredROM{data: data}
}

func (m *MirroredROM) Read(offset uint16) (uint8, error) {
	return m.data[offset], nil
}

func (m *MirroredROM) Write(offset uint16, value uint8) error {
	return &cpuerr.MemoryAccessViolation{Address: offset, Reason: "write to ROM"}
}
