package bus

import "github.com/nes-core/nesgo/internal/cpuerr"

// region holds a half-open address range [start, end) in the 16-bit CPU
// or PPU address space. end is stored as uint32 so a region reaching the
// very top of the address space (end == 0x10000) doesn't need to wrap.
type region struct {
	device     Device
	start, end uint32
}

// MemoryController dispatches a 16-bit address to its owning device,
// subtracting the region base. Ranges are scanned in the order they were
// added; the first match wins. A separate instance is used for the CPU
// and PPU address spaces.
type MemoryController struct {
	regions []region
}

// NewMemoryController creates an empty controller.
func NewMemoryController() *MemoryController {
	return &MemoryController{}
}

// AddMemory appends device to the ordered list of ranges. The range is
// half-open [start, end); end must exceed start and be at most 0x10000.
func (c *MemoryController) AddMemory(device Device, start, end uint32) error {
	if end <= start {
		return &cpuerr.MemoryAccessViolation{Address: uint16(start), Reason: "region end must exceed start"}
	}
	if end > 0x10000 {
		return &cpuerr.MemoryAccessViolation{Address: uint16(start), Reason: "region end exceeds address space"}
	}
	c.regions = append(c.regions, region{device: device, start: start, end: end})
	return nil
}

func (c *MemoryController) find(addr uint16) (Device, uint32, bool) {
	a := uint32(addr)
	for _, r := range c.regions {
		if a >= r.start && a < r.end {
			return r.device, r.start, true
		}
	}
	return nil, 0, false
}

// Read dispatches a read to the owning device. Unmapped addresses fail
// with *cpuerr.MemoryAccessViolation.
func (c *MemoryController) Read(addr uint16) (uint8, error) {
	device, base, ok := c.find(addr)
	if !ok {
		return 0, &cpuerr.MemoryAccessViolation{Address: addr, Reason: "unmapped read"}
	}
	return device.Read(uint16(uint32(addr) - base))
}

// Write dispatches a write to the owning device. Unmapped addresses fail
// with *cpuerr.MemoryAccessViolation.
func (c *MemoryController) Write(addr uint16, value uint8) error {
	device, base, ok := c.find(addr)
	if !ok {
		return &cpuerr.MemoryAccessViolation{Address: addr, Reason: "unmapped write"}
	}
	return device.Write(uint16(uint32(addr)-base), value)
}

// Read64 reads 8 consecutive bytes starting at addr and assembles them
// in little-endian order. Used by the PPU for pattern-table tile fetch;
// callers only invoke this in the 0..0x2000 range, so 16-bit address
// wraparound is not handled.
func (c *MemoryController) Read64(addr uint16) (uint64, error) {
	var v uint64
	for i := 0; i < 8; i++ {
		b, err := c.Read(addr + uint16(i))
		if err != nil {
			return 0, err
		}
		v |= uint64(b) << (8 * i)
	}
	return v, nil
}
