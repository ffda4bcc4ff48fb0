// Package apu implements the write-only register surface of the NES
// Audio Processing Unit that the CPU core observes. It has no auditory
// output contract: concrete synthesis is out of scope (§1).
package apu

// Apu holds the channel enable bits, DMC value, and frame-counter
// options the CPU can write. It performs no signal generation.
type Apu struct {
	channelEnable [5]bool // pulse1, pulse2, triangle, noise, dmc
	dmcValue      uint8   // low 7 bits
	frameCounter  uint8
}

// New creates an Apu with all channels disabled.
func New() *Apu {
	return &Apu{}
}

// SetStatus writes the $4015 channel-enable bits: one per channel, in
// the order pulse1, pulse2, triangle, noise, dmc.
func (a *Apu) SetStatus(v uint8) {
	for i := range a.channelEnable {
		a.channelEnable[i] = v&(1<<uint(i)) != 0
	}
}

// Status returns the channel enable bits as written by SetStatus.
func (a *Apu) Status() [5]bool {
	return a.channelEnable
}

// SetDmcValue writes the $4011 DMC direct value; only the low 7 bits are
// stored.
func (a *Apu) SetDmcValue(v uint8) {
	a.dmcValue = v & 0x7F
}

// DmcValue returns the stored DMC direct value.
func (a *Apu) DmcValue() uint8 {
	return a.dmcValue
}

// SetFrameCounterOptions writes the $4017 frame-counter mode/IRQ bits.
func (a *Apu) SetFrameCounterOptions(v uint8) {
	a.frameCounter = v
}

// FrameCounterOptions returns the stored $4017 value.
func (a *Apu) FrameCounterOptions() uint8 {
	return a.frameCounter
}
