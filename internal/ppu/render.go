package ppu

import "github.com/nes-core/nesgo/internal/interrupt"

// FrameSink is the host graphics collaborator the render loop drives
// once per frame, per §4.7's render loop and §2's "host graphics sink".
// The core never imports a windowing library; a concrete FrameSink
// implementation lives in the frontend glue.
type FrameSink interface {
	// ShouldClose reports whether the host window has been closed.
	ShouldClose() bool
	// SetPixel paints one framebuffer pixel, already translated through
	// the NTSC palette.
	SetPixel(x, y int, c RGBA)
	// Present flips the frame to the screen.
	Present()
}

// RenderFrame executes one iteration of the cooperative render loop
// (§4.7, §5): clears the per-frame status flags, polls the host for a
// close request, repaints the framebuffer through sink using the NTSC
// palette, sets NMI pending, and — if NMI-on-vblank is enabled —
// enqueues an Nmi onto ch without blocking. It returns true if the host
// requested shutdown.
func (p *Ppu) RenderFrame(sink FrameSink, ch interrupt.Channel) bool {
	p.mu.Lock()
	p.sprite0Hit = false
	p.spriteOverflow = false
	p.mu.Unlock()

	if sink.ShouldClose() {
		return true
	}

	// framebuffer and the sink are not touched by the CPU goroutine, so
	// painting runs without holding mu: it only guards the register
	// state the bus adapter reaches concurrently.
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			idx := p.framebuffer[y*FrameWidth+x] & 0x3F
			sink.SetPixel(x, y, NTSCPalette[idx])
		}
	}
	sink.Present()

	p.mu.Lock()
	p.nmiPending = true
	nmiOnVblank := p.nmiOnVblank
	p.mu.Unlock()
	if nmiOnVblank {
		ch.TrySend(interrupt.Nmi)
	}
	return false
}
