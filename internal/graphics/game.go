// Package graphics is the one component allowed to import ebiten: an
// ebiten.Game that also implements ppu.FrameSink and supplies the
// host's key-down predicate, so the core never touches a windowing
// library directly.
package graphics

import (
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nes-core/nesgo/internal/input"
	"github.com/nes-core/nesgo/internal/ppu"
)

// Game drives the ebiten host loop and doubles as the PPU's FrameSink.
// Present (called from the render-loop goroutine) and Draw (called by
// ebiten on its own goroutine) touch the same pixel buffer, so access
// is guarded by mu.
type Game struct {
	mu     sync.Mutex
	pix    *image.RGBA
	img    *ebiten.Image
	closed bool
	scale  int

	// Ticks fires once per ebiten Update call; the console's render loop
	// blocks on it between frames instead of free-running.
	Ticks chan struct{}
}

// NewGame creates a Game rendering at the given integer scale of the
// NES's 256x240 frame.
func NewGame(scale int) *Game {
	if scale < 1 {
		scale = 1
	}
	return &Game{
		pix:   image.NewRGBA(image.Rect(0, 0, ppu.FrameWidth, ppu.FrameHeight)),
		img:   ebiten.NewImage(ppu.FrameWidth, ppu.FrameHeight),
		scale: scale,
		Ticks: make(chan struct{}, 1),
	}
}

// ShouldClose implements ppu.FrameSink.
func (g *Game) ShouldClose() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// SetPixel implements ppu.FrameSink.
func (g *Game) SetPixel(x, y int, c ppu.RGBA) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pix.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
}

// Present implements ppu.FrameSink: flips the staged pixels into the
// ebiten image Draw reads from.
func (g *Game) Present() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.img.WritePixels(g.pix.Pix)
}

// Update implements ebiten.Game. It never steps the emulator itself:
// it only signals the render loop that a host frame has ticked and
// watches for the close request the PPU's RenderFrame polls.
func (g *Game) Update() error {
	select {
	case g.Ticks <- struct{}{}:
	default:
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	img := g.img
	g.mu.Unlock()

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(img, op)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.FrameWidth * g.scale, ppu.FrameHeight * g.scale
}

// keyDownMap gives each NES button every ebiten key that can trigger
// it, matching the teacher's arrow-keys-or-WASD-plus-JK layout.
var keyDownMap = map[input.Button][]ebiten.Key{
	input.ButtonA:      {ebiten.KeyJ, ebiten.KeyZ},
	input.ButtonB:      {ebiten.KeyK, ebiten.KeyX},
	input.ButtonSelect: {ebiten.KeySpace},
	input.ButtonStart:  {ebiten.KeyEnter},
	input.ButtonUp:     {ebiten.KeyArrowUp, ebiten.KeyW},
	input.ButtonDown:   {ebiten.KeyArrowDown, ebiten.KeyS},
	input.ButtonLeft:   {ebiten.KeyArrowLeft, ebiten.KeyA},
	input.ButtonRight:  {ebiten.KeyArrowRight, ebiten.KeyD},
}

// KeyDown implements input.KeyDown by polling ebiten's keyboard state.
// It is the only point where the core's interrupt/register logic
// reaches out to a host input source.
func (g *Game) KeyDown(b input.Button) bool {
	for _, k := range keyDownMap[b] {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}
