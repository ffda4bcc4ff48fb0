package graphics

import (
	"testing"

	"github.com/nes-core/nesgo/internal/input"
	"github.com/nes-core/nesgo/internal/ppu"
)

func TestLayoutScalesFrameSize(t *testing.T) {
	g := NewGame(3)
	w, h := g.Layout(999, 999)
	if w != ppu.FrameWidth*3 || h != ppu.FrameHeight*3 {
		t.Errorf("Layout = (%d,%d), want (%d,%d)", w, h, ppu.FrameWidth*3, ppu.FrameHeight*3)
	}
}

func TestShouldCloseStartsFalse(t *testing.T) {
	g := NewGame(1)
	if g.ShouldClose() {
		t.Error("ShouldClose() = true, want false before any close request")
	}
}

func TestKeyDownUnknownButtonIsFalse(t *testing.T) {
	g := NewGame(1)
	if g.KeyDown(input.Button(99)) {
		t.Error("KeyDown(unmapped button) = true, want false")
	}
}
