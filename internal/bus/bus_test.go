package bus

import (
	"errors"
	"testing"

	"github.com/nes-core/nesgo/internal/cpuerr"
)

func TestRAMReadWrite(t *testing.T) {
	r := NewRAM(0x800)
	if err := r.Write(0x10, 0x42); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := r.Read(0x10)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 0x42 {
		t.Errorf("Read(0x10) = 0x%02X, want 0x42", got)
	}
}

func TestMirroredRAMWraps(t *testing.T) {
	m := NewMirroredRAM(0x800)
	if err := m.Write(0x10, 0x77); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, offset := range []uint16{0x10, 0x810, 0x1010, 0x1810} {
		got, err := m.Read(offset)
		if err != nil {
			t.Fatalf("Read(0x%04X): %v", offset, err)
		}
		if got != 0x77 {
			t.Errorf("Read(0x%04X) = 0x%02X, want 0x77 (mirrored)", offset, got)
		}
	}
}

func TestROMWriteFails(t *testing.T) {
	r := NewROM([]uint8{1, 2, 3, 4})
	err := r.Write(0, 0xFF)
	var violation *cpuerr.MemoryAccessViolation
	if !errors.As(err, &violation) {
		t.Fatalf("Write to ROM error = %v, want *cpuerr.MemoryAccessViolation", err)
	}
}

func TestMirroredROMRepeats(t *testing.T) {
	bytes := []uint8{0xAA, 0xBB, 0xCC}
	m := NewMirroredROM(bytes, 9)
	for i := 0; i < 9; i++ {
		got, err := m.Read(uint16(i))
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		want := bytes[i%len(bytes)]
		if got != want {
			t.Errorf("Read(%d) = 0x%02X, want 0x%02X", i, got, want)
		}
	}
}

func TestMemoryControllerDispatch(t *testing.T) {
	c := NewMemoryController()
	ram := NewMirroredRAM(0x800)
	rom := NewROM(make([]uint8, 0x8000))
	if err := c.AddMemory(ram, 0x0000, 0x2000); err != nil {
		t.Fatalf("AddMemory ram: %v", err)
	}
	if err := c.AddMemory(rom, 0x8000, 0x10000); err != nil {
		t.Fatalf("AddMemory rom: %v", err)
	}

	if err := c.Write(0x0005, 0x99); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := c.Read(0x0805) // mirrored
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 0x99 {
		t.Errorf("Read(0x0805) = 0x%02X, want 0x99", got)
	}

	if _, err := c.Read(0xFFFF); err != nil {
		t.Fatalf("Read(0xFFFF) (top of ROM window): %v", err)
	}

	if _, err := c.Read(0x5000); err == nil {
		t.Fatal("Read(0x5000) in unmapped gap: expected error, got nil")
	}

	if err := c.Write(0x8000, 0x01); err == nil {
		t.Fatal("Write to ROM region: expected error, got nil")
	}
}

func TestMemoryControllerRead64LittleEndian(t *testing.T) {
	c := NewMemoryController()
	rom := NewROM([]uint8{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})
	if err := c.AddMemory(rom, 0x0000, 0x2000); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	got, err := c.Read64(0)
	if err != nil {
		t.Fatalf("Read64: %v", err)
	}
	want := uint64(0x0807060504030201)
	if got != want {
		t.Errorf("Read64(0) = 0x%016X, want 0x%016X", got, want)
	}
}

func TestMemoryControllerFirstMatchWins(t *testing.T) {
	c := NewMemoryController()
	first := NewRAM(0x10)
	second := NewRAM(0x10)
	if err := first.Write(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := second.Write(0, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.AddMemory(first, 0x0000, 0x0010); err != nil {
		t.Fatal(err)
	}
	if err := c.AddMemory(second, 0x0000, 0x0020); err != nil {
		t.Fatal(err)
	}
	got, err := c.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("Read(0) = %d, want 1 (first overlapping range wins)", got)
	}
}
