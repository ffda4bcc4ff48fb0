package cpu

import (
	"testing"

	"github.com/nes-core/nesgo/internal/bus"
	"github.com/nes-core/nesgo/internal/interrupt"
)

func newTestCpu(t *testing.T) *Cpu {
	t.Helper()
	mc := bus.NewMemoryController()
	if err := mc.AddMemory(bus.NewRAM(0x10000), 0x0000, 0x10000); err != nil {
		t.Fatal(err)
	}
	return New(mc, interrupt.NewChannel())
}

func load(t *testing.T, c *Cpu, addr uint16, bytes ...uint8) {
	t.Helper()
	for i, b := range bytes {
		if err := c.Memory.Write(addr+uint16(i), b); err != nil {
			t.Fatal(err)
		}
	}
}

func TestImmediateLoad(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0000, 0xA9, 0x10) // LDA #$10
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0x10 {
		t.Errorf("A = 0x%02X, want 0x10", c.A)
	}
	if c.Z || c.N {
		t.Errorf("Z=%v N=%v, want both false", c.Z, c.N)
	}
}

func TestAbsoluteStore(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0000, 0xA9, 0x10, 0x8D, 0x03, 0x00) // LDA #$10; STA $0003
	for i := 0; i < 2; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	v, err := c.Memory.Read(0x0003)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x10 {
		t.Errorf("bus[0x0003] = 0x%02X, want 0x10", v)
	}
}

func TestIndexedIndirectStore(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0050, 0x20, 0x00)
	load(t, c, 0x0000, 0xA2, 0x28, 0xA9, 0x17, 0x81, 0x28) // LDX #$28; LDA #$17; STA ($28,X)
	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	v, err := c.Memory.Read(0x0020)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x17 {
		t.Errorf("bus[0x0020] = 0x%02X, want 0x17", v)
	}
}

func TestIndirectIndexedStore(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0086, 0x28, 0x40)
	load(t, c, 0x0000, 0xA0, 0x10, 0xA9, 0x41, 0x91, 0x86) // LDY #$10; LDA #$41; STA ($86),Y
	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	v, err := c.Memory.Read(0x4038)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x41 {
		t.Errorf("bus[0x4038] = 0x%02X, want 0x41", v)
	}
}

func TestRelativeBranchWrap(t *testing.T) {
	c := newTestCpu(t)
	c.PC = 0x8000
	load(t, c, 0x8000, 0x80, 0x80) // BRA -128
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x7F80 {
		t.Fatalf("PC = 0x%04X, want 0x7F80", c.PC)
	}
	load(t, c, 0x7F80, 0x80, 0x7F) // BRA +127
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x7FFF {
		t.Fatalf("PC = 0x%04X, want 0x7FFF", c.PC)
	}
}

func TestResetVector(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0xFFFC, 0x34, 0x12)
	c.Interrupts.TrySend(interrupt.Reset)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x1234 {
		t.Errorf("PC = 0x%04X, want 0x1234", c.PC)
	}
	if !c.I {
		t.Error("IRQ-disable not set after reset service")
	}
}

func TestPhaPlaRoundTrip(t *testing.T) {
	c := newTestCpu(t)
	c.A = 0x42
	load(t, c, 0x0000, 0x48, 0xA9, 0x00, 0x68) // PHA; LDA #0; PLA
	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if c.A != 0x42 {
		t.Errorf("A = 0x%02X, want 0x42 after PHA/PLA round trip", c.A)
	}
}

func TestPhpPlpRoundTrip(t *testing.T) {
	c := newTestCpu(t)
	c.C, c.V, c.N = true, true, true
	before := c.P()
	load(t, c, 0x0000, 0x08, 0x18, 0x28) // PHP; CLC; PLP
	for i := 0; i < 3; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if c.P() != before {
		t.Errorf("P = 0x%02X, want 0x%02X after PHP/PLP round trip", c.P(), before)
	}
}

func TestJsrRtsRoundTrip(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0000, 0x20, 0x00, 0x80) // JSR $8000
	load(t, c, 0x8000, 0x60)             // RTS
	if err := c.Step(); err != nil { // JSR
		t.Fatal(err)
	}
	if c.PC != 0x8000 {
		t.Fatalf("PC = 0x%04X after JSR, want 0x8000", c.PC)
	}
	if err := c.Step(); err != nil { // RTS
		t.Fatal(err)
	}
	if c.PC != 0x0003 {
		t.Errorf("PC = 0x%04X after RTS, want 0x0003 (byte after JSR)", c.PC)
	}
}

func TestCompareUsesCorrectedSemantics(t *testing.T) {
	c := newTestCpu(t)
	c.A = 0x10
	load(t, c, 0x0000, 0xC9, 0x10) // CMP #$10: equal
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if !c.Z || !c.C || c.N {
		t.Errorf("A==op: Z=%v C=%v N=%v, want Z=true C=true N=false", c.Z, c.C, c.N)
	}

	c = newTestCpu(t)
	c.A = 0x05
	load(t, c, 0x0000, 0xC9, 0x10) // CMP #$10: A < op
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.Z || c.C {
		t.Errorf("A<op: Z=%v C=%v, want both false", c.Z, c.C)
	}

	c = newTestCpu(t)
	c.A = 0x20
	load(t, c, 0x0000, 0xC9, 0x10) // CMP #$10: A > op
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.Z || !c.C {
		t.Errorf("A>op: Z=%v C=%v, want Z=false C=true", c.Z, c.C)
	}
}

func TestSbcDoesNotWriteMemory(t *testing.T) {
	c := newTestCpu(t)
	c.A = 0x50
	c.C = true // no borrow in
	load(t, c, 0x0000, 0xE5, 0x10) // SBC $10
	load(t, c, 0x0010, 0x20)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0x30 {
		t.Errorf("A = 0x%02X, want 0x30", c.A)
	}
	v, err := c.Memory.Read(0x0010)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x20 {
		t.Errorf("memory at 0x0010 = 0x%02X, want unchanged 0x20", v)
	}
}

func TestAslMemoryFormSingleReadWrite(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0000, 0x06, 0x10) // ASL $10
	load(t, c, 0x0010, 0b1100_0001)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	v, err := c.Memory.Read(0x0010)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0b1000_0010 {
		t.Errorf("result = 0b%08b, want 0b10000010", v)
	}
	if !c.C {
		t.Error("carry not set from shifted-out bit 7")
	}
}

func TestIllegalOpcodeSurfacesWithPC(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0000, 0xFF)
	err := c.Step()
	if err == nil {
		t.Fatal("expected an error for illegal opcode 0xFF")
	}
}

func TestLoadFlagsInvariant(t *testing.T) {
	c := newTestCpu(t)
	load(t, c, 0x0000, 0xA9, 0x00, 0xA9, 0x80)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if !c.Z || c.N {
		t.Errorf("loading 0: Z=%v N=%v, want Z=true N=false", c.Z, c.N)
	}
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.Z || !c.N {
		t.Errorf("loading 0x80: Z=%v N=%v, want Z=false N=true", c.Z, c.N)
	}
}
