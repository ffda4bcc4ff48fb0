package cartridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nes-core/nesgo/internal/cpuerr"
)

func TestParseHeaderFields(t *testing.T) {
	header := [12]uint8{
		2,           // PRG: 2 * 16KiB
		1,           // CHR: 1 * 8KiB
		0b0000_0111, // horizontal mirroring, PRG-RAM, trainer
		0x00,
		1, // PRG-RAM: 1 * 8KiB
		0x02,
	}
	h, err := ParseHeader(header)
	if err != nil {
		t.Fatal(err)
	}
	if h.PRGSize != 32768 {
		t.Errorf("PRGSize = %d, want 32768", h.PRGSize)
	}
	if h.CHRSize != 8192 {
		t.Errorf("CHRSize = %d, want 8192", h.CHRSize)
	}
	if h.Mirroring != MirrorHorizontal {
		t.Errorf("Mirroring = %v, want MirrorHorizontal", h.Mirroring)
	}
	if !h.HasPRGRAM || !h.HasTrainer {
		t.Errorf("HasPRGRAM=%v HasTrainer=%v, want both true", h.HasPRGRAM, h.HasTrainer)
	}
	if h.PRGRAMSize != 8192 {
		t.Errorf("PRGRAMSize = %d, want 8192", h.PRGRAMSize)
	}
	if h.Platform != PlatformPAL {
		t.Errorf("Platform = %v, want PlatformPAL", h.Platform)
	}
}

func TestParseHeaderMapperNybbles(t *testing.T) {
	header := [12]uint8{1, 1, 0x10, 0x20}
	h, err := ParseHeader(header)
	if err != nil {
		t.Fatal(err)
	}
	if h.MapperID != 0x21 {
		t.Errorf("MapperID = 0x%02X, want 0x21", h.MapperID)
	}
}

func TestParseHeaderRejectsNonINES1(t *testing.T) {
	header := [12]uint8{1, 1, 0x00, 0x04} // bit 2 of flags7 set
	_, err := ParseHeader(header)
	var invalid *cpuerr.InvalidHeader
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *cpuerr.InvalidHeader, got %v", err)
	}
}

func buildINESFile(prgBanks, chrBanks uint8, flags6, flags7 uint8) []byte {
	var buf bytes.Buffer
	buf.Write(iNESMagic[:])
	buf.WriteByte(prgBanks)
	buf.WriteByte(chrBanks)
	buf.WriteByte(flags6)
	buf.WriteByte(flags7)
	buf.Write(make([]byte, 8)) // PRG-RAM size, TV system, padding
	if flags6&0x04 != 0 {
		buf.Write(make([]byte, 512))
	}
	buf.Write(make([]byte, int(prgBanks)*16384))
	if chrBanks > 0 {
		buf.Write(make([]byte, int(chrBanks)*8192))
	}
	return buf.Bytes()
}

func TestLoadFromReaderParsesCompleteFile(t *testing.T) {
	data := buildINESFile(2, 1, 0x00, 0x00)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.PRG) != 32768 {
		t.Errorf("len(PRG) = %d, want 32768", len(cart.PRG))
	}
	if len(cart.CHR) != 8192 {
		t.Errorf("len(CHR) = %d, want 8192", len(cart.CHR))
	}
}

func TestLoadFromReaderChrRamWhenZeroChrBanks(t *testing.T) {
	data := buildINESFile(1, 0, 0x00, 0x00)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.CHR) != 8192 {
		t.Errorf("len(CHR) = %d, want 8192 for CHR-RAM fallback", len(cart.CHR))
	}
}

func TestLoadFromReaderRejectsBadMagic(t *testing.T) {
	data := buildINESFile(1, 1, 0, 0)
	data[0] = 0x00
	_, err := LoadFromReader(bytes.NewReader(data))
	var invalid *cpuerr.InvalidHeader
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *cpuerr.InvalidHeader, got %v", err)
	}
}

func TestLoadFromReaderHonorsTrainer(t *testing.T) {
	data := buildINESFile(1, 1, 0x04, 0x00) // trainer bit set
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !cart.Header.HasTrainer {
		t.Error("HasTrainer = false, want true")
	}
	if len(cart.PRG) != 16384 {
		t.Errorf("len(PRG) = %d, want 16384", len(cart.PRG))
	}
}
