// Package cartridge parses the iNES header and exposes the raw PRG/CHR
// payloads a console wires directly into bus.MirroredROM/bus.ROM
// devices. There is no Mapper abstraction: this core only supports
// NROM (mapper 0), so the cartridge's job ends at handing over bytes.
package cartridge

import (
	"io"
	"os"

	"github.com/nes-core/nesgo/internal/cpuerr"
)

// Mirroring is the nametable arrangement declared by header byte 2,
// bit 0.
type Mirroring uint8

const (
	MirrorVertical Mirroring = iota
	MirrorHorizontal
)

// Platform is the TV system declared by header byte 5, bits 0-1.
type Platform uint8

const (
	PlatformNTSC Platform = iota
	PlatformDual
	PlatformPAL
	PlatformDualAlt
)

// Header is the parsed form of the 12-byte argument the core consumes
// (iNES header bytes 4..15; the 4-byte magic and its validation are a
// boundary contract handled by the file loader, not this type).
type Header struct {
	PRGSize   int // bytes
	CHRSize   int // bytes
	Mirroring Mirroring
	HasPRGRAM bool
	HasTrainer bool
	AltNametable bool
	MapperID  uint8
	PRGRAMSize int // bytes
	Platform  Platform
}

// ParseHeader decodes the 12-byte core header argument (iNES bytes
// 4..15), per §6. header[3]&0x0C must be zero: this core only
// recognizes iNES 1.0 headers.
func ParseHeader(header [12]uint8) (Header, error) {
	if header[3]&0x0C != 0 {
		return Header{}, &cpuerr.InvalidHeader{Reason: "only iNES 1.0 headers are supported"}
	}

	var h Header
	h.PRGSize = int(header[0]) * 16384
	h.CHRSize = int(header[1]) * 8192

	flags6 := header[2]
	if flags6&0x01 != 0 {
		h.Mirroring = MirrorHorizontal
	} else {
		h.Mirroring = MirrorVertical
	}
	h.HasPRGRAM = flags6&0x02 != 0
	h.HasTrainer = flags6&0x04 != 0
	h.AltNametable = flags6&0x08 != 0
	lowNybble := flags6 >> 4

	flags7 := header[3]
	highNybble := flags7 & 0xF0
	h.MapperID = highNybble | lowNybble

	h.PRGRAMSize = int(header[4]) * 8192
	h.Platform = Platform(header[5] & 0x03)

	return h, nil
}

// Cartridge holds a parsed header and its PRG/CHR payloads, ready to be
// wired into bus.MirroredROM (PRG) and bus.ROM (CHR). A cartridge that
// declares no CHR banks gets a zero-filled 8KiB CHR buffer, which is
// wired as ROM like any other.
type Cartridge struct {
	Header Header
	PRG    []uint8
	CHR    []uint8
}

const iNESHeaderSize = 16

var iNESMagic = [4]uint8{0x4E, 0x45, 0x53, 0x1A}

// Load reads a complete .nes file: the 16-byte header (magic validated
// here, since nothing upstream of this call has), an optional 512-byte
// trainer, then the PRG and CHR payloads sized per the header.
func Load(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader is the io.Reader-based counterpart of Load.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var raw [iNESHeaderSize]uint8
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, err
	}
	if raw[0] != iNESMagic[0] || raw[1] != iNESMagic[1] || raw[2] != iNESMagic[2] || raw[3] != iNESMagic[3] {
		return nil, &cpuerr.InvalidHeader{Reason: "missing iNES magic bytes"}
	}

	var coreHeader [12]uint8
	copy(coreHeader[:], raw[4:])
	header, err := ParseHeader(coreHeader)
	if err != nil {
		return nil, err
	}

	if header.HasTrainer {
		var trainer [512]uint8
		if _, err := io.ReadFull(r, trainer[:]); err != nil {
			return nil, err
		}
	}

	prg := make([]uint8, header.PRGSize)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, err
	}

	var chr []uint8
	if header.CHRSize > 0 {
		chr = make([]uint8, header.CHRSize)
		if _, err := io.ReadFull(r, chr); err != nil {
			return nil, err
		}
	} else {
		chr = make([]uint8, 8192) // CHR-RAM
	}

	return &Cartridge{Header: header, PRG: prg, CHR: chr}, nil
}
