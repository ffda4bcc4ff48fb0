// Package decoder maps 65C02 opcode bytes to (operation, addressing
// mode) pairs. It is a pure function with no bus access: it is called
// exactly once per instruction fetch by the CPU.
package decoder

import "github.com/nes-core/nesgo/internal/cpuerr"

// AddressingMode names the strategy used to compute an instruction's
// effective operand.
type AddressingMode int

const (
	Accumulator AddressingMode = iota
	Implied
	Immediate
	ZeroPage
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
	IndexedZeroPageX
	IndexedZeroPageY
	Relative
	ZeroPageIndirect // (zp)
	Absolute
	IndexedAbsoluteX
	IndexedAbsoluteY
	AbsoluteIndirect
	AbsoluteIndexedIndirect
)

func (m AddressingMode) String() string {
	switch m {
	case Accumulator:
		return "Accumulator"
	case Implied:
		return "Implied"
	case Immediate:
		return "Immediate"
	case ZeroPage:
		return "ZeroPage"
	case IndexedIndirect:
		return "IndexedIndirect"
	case IndirectIndexed:
		return "IndirectIndexed"
	case IndexedZeroPageX:
		return "IndexedZeroPageX"
	case IndexedZeroPageY:
		return "IndexedZeroPageY"
	case Relative:
		return "Relative"
	case ZeroPageIndirect:
		return "ZeroPageIndirect"
	case Absolute:
		return "Absolute"
	case IndexedAbsoluteX:
		return "IndexedAbsoluteX"
	case IndexedAbsoluteY:
		return "IndexedAbsoluteY"
	case AbsoluteIndirect:
		return "AbsoluteIndirect"
	case AbsoluteIndexedIndirect:
		return "AbsoluteIndexedIndirect"
	default:
		return "Unknown"
	}
}

// OperandLength returns the number of operand bytes that follow the
// opcode byte for the given addressing mode, per §4.1.
func OperandLength(m AddressingMode) int {
	switch m {
	case Accumulator, Implied:
		return 0
	case Absolute, IndexedAbsoluteX, IndexedAbsoluteY, AbsoluteIndirect, AbsoluteIndexedIndirect:
		return 2
	default:
		return 1
	}
}

// Operation is one of the 64 mnemonics this core's 65C02 subset uses:
// the 56 documented 6502 operations plus the eight 65C02 additions
// (Bra, Phx, Phy, Plx, Ply, Stz, Trb, Tsb).
type Operation int

const (
	Lda Operation = iota
	Ldx
	Ldy
	Sta
	Stx
	Sty
	Tax
	Tay
	Txa
	Tya
	Txs
	Tsx
	Adc
	Sbc
	Cmp
	Cpx
	Cpy
	And
	Ora
	Eor
	Bit
	Asl
	Lsr
	Rol
	Ror
	Inc
	Dec
	Inx
	Iny
	Dex
	Dey
	Bcc
	Bcs
	Beq
	Bne
	Bmi
	Bpl
	Bvc
	Bvs
	Bra
	Jmp
	Jsr
	Rts
	Rti
	Pha
	Php
	Phx
	Phy
	Pla
	Plp
	Plx
	Ply
	Clc
	Sec
	Cli
	Sei
	Cld
	Sed
	Clv
	Nop
	Stz
	Trb
	Tsb
	Brk
)

var operationNames = [...]string{
	"Lda", "Ldx", "Ldy", "Sta", "Stx", "Sty", "Tax", "Tay", "Txa", "Tya",
	"Txs", "Tsx", "Adc", "Sbc", "Cmp", "Cpx", "Cpy", "And", "Ora", "Eor",
	"Bit", "Asl", "Lsr", "Rol", "Ror", "Inc", "Dec", "Inx", "Iny", "Dex",
	"Dey", "Bcc", "Bcs", "Beq", "Bne", "Bmi", "Bpl", "Bvc", "Bvs", "Bra",
	"Jmp", "Jsr", "Rts", "Rti", "Pha", "Php", "Phx", "Phy", "Pla", "Plp",
	"Plx", "Ply", "Clc", "Sec", "Cli", "Sei", "Cld", "Sed", "Clv", "Nop",
	"Stz", "Trb", "Tsb", "Brk",
}

func (o Operation) String() string {
	if int(o) < 0 || int(o) >= len(operationNames) {
		return "Unknown"
	}
	return operationNames[o]
}

type entry struct {
	op   Operation
	mode AddressingMode
}

// table is the closed opcode -> (operation, mode) map. Entries are
// grouped by mnemonic, following the same case-list shape the CPU's own
// execution switch uses.
var table = buildTable()

func buildTable() [256]*entry {
	var t [256]*entry
	set := func(op Operation, mode AddressingMode, opcodes ...uint8) {
		for _, b := range opcodes {
			t[b] = &entry{op: op, mode: mode}
		}
	}

	set(Lda, Immediate, 0xA9)
	set(Lda, ZeroPage, 0xA5)
	set(Lda, IndexedZeroPageX, 0xB5)
	set(Lda, Absolute, 0xAD)
	set(Lda, IndexedAbsoluteX, 0xBD)
	set(Lda, IndexedAbsoluteY, 0xB9)
	set(Lda, IndexedIndirect, 0xA1)
	set(Lda, IndirectIndexed, 0xB1)
	set(Lda, ZeroPageIndirect, 0xB2)

	set(Ldx, Immediate, 0xA2)
	set(Ldx, ZeroPage, 0xA6)
	set(Ldx, IndexedZeroPageY, 0xB6)
	set(Ldx, Absolute, 0xAE)
	set(Ldx, IndexedAbsoluteY, 0xBE)

	set(Ldy, Immediate, 0xA0)
	set(Ldy, ZeroPage, 0xA4)
	set(Ldy, IndexedZeroPageX, 0xB4)
	set(Ldy, Absolute, 0xAC)
	set(Ldy, IndexedAbsoluteX, 0xBC)

	set(Sta, ZeroPage, 0x85)
	set(Sta, IndexedZeroPageX, 0x95)
	set(Sta, Absolute, 0x8D)
	set(Sta, IndexedAbsoluteX, 0x9D)
	set(Sta, IndexedAbsoluteY, 0x99)
	set(Sta, IndexedIndirect, 0x81)
	set(Sta, IndirectIndexed, 0x91)
	set(Sta, ZeroPageIndirect, 0x92)

	set(Stx, ZeroPage, 0x86)
	set(Stx, IndexedZeroPageY, 0x96)
	set(Stx, Absolute, 0x8E)

	set(Sty, ZeroPage, 0x84)
	set(Sty, IndexedZeroPageX, 0x94)
	set(Sty, Absolute, 0x8C)

	set(Tax, Implied, 0xAA)
	set(Tay, Implied, 0xA8)
	set(Txa, Implied, 0x8A)
	set(Tya, Implied, 0x98)
	set(Txs, Implied, 0x9A)
	set(Tsx, Implied, 0xBA)

	set(Adc, Immediate, 0x69)
	set(Adc, ZeroPage, 0x65)
	set(Adc, IndexedZeroPageX, 0x75)
	set(Adc, Absolute, 0x6D)
	set(Adc, IndexedAbsoluteX, 0x7D)
	set(Adc, IndexedAbsoluteY, 0x79)
	set(Adc, IndexedIndirect, 0x61)
	set(Adc, IndirectIndexed, 0x71)
	set(Adc, ZeroPageIndirect, 0x72)

	set(Sbc, Immediate, 0xE9)
	set(Sbc, ZeroPage, 0xE5)
	set(Sbc, IndexedZeroPageX, 0xF5)
	set(Sbc, Absolute, 0xED)
	set(Sbc, IndexedAbsoluteX, 0xFD)
	set(Sbc, IndexedAbsoluteY, 0xF9)
	set(Sbc, IndexedIndirect, 0xE1)
	set(Sbc, IndirectIndexed, 0xF1)
	set(Sbc, ZeroPageIndirect, 0xF2)

	set(Cmp, Immediate, 0xC9)
	set(Cmp, ZeroPage, 0xC5)
	set(Cmp, IndexedZeroPageX, 0xD5)
	set(Cmp, Absolute, 0xCD)
	set(Cmp, IndexedAbsoluteX, 0xDD)
	set(Cmp, IndexedAbsoluteY, 0xD9)
	set(Cmp, IndexedIndirect, 0xC1)
	set(Cmp, IndirectIndexed, 0xD1)
	set(Cmp, ZeroPageIndirect, 0xD2)

	set(Cpx, Immediate, 0xE0)
	set(Cpx, ZeroPage, 0xE4)
	set(Cpx, Absolute, 0xEC)

	set(Cpy, Immediate, 0xC0)
	set(Cpy, ZeroPage, 0xC4)
	set(Cpy, Absolute, 0xCC)

	set(And, Immediate, 0x29)
	set(And, ZeroPage, 0x25)
	set(And, IndexedZeroPageX, 0x35)
	set(And, Absolute, 0x2D)
	set(And, IndexedAbsoluteX, 0x3D)
	set(And, IndexedAbsoluteY, 0x39)
	set(And, IndexedIndirect, 0x21)
	set(And, IndirectIndexed, 0x31)
	set(And, ZeroPageIndirect, 0x32)

	set(Ora, Immediate, 0x09)
	set(Ora, ZeroPage, 0x05)
	set(Ora, IndexedZeroPageX, 0x15)
	set(Ora, Absolute, 0x0D)
	set(Ora, IndexedAbsoluteX, 0x1D)
	set(Ora, IndexedAbsoluteY, 0x19)
	set(Ora, IndexedIndirect, 0x01)
	set(Ora, IndirectIndexed, 0x11)
	set(Ora, ZeroPageIndirect, 0x12)

	set(Eor, Immediate, 0x49)
	set(Eor, ZeroPage, 0x45)
	set(Eor, IndexedZeroPageX, 0x55)
	set(Eor, Absolute, 0x4D)
	set(Eor, IndexedAbsoluteX, 0x5D)
	set(Eor, IndexedAbsoluteY, 0x59)
	set(Eor, IndexedIndirect, 0x41)
	set(Eor, IndirectIndexed, 0x51)
	set(Eor, ZeroPageIndirect, 0x52)

	set(Bit, Immediate, 0x89)
	set(Bit, ZeroPage, 0x24)
	set(Bit, IndexedZeroPageX, 0x34)
	set(Bit, Absolute, 0x2C)
	set(Bit, IndexedAbsoluteX, 0x3C)

	set(Asl, Accumulator, 0x0A)
	set(Asl, ZeroPage, 0x06)
	set(Asl, IndexedZeroPageX, 0x16)
	set(Asl, Absolute, 0x0E)
	set(Asl, IndexedAbsoluteX, 0x1E)

	set(Lsr, Accumulator, 0x4A)
	set(Lsr, ZeroPage, 0x46)
	set(Lsr, IndexedZeroPageX, 0x56)
	set(Lsr, Absolute, 0x4E)
	set(Lsr, IndexedAbsoluteX, 0x5E)

	set(Rol, Accumulator, 0x2A)
	set(Rol, ZeroPage, 0x26)
	set(Rol, IndexedZeroPageX, 0x36)
	set(Rol, Absolute, 0x2E)
	set(Rol, IndexedAbsoluteX, 0x3E)

	set(Ror, Accumulator, 0x6A)
	set(Ror, ZeroPage, 0x66)
	set(Ror, IndexedZeroPageX, 0x76)
	set(Ror, Absolute, 0x6E)
	set(Ror, IndexedAbsoluteX, 0x7E)

	set(Inc, ZeroPage, 0xE6)
	set(Inc, IndexedZeroPageX, 0xF6)
	set(Inc, Absolute, 0xEE)
	set(Inc, IndexedAbsoluteX, 0xFE)

	set(Dec, ZeroPage, 0xC6)
	set(Dec, IndexedZeroPageX, 0xD6)
	set(Dec, Absolute, 0xCE)
	set(Dec, IndexedAbsoluteX, 0xDE)

	set(Inx, Implied, 0xE8)
	set(Iny, Implied, 0xC8)
	set(Dex, Implied, 0xCA)
	set(Dey, Implied, 0x88)

	set(Bcc, Relative, 0x90)
	set(Bcs, Relative, 0xB0)
	set(Beq, Relative, 0xF0)
	set(Bne, Relative, 0xD0)
	set(Bmi, Relative, 0x30)
	set(Bpl, Relative, 0x10)
	set(Bvc, Relative, 0x50)
	set(Bvs, Relative, 0x70)
	set(Bra, Relative, 0x80)

	set(Jmp, Absolute, 0x4C)
	set(Jmp, AbsoluteIndirect, 0x6C)
	set(Jmp, AbsoluteIndexedIndirect, 0x7C)
	set(Jsr, Absolute, 0x20)
	set(Rts, Implied, 0x60)
	set(Rti, Implied, 0x40)

	set(Pha, Implied, 0x48)
	set(Php, Implied, 0x08)
	set(Phx, Implied, 0xDA)
	set(Phy, Implied, 0x5A)
	set(Pla, Implied, 0x68)
	set(Plp, Implied, 0x28)
	set(Plx, Implied, 0xFA)
	set(Ply, Implied, 0x7A)

	set(Clc, Implied, 0x18)
	set(Sec, Implied, 0x38)
	set(Cli, Implied, 0x58)
	set(Sei, Implied, 0x78)
	set(Cld, Implied, 0xD8)
	set(Sed, Implied, 0xF8)
	set(Clv, Implied, 0xB8)

	set(Nop, Implied, 0xEA)

	set(Stz, ZeroPage, 0x64)
	set(Stz, IndexedZeroPageX, 0x74)
	set(Stz, Absolute, 0x9C)
	set(Stz, IndexedAbsoluteX, 0x9E)

	set(Trb, ZeroPage, 0x14)
	set(Trb, Absolute, 0x1C)

	set(Tsb, ZeroPage, 0x04)
	set(Tsb, Absolute, 0x0C)

	set(Brk, Implied, 0x00)

	return t
}

// Decode maps an opcode byte to its (operation, addressing mode,
// operand length) triple. Unknown opcodes fail with *cpuerr.IllegalOpcode.
func Decode(opcode uint8) (Operation, AddressingMode, int, error) {
	e := table[opcode]
	if e == nil {
		return 0, 0, 0, &cpuerr.IllegalOpcode{Opcode: opcode}
	}
	return e.op, e.mode, OperandLength(e.mode), nil
}
