// Package cpu implements the 65C02-derivative CPU core: register file,
// addressing-mode resolution, the per-opcode execution switch, and the
// fetch/decode/execute/interrupt step loop.
package cpu

import (
	"github.com/nes-core/nesgo/internal/bus"
	"github.com/nes-core/nesgo/internal/cpuerr"
	"github.com/nes-core/nesgo/internal/decoder"
	"github.com/nes-core/nesgo/internal/interrupt"
)

const stackBase = 0x0100

// Cpu holds the full architectural register file plus the bus and
// interrupt channel it drives. A single instance is created at startup
// and lives for the process; it is not safe for concurrent use from
// more than one goroutine (see the package doc of internal/console for
// the cooperative-scheduling contract this relies on).
type Cpu struct {
	A, X, Y, S uint8
	PC         uint16
	PCPrev     uint16

	C, Z, I, D, B, V, N bool

	Memory     *bus.MemoryController
	Interrupts interrupt.Channel
}

// New creates a Cpu driving memory and listening for interrupt sources
// on interrupts. Registers start zeroed except S, which starts at 0xFD;
// the caller typically enqueues
// a Reset before the first Step.
func New(memory *bus.MemoryController, interrupts interrupt.Channel) *Cpu {
	return &Cpu{
		S:          0xFD,
		Memory:     memory,
		Interrupts: interrupts,
	}
}

// P returns the composed status byte: bit 5 (reserved) is always set.
func (c *Cpu) P() uint8 {
	var p uint8
	if c.C {
		p |= 0x01
	}
	if c.Z {
		p |= 0x02
	}
	if c.I {
		p |= 0x04
	}
	if c.D {
		p |= 0x08
	}
	if c.B {
		p |= 0x10
	}
	p |= 0x20
	if c.V {
		p |= 0x40
	}
	if c.N {
		p |= 0x80
	}
	return p
}

// SetP unpacks v into the individual flags.
func (c *Cpu) SetP(v uint8) {
	c.C = v&0x01 != 0
	c.Z = v&0x02 != 0
	c.I = v&0x04 != 0
	c.D = v&0x08 != 0
	c.B = v&0x10 != 0
	c.V = v&0x40 != 0
	c.N = v&0x80 != 0
}

func (c *Cpu) setZN(v uint8) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}

func (c *Cpu) push(v uint8) error {
	if err := c.Memory.Write(stackBase+uint16(c.S), v); err != nil {
		return err
	}
	c.S--
	return nil
}

func (c *Cpu) pop() (uint8, error) {
	c.S++
	return c.Memory.Read(stackBase + uint16(c.S))
}

func (c *Cpu) pushWord(v uint16) error {
	if err := c.push(uint8(v >> 8)); err != nil {
		return err
	}
	return c.push(uint8(v))
}

func (c *Cpu) popWord() (uint16, error) {
	lo, err := c.pop()
	if err != nil {
		return 0, err
	}
	hi, err := c.pop()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Step runs one iteration of the fetch/decode/execute/interrupt cycle
// (§4.9.2): it records PC_prev, fetches and decodes one instruction,
// then either services a pending interrupt (discarding the just-fetched
// instruction, which is re-fetched after the interrupt returns) or
// executes it. Every error leaving Step carries the active PC.
func (c *Cpu) Step() error {
	c.PCPrev = c.PC

	opcode, err := c.Memory.Read(c.PC)
	if err != nil {
		return cpuerr.AtPC(c.PCPrev, err)
	}
	c.PC++

	op, mode, length, err := decoder.Decode(opcode)
	if err != nil {
		return cpuerr.AtPC(c.PCPrev, err)
	}

	var ins Instruction
	ins.Op = op
	ins.Mode = mode
	for i := 0; i < length; i++ {
		b, err := c.Memory.Read(c.PC)
		if err != nil {
			return cpuerr.AtPC(c.PCPrev, err)
		}
		ins.Operands[i] = b
		c.PC++
	}

	if source, ok := c.Interrupts.TryReceive(); ok {
		return cpuerr.AtPC(c.PCPrev, c.service(source))
	}
	return cpuerr.AtPC(c.PCPrev, c.execute(ins))
}

// service vectors PC through source's interrupt vector (§4.9.1).
func (c *Cpu) service(source interrupt.Source) error {
	if err := c.pushWord(c.PCPrev); err != nil {
		return err
	}
	if err := c.push(c.P()); err != nil {
		return err
	}
	c.I = true

	lo, hi := source.Vector()
	return c.loadVector(lo, hi)
}

func (c *Cpu) loadVector(loAddr, hiAddr uint16) error {
	lo, err := c.Memory.Read(loAddr)
	if err != nil {
		return err
	}
	hi, err := c.Memory.Read(hiAddr)
	if err != nil {
		return err
	}
	c.PC = uint16(hi)<<8 | uint16(lo)
	return nil
}

// effectiveAddress computes the write-address path of §4.9.3 for the
// given mode and operand bytes. Immediate, Accumulator, and Implied
// have no effective address and report IllegalAddressMode; callers that
// need a read value for those modes handle them separately.
func (c *Cpu) effectiveAddress(mode decoder.AddressingMode, operands [2]uint8) (uint16, error) {
	b0, b1 := operands[0], operands[1]
	switch mode {
	case decoder.ZeroPage:
		return uint16(b0), nil
	case decoder.Absolute:
		return uint16(b0) | uint16(b1)<<8, nil
	case decoder.IndexedZeroPageX:
		return uint16(b0 + c.X), nil
	case decoder.IndexedZeroPageY:
		return uint16(b0 + c.Y), nil
	case decoder.IndexedAbsoluteX:
		return (uint16(b0) | uint16(b1)<<8) + uint16(c.X), nil
	case decoder.IndexedAbsoluteY:
		return (uint16(b0) | uint16(b1)<<8) + uint16(c.Y), nil
	case decoder.IndexedIndirect:
		ptr := b0 + c.X
		lo, err := c.Memory.Read(uint16(ptr))
		if err != nil {
			return 0, err
		}
		hi, err := c.Memory.Read(uint16(ptr + 1))
		if err != nil {
			return 0, err
		}
		return uint16(lo) | uint16(hi)<<8, nil
	case decoder.IndirectIndexed:
		lo, err := c.Memory.Read(uint16(b0))
		if err != nil {
			return 0, err
		}
		hi, err := c.Memory.Read(uint16(b0 + 1))
		if err != nil {
			return 0, err
		}
		base := uint16(lo) | uint16(hi)<<8
		return base + uint16(c.Y), nil
	case decoder.ZeroPageIndirect:
		lo, err := c.Memory.Read(uint16(b0))
		if err != nil {
			return 0, err
		}
		hi, err := c.Memory.Read(uint16(b0 + 1))
		if err != nil {
			return 0, err
		}
		return uint16(lo) | uint16(hi)<<8, nil
	case decoder.Relative:
		// Relative to PCPrev (the instruction's own start address), not
		// the post-fetch PC, per §8 scenario 5: BRA -128 at PC=0x8000
		// lands at 0x7F80, not 0x7F82.
		return c.PCPrev + uint16(int16(int8(b0))), nil
	case decoder.AbsoluteIndirect:
		ptr := uint16(b0) | uint16(b1)<<8
		return c.dereference(ptr)
	case decoder.AbsoluteIndexedIndirect:
		ptr := (uint16(b0) | uint16(b1)<<8) + uint16(c.X)
		return c.dereference(ptr)
	default:
		return 0, &cpuerr.IllegalAddressMode{Operation: "address", Mode: mode.String()}
	}
}

func (c *Cpu) dereference(ptr uint16) (uint16, error) {
	lo, err := c.Memory.Read(ptr)
	if err != nil {
		return 0, err
	}
	hi, err := c.Memory.Read(ptr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// readValue computes the read-value path of §4.9.3.
func (c *Cpu) readValue(mode decoder.AddressingMode, operands [2]uint8) (uint8, error) {
	switch mode {
	case decoder.Immediate:
		return operands[0], nil
	case decoder.Accumulator:
		return c.A, nil
	default:
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return 0, err
		}
		return c.Memory.Read(addr)
	}
}

func illegalMode(op decoder.Operation, mode decoder.AddressingMode, allowed ...decoder.AddressingMode) error {
	for _, m := range allowed {
		if m == mode {
			return nil
		}
	}
	return &cpuerr.IllegalAddressMode{Operation: op.String(), Mode: mode.String()}
}

var loadGroup = []decoder.AddressingMode{
	decoder.Immediate, decoder.Absolute, decoder.ZeroPage, decoder.IndexedIndirect,
	decoder.IndirectIndexed, decoder.IndexedZeroPageX, decoder.IndexedAbsoluteX,
	decoder.IndexedAbsoluteY, decoder.ZeroPageIndirect,
}

var storeGroup = []decoder.AddressingMode{
	decoder.Absolute, decoder.ZeroPage, decoder.IndexedIndirect,
	decoder.IndirectIndexed, decoder.IndexedZeroPageX, decoder.IndexedAbsoluteX,
	decoder.IndexedAbsoluteY, decoder.ZeroPageIndirect,
}

var shiftRotateGroup = []decoder.AddressingMode{
	decoder.Accumulator, decoder.Absolute, decoder.ZeroPage,
	decoder.IndexedZeroPageX, decoder.IndexedAbsoluteX,
}

var incDecGroup = []decoder.AddressingMode{
	decoder.Absolute, decoder.ZeroPage, decoder.IndexedZeroPageX, decoder.IndexedAbsoluteX,
}

// execute runs ins's effect on the register file and bus, per the
// per-operation allow-lists and effects of §4.9.4.
func (c *Cpu) execute(ins Instruction) error {
	op, mode, operands := ins.Op, ins.Mode, ins.Operands

	switch op {
	case decoder.Lda:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.A = v
		c.setZN(c.A)

	case decoder.Ldx:
		if err := illegalMode(op, mode, decoder.Immediate, decoder.Absolute, decoder.ZeroPage, decoder.IndexedZeroPageY, decoder.IndexedAbsoluteY); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.X = v
		c.setZN(c.X)

	case decoder.Ldy:
		if err := illegalMode(op, mode, decoder.Immediate, decoder.Absolute, decoder.ZeroPage, decoder.IndexedZeroPageX, decoder.IndexedAbsoluteX); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.Y = v
		c.setZN(c.Y)

	case decoder.Sta:
		if err := illegalMode(op, mode, storeGroup...); err != nil {
			return err
		}
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return err
		}
		return c.Memory.Write(addr, c.A)

	case decoder.Stx:
		if err := illegalMode(op, mode, decoder.Absolute, decoder.ZeroPage, decoder.IndexedZeroPageY); err != nil {
			return err
		}
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return err
		}
		return c.Memory.Write(addr, c.X)

	case decoder.Sty:
		if err := illegalMode(op, mode, decoder.Absolute, decoder.ZeroPage, decoder.IndexedZeroPageX); err != nil {
			return err
		}
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return err
		}
		return c.Memory.Write(addr, c.Y)

	case decoder.Tax:
		c.X = c.A
		c.setZN(c.X)
	case decoder.Tay:
		c.Y = c.A
		c.setZN(c.Y)
	case decoder.Txa:
		c.A = c.X
		c.setZN(c.A)
	case decoder.Tya:
		c.A = c.Y
		c.setZN(c.A)
	case decoder.Txs:
		c.S = c.X
	case decoder.Tsx:
		c.X = c.S
		c.setZN(c.X)

	case decoder.Adc:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		carry := 0
		if c.C {
			carry = 1
		}
		r := int(c.A) + int(v) + carry
		c.C = r > 255
		c.V = r > 255
		c.A = uint8(r)
		c.setZN(c.A)

	case decoder.Sbc:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		borrow := 1
		if c.C {
			borrow = 0
		}
		r := int(c.A) - int(v) - borrow
		c.C = r >= 0
		c.V = r < -128
		c.A = uint8(((r % 256) + 256) % 256)
		c.setZN(c.A)

	case decoder.Cmp:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.compare(c.A, v)

	case decoder.Cpx:
		if err := illegalMode(op, mode, decoder.Immediate, decoder.Absolute, decoder.ZeroPage); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.compare(c.X, v)

	case decoder.Cpy:
		if err := illegalMode(op, mode, decoder.Immediate, decoder.Absolute, decoder.ZeroPage); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.compare(c.Y, v)

	case decoder.And:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.A &= v
		c.setZN(c.A)

	case decoder.Ora:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.A |= v
		c.setZN(c.A)

	case decoder.Eor:
		if err := illegalMode(op, mode, loadGroup...); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		c.A ^= v
		c.setZN(c.A)

	case decoder.Bit:
		if err := illegalMode(op, mode, decoder.Immediate, decoder.Absolute, decoder.ZeroPage, decoder.IndexedZeroPageX, decoder.IndexedAbsoluteX); err != nil {
			return err
		}
		v, err := c.readValue(mode, operands)
		if err != nil {
			return err
		}
		r := v & c.A
		c.Z = r == 0
		c.N = r&0x80 != 0
		c.V = r&0x40 != 0

	case decoder.Asl:
		return c.shiftRotate(op, mode, operands, func(v uint8) (uint8, bool) {
			carryOut := v&0x80 != 0
			return v << 1, carryOut
		})
	case decoder.Lsr:
		return c.shiftRotate(op, mode, operands, func(v uint8) (uint8, bool) {
			carryOut := v&0x01 != 0
			return v >> 1, carryOut
		})
	case decoder.Rol:
		oldCarry := c.C
		return c.shiftRotate(op, mode, operands, func(v uint8) (uint8, bool) {
			carryOut := v&0x80 != 0
			r := v << 1
			if oldCarry {
				r |= 0x01
			}
			return r, carryOut
		})
	case decoder.Ror:
		oldCarry := c.C
		return c.shiftRotate(op, mode, operands, func(v uint8) (uint8, bool) {
			carryOut := v&0x01 != 0
			r := v >> 1
			if oldCarry {
				r |= 0x80
			}
			return r, carryOut
		})

	case decoder.Inc:
		if err := illegalMode(op, mode, incDecGroup...); err != nil {
			return err
		}
		return c.readModifyWrite(mode, operands, func(v uint8) uint8 { return v + 1 })
	case decoder.Dec:
		if err := illegalMode(op, mode, incDecGroup...); err != nil {
			return err
		}
		return c.readModifyWrite(mode, operands, func(v uint8) uint8 { return v - 1 })

	case decoder.Inx:
		c.X++
		c.setZN(c.X)
	case decoder.Iny:
		c.Y++
		c.setZN(c.Y)
	case decoder.Dex:
		c.X--
		c.setZN(c.X)
	case decoder.Dey:
		c.Y--
		c.setZN(c.Y)

	case decoder.Bcc:
		return c.branch(op, mode, operands, !c.C)
	case decoder.Bcs:
		return c.branch(op, mode, operands, c.C)
	case decoder.Beq:
		return c.branch(op, mode, operands, c.Z)
	case decoder.Bne:
		return c.branch(op, mode, operands, !c.Z)
	case decoder.Bmi:
		return c.branch(op, mode, operands, c.N)
	case decoder.Bpl:
		return c.branch(op, mode, operands, !c.N)
	case decoder.Bvc:
		return c.branch(op, mode, operands, !c.V)
	case decoder.Bvs:
		return c.branch(op, mode, operands, c.V)
	case decoder.Bra:
		return c.branch(op, mode, operands, true)

	case decoder.Jmp:
		if err := illegalMode(op, mode, decoder.Absolute, decoder.AbsoluteIndirect, decoder.AbsoluteIndexedIndirect); err != nil {
			return err
		}
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return err
		}
		c.PC = addr

	case decoder.Jsr:
		if err := illegalMode(op, mode, decoder.Absolute); err != nil {
			return err
		}
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return err
		}
		if err := c.pushWord(c.PC); err != nil {
			return err
		}
		c.PC = addr

	case decoder.Rts:
		addr, err := c.popWord()
		if err != nil {
			return err
		}
		c.PC = addr

	case decoder.Rti:
		p, err := c.pop()
		if err != nil {
			return err
		}
		c.SetP(p)
		addr, err := c.popWord()
		if err != nil {
			return err
		}
		c.PC = addr

	case decoder.Pha:
		return c.push(c.A)
	case decoder.Php:
		return c.push(c.P())
	case decoder.Phx:
		return c.push(c.X)
	case decoder.Phy:
		return c.push(c.Y)

	case decoder.Pla:
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.A = v
		c.setZN(c.A)
	case decoder.Plp:
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.SetP(v)
	case decoder.Plx:
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.X = v
		c.setZN(c.X)
	case decoder.Ply:
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.Y = v
		c.setZN(c.Y)

	case decoder.Clc:
		c.C = false
	case decoder.Sec:
		c.C = true
	case decoder.Cli:
		c.I = false
	case decoder.Sei:
		c.I = true
	case decoder.Cld:
		c.D = false
	case decoder.Sed:
		c.D = true
	case decoder.Clv:
		c.V = false

	case decoder.Nop:

	case decoder.Stz:
		if err := illegalMode(op, mode, decoder.ZeroPage, decoder.IndexedZeroPageX, decoder.Absolute, decoder.IndexedAbsoluteX); err != nil {
			return err
		}
		addr, err := c.effectiveAddress(mode, operands)
		if err != nil {
			return err
		}
		return c.Memory.Write(addr, 0)

	case decoder.Trb:
		if err := illegalMode(op, mode, decoder.Absolute, decoder.ZeroPage); err != nil {
			return err
		}
		return c.readModifyWriteZ(mode, operands, func(v uint8) uint8 { return v &^ c.A })

	case decoder.Tsb:
		if err := illegalMode(op, mode, decoder.Absolute, decoder.ZeroPage); err != nil {
			return err
		}
		return c.readModifyWriteZ(mode, operands, func(v uint8) uint8 { return v | c.A })

	case decoder.Brk:
		c.PC++
		if err := c.pushWord(c.PC); err != nil {
			return err
		}
		if err := c.push(c.P() | 0x10); err != nil {
			return err
		}
		c.I = true
		lo, hi := interrupt.Irq.Vector()
		return c.loadVector(lo, hi)

	default:
		return &cpuerr.IllegalAddressMode{Operation: op.String(), Mode: mode.String()}
	}
	return nil
}

func (c *Cpu) compare(reg, operand uint8) {
	diff := reg - operand
	c.N = diff&0x80 != 0
	c.Z = reg == operand
	c.C = reg >= operand
}

// shiftRotate implements the Accumulator/memory dichotomy shared by
// Asl/Lsr/Rol/Ror: the memory form reads the operand once, transforms
// it, and writes it back once.
func (c *Cpu) shiftRotate(op decoder.Operation, mode decoder.AddressingMode, operands [2]uint8, transform func(uint8) (uint8, bool)) error {
	if err := illegalMode(op, mode, shiftRotateGroup...); err != nil {
		return err
	}
	if mode == decoder.Accumulator {
		result, carryOut := transform(c.A)
		c.A = result
		c.C = carryOut
		c.setZN(c.A)
		return nil
	}
	addr, err := c.effectiveAddress(mode, operands)
	if err != nil {
		return err
	}
	v, err := c.Memory.Read(addr)
	if err != nil {
		return err
	}
	result, carryOut := transform(v)
	if err := c.Memory.Write(addr, result); err != nil {
		return err
	}
	c.C = carryOut
	c.setZN(result)
	return nil
}

func (c *Cpu) readModifyWrite(mode decoder.AddressingMode, operands [2]uint8, transform func(uint8) uint8) error {
	addr, err := c.effectiveAddress(mode, operands)
	if err != nil {
		return err
	}
	v, err := c.Memory.Read(addr)
	if err != nil {
		return err
	}
	result := transform(v)
	if err := c.Memory.Write(addr, result); err != nil {
		return err
	}
	c.setZN(result)
	return nil
}

func (c *Cpu) readModifyWriteZ(mode decoder.AddressingMode, operands [2]uint8, transform func(uint8) uint8) error {
	addr, err := c.effectiveAddress(mode, operands)
	if err != nil {
		return err
	}
	v, err := c.Memory.Read(addr)
	if err != nil {
		return err
	}
	c.Z = v&c.A == 0
	result := transform(v)
	return c.Memory.Write(addr, result)
}

func (c *Cpu) branch(op decoder.Operation, mode decoder.AddressingMode, operands [2]uint8, take bool) error {
	if err := illegalMode(op, mode, decoder.Relative); err != nil {
		return err
	}
	if !take {
		return nil
	}
	addr, err := c.effectiveAddress(mode, operands)
	if err != nil {
		return err
	}
	c.PC = addr
	return nil
}
