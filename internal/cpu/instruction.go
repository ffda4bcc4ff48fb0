package cpu

import "github.com/nes-core/nesgo/internal/decoder"

// Instruction is the immutable triple the decoder produces: an
// operation, its addressing mode, and the 0-2 operand bytes that
// followed the opcode in program order. Construction trusts the
// decoder; a mode inconsistent with its operation surfaces as
// IllegalAddressMode at execution time, not here.
type Instruction struct {
	Op       decoder.Operation
	Mode     decoder.AddressingMode
	Operands [2]uint8
}
