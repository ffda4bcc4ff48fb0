// Package cpuerr defines the tagged error kinds that bubble out of the
// core's step boundary. None of them are recovered internally: a host
// loop that sees one of these stops calling Cpu.Step.
package cpuerr

import "fmt"

// IllegalOpcode is raised by the decoder when a byte has no entry in the
// opcode table.
type IllegalOpcode struct {
	Opcode uint8
}

func (e *IllegalOpcode) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X", e.Opcode)
}

// IllegalAddressMode is raised when an operation is decoded with an
// addressing mode outside its allow-list.
type IllegalAddressMode struct {
	Operation string
	Mode      string
}

func (e *IllegalAddressMode) Error() string {
	return fmt.Sprintf("illegal address mode %s for operation %s", e.Mode, e.Operation)
}

// MemoryAccessViolation is raised by bus devices and the memory
// controller: unmapped addresses, writes to read-only devices, reads
// from write-only registers.
type MemoryAccessViolation struct {
	Address uint16
	Reason  string
}

func (e *MemoryAccessViolation) Error() string {
	return fmt.Sprintf("memory access violation at 0x%04X: %s", e.Address, e.Reason)
}

// InvalidHeader is raised by cartridge loading when the iNES magic bytes
// don't match or the header carries unsupported version flags.
type InvalidHeader struct {
	Reason string
}

func (e *InvalidHeader) Error() string {
	return fmt.Sprintf("invalid iNES header: %s", e.Reason)
}

// Unimplemented is raised when the core reaches a register or operation
// it doesn't model.
type Unimplemented struct {
	Detail string
}

func (e *Unimplemented) Error() string {
	return fmt.Sprintf("unimplemented: %s", e.Detail)
}

// AtPC wraps err with the program counter value active when it surfaced,
// per the step propagation policy: every error leaving Cpu.Step carries
// its PC as context.
func AtPC(pc uint16, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("pc=0x%04X: %w", pc, err)
}
