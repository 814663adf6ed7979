package emu

import (
	"errors"
	"fmt"
)

const (
	// MemoryWords is the size of data memory in words.
	MemoryWords = 1024

	// WordSize is the word size in bytes. Byte addresses must be multiples
	// of it.
	WordSize = 4
)

// Memory access errors.
var (
	// ErrUnalignedAddress indicates a byte address that is not a multiple
	// of the word size.
	ErrUnalignedAddress = errors.New("unaligned memory access")

	// ErrAddressOutOfRange indicates a byte address outside data memory.
	ErrAddressOutOfRange = errors.New("address out of range")
)

// Memory represents word-addressable data memory: MemoryWords signed words
// addressed by byte address. Address a maps to word index a/4.
type Memory struct {
	words [MemoryWords]int32
}

// NewMemory creates a zeroed data memory.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) index(addr int32) (int32, error) {
	if addr%WordSize != 0 {
		return 0, fmt.Errorf("%w: byte address %d", ErrUnalignedAddress, addr)
	}
	idx := addr / WordSize
	if addr < 0 || idx >= MemoryWords {
		return 0, fmt.Errorf("%w: byte address %d", ErrAddressOutOfRange, addr)
	}
	return idx, nil
}

// ReadWord reads the word at the given byte address.
func (m *Memory) ReadWord(addr int32) (int32, error) {
	idx, err := m.index(addr)
	if err != nil {
		return 0, err
	}
	return m.words[idx], nil
}

// WriteWord writes a word at the given byte address.
func (m *Memory) WriteWord(addr int32, value int32) error {
	idx, err := m.index(addr)
	if err != nil {
		return err
	}
	m.words[idx] = value
	return nil
}

// Word returns the word at the given word index without address checks.
// Intended for test setup and state inspection.
func (m *Memory) Word(index int) int32 {
	return m.words[index]
}

// SetWord stores a word at the given word index without address checks.
// Intended for preloading data before a run.
func (m *Memory) SetWord(index int, value int32) {
	m.words[index] = value
}

// Values returns a copy of the whole data memory.
func (m *Memory) Values() [MemoryWords]int32 {
	return m.words
}

// Reset sets every word to zero.
func (m *Memory) Reset() {
	m.words = [MemoryWords]int32{}
}
