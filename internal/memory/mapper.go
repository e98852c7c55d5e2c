package memory

import (
	"fmt"

	"aya/internal/word"
)

// MappingMode controls how a region's device sees an address: Direct passes
// it through unchanged (program memory, which is addressed the same way by
// both the loader and the CPU), Remap translates it to be relative to the
// region's start (every other device, so e.g. tile memory always starts
// counting from byte 0 regardless of where it's mapped into the address
// space). Grounded on memory_mapper.rs's MappingMode.
type MappingMode int

const (
	Direct MappingMode = iota
	Remap
)

type region struct {
	device Addressable
	start  word.Word
	end    word.Word
	mode   MappingMode
}

// MemoryMapper dispatches reads/writes across a set of mapped regions,
// searching most-recently-mapped-first (LIFO) so a later Map call can shadow
// an earlier one — a deliberate property (§9: "Memory mapper LIFO search"),
// not a bug, preserved from memory_mapper.rs's front-pushing VecDeque.
type MemoryMapper struct {
	regions []region
}

// NewMemoryMapper returns an empty mapper ready for Map calls.
func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

// Map installs device to answer reads/writes in [start, end] (inclusive),
// inserted ahead of every previously mapped region.
func (m *MemoryMapper) Map(device Addressable, start, end word.Word, mode MappingMode) {
	m.regions = append([]region{{device: device, start: start, end: end, mode: mode}}, m.regions...)
}

func (m *MemoryMapper) find(addr word.Word) (*region, error) {
	for i := range m.regions {
		r := &m.regions[i]
		if addr >= r.start && addr <= r.end {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %#04x", ErrUnmappedAddress, addr)
}

func (r *region) translate(addr word.Word) word.Word {
	if r.mode == Remap {
		return addr - r.start
	}
	return addr
}

func (m *MemoryMapper) Read(addr word.Word) (byte, error) {
	r, err := m.find(addr)
	if err != nil {
		return 0, err
	}
	return r.device.Read(r.translate(addr))
}

func (m *MemoryMapper) Write(addr word.Word, b byte) error {
	r, err := m.find(addr)
	if err != nil {
		return err
	}
	return r.device.Write(r.translate(addr), b)
}

func (m *MemoryMapper) ReadWord(addr word.Word) (word.Word, error) {
	r, err := m.find(addr)
	if err != nil {
		return 0, err
	}
	return r.device.ReadWord(r.translate(addr))
}

func (m *MemoryMapper) WriteWord(addr word.Word, v word.Word) error {
	r, err := m.find(addr)
	if err != nil {
		return err
	}
	return r.device.WriteWord(r.translate(addr), v)
}
