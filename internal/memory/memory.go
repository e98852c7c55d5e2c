// Package memory implements the console's address space: a set of
// heterogeneous linear devices dispatched through a single mapper, grounded
// on original_source/aya-console/src/memory/{addressable,linear_memory}.rs.
package memory

import (
	"errors"
	"fmt"

	"aya/internal/word"
)

// ErrUnmappedAddress is returned by a MemoryMapper read/write for any address
// not covered by a mapped region.
var ErrUnmappedAddress = errors.New("memory: unmapped address")

// ErrOutOfRange is returned by a device whose mapped window still exceeds its
// own backing size (a mapping bug, not a user-triggerable runtime error).
var ErrOutOfRange = errors.New("memory: address out of device range")

// Addressable is anything that can be read and written a byte or a
// little-endian word at a time. MemoryMapper and LinearDevice both
// implement it, mirroring the original's single
// Addressable trait so one interface covers both composite and leaf devices.
type Addressable interface {
	Read(addr word.Word) (byte, error)
	Write(addr word.Word, b byte) error
	ReadWord(addr word.Word) (word.Word, error)
	WriteWord(addr word.Word, v word.Word) error
}

// readWord and writeWord implement the word-from-two-bytes default that the
// original expresses as default trait methods; LinearDevice calls these
// rather than duplicating the byte-pair logic.
func readWord(a Addressable, addr word.Word) (word.Word, error) {
	lo, err := a.Read(addr)
	if err != nil {
		return 0, err
	}
	next, err := addr.Next()
	if err != nil {
		return 0, err
	}
	hi, err := a.Read(next)
	if err != nil {
		return 0, err
	}
	return word.FromBytes(lo, hi), nil
}

func writeWord(a Addressable, addr word.Word, v word.Word) error {
	lo, hi := v.Bytes()
	if err := a.Write(addr, lo); err != nil {
		return err
	}
	next, err := addr.Next()
	if err != nil {
		return err
	}
	return a.Write(next, hi)
}

// LinearDevice is a fixed-size, zero-initialized flat byte array: the uniform
// shape behind tile/sprite/program/background/UI/interrupt-vector/stack
// memory in the original (one struct per device there, collapsed here since
// every variant is identical apart from size).
type LinearDevice struct {
	bytes []byte
}

// NewLinearDevice allocates a zeroed device of the given size.
func NewLinearDevice(size int) *LinearDevice {
	return &LinearDevice{bytes: make([]byte, size)}
}

// NewLinearDeviceFrom allocates a device of size bytes, copying in as much of
// initial as fits and zero-filling the rest — used to seed tile memory
// directly from a ROM's sprite section at load time.
func NewLinearDeviceFrom(size int, initial []byte) *LinearDevice {
	d := &LinearDevice{bytes: make([]byte, size)}
	copy(d.bytes, initial)
	return d
}

func (d *LinearDevice) Read(addr word.Word) (byte, error) {
	i := addr.Int()
	if i >= len(d.bytes) {
		return 0, fmt.Errorf("%w: %#04x (size %d)", ErrOutOfRange, i, len(d.bytes))
	}
	return d.bytes[i], nil
}

func (d *LinearDevice) Write(addr word.Word, b byte) error {
	i := addr.Int()
	if i >= len(d.bytes) {
		return fmt.Errorf("%w: %#04x (size %d)", ErrOutOfRange, i, len(d.bytes))
	}
	d.bytes[i] = b
	return nil
}

func (d *LinearDevice) ReadWord(addr word.Word) (word.Word, error) {
	return readWord(d, addr)
}

func (d *LinearDevice) WriteWord(addr word.Word, v word.Word) error {
	return writeWord(d, addr, v)
}

// Len reports the device's fixed size.
func (d *LinearDevice) Len() int {
	return len(d.bytes)
}
