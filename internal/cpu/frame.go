package cpu

import (
	"fmt"

	"aya/internal/memory"
	"aya/internal/register"
	"aya/internal/word"
)

// push writes val at SP then decrements SP by a word, mirroring
// push_stack in the original: the stack grows down from stack_address-2.
func (c *CPU) push(val word.Word) error {
	sp := c.Registers.Get(register.SP)
	if err := c.Memory.WriteWord(sp, val); err != nil {
		return err
	}
	prev, err := sp.PrevWord()
	if err != nil {
		return fmt.Errorf("cpu: stack overflow: %w", err)
	}
	c.Registers.Set(register.SP, prev)
	return nil
}

// pop advances SP by a word then reads it back, the mirror image of push.
func (c *CPU) pop() (word.Word, error) {
	sp := c.Registers.Get(register.SP)
	next, err := sp.NextWord()
	if err != nil {
		return 0, fmt.Errorf("cpu: stack underflow: %w", err)
	}
	v, err := c.Memory.ReadWord(next)
	if err != nil {
		return 0, err
	}
	c.Registers.Set(register.SP, next)
	return v, nil
}

// call implements §4.I's call sequence: save R1-R4 and IP (in that order),
// record the new frame's size, then move SP/FP to the start of it.
func (c *CPU) call(addr word.Word) error {
	for _, r := range []register.Register{register.R1, register.R2, register.R3, register.R4, register.IP} {
		if err := c.push(c.Registers.Get(r)); err != nil {
			return err
		}
	}

	sp := c.Registers.Get(register.SP)
	fp := c.Registers.Get(register.FP)
	nextFrameStart, err := sp.PrevWord()
	if err != nil {
		return fmt.Errorf("cpu: stack overflow entering call frame: %w", err)
	}
	frameSize := fp.Sub(nextFrameStart)
	if err := c.Memory.WriteWord(sp, frameSize); err != nil {
		return err
	}
	c.Registers.Set(register.SP, nextFrameStart)
	c.Registers.Set(register.FP, nextFrameStart)
	c.Registers.Set(register.IP, addr)
	return nil
}

// ret implements §4.I's return sequence, shared by ret/rti: pop frame_size,
// IP, R4, R3, R2, R1 in that order and restore FP by frame_size.
func (c *CPU) ret() error {
	fp := c.Registers.Get(register.FP)
	c.Registers.Set(register.SP, fp)

	frameSize, err := c.pop()
	if err != nil {
		return err
	}
	ip, err := c.pop()
	if err != nil {
		return err
	}
	for _, r := range []register.Register{register.R4, register.R3, register.R2, register.R1} {
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.Registers.Set(r, v)
	}

	c.Registers.Set(register.IP, ip)
	c.Registers.Set(register.FP, fp.Add(frameSize))
	return nil
}

// interrupt performs the call sequence against the interrupt vector table's
// entry for lit's low byte, the `int` instruction's semantics (§4.I).
func (c *CPU) interrupt(lit byte) error {
	addr, err := c.vectorTarget(memory.Interrupt(lit))
	if err != nil {
		return err
	}
	return c.call(addr)
}

// HandleInterrupt performs the same call sequence as `int` for iv, for the
// host loop to invoke between instruction batches (e.g. AfterFrame).
// Interrupts fire only at instruction boundaries (§5) — callers must not
// invoke this mid-Step.
func (c *CPU) HandleInterrupt(iv memory.Interrupt) error {
	addr, err := c.vectorTarget(iv)
	if err != nil {
		return err
	}
	return c.call(addr)
}

func (c *CPU) vectorTarget(iv memory.Interrupt) (word.Word, error) {
	return c.Memory.ReadWord(memory.VectorAddress(iv))
}
