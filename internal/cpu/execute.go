package cpu

import (
	"fmt"

	"aya/internal/opcode"
	"aya/internal/register"
	"aya/internal/word"
)

// execute dispatches op by its wire Kind, fetching whatever operands that
// kind requires and applying the mnemonic family's semantics (§4.I).
func (c *CPU) execute(op opcode.Opcode, kind opcode.Kind) error {
	if op == opcode.Halt {
		code, err := c.fetchByte()
		if err != nil {
			return err
		}
		c.halted = true
		c.exitCode = code
		return ErrHalted
	}

	switch kind {
	case opcode.NoArgs:
		return c.executeNoArgs(op)
	case opcode.SingleReg:
		reg, err := c.fetchRegister()
		if err != nil {
			return err
		}
		return c.executeSingleReg(op, reg)
	case opcode.SingleLit:
		lit, err := c.fetchWord()
		if err != nil {
			return err
		}
		return c.executeSingleLit(op, lit)
	case opcode.RegReg:
		lhs, err := c.fetchRegister()
		if err != nil {
			return err
		}
		rhs, err := c.fetchRegister()
		if err != nil {
			return err
		}
		return c.executeRegReg(op, lhs, rhs)
	case opcode.RegPtrReg:
		from, err := c.fetchRegister()
		if err != nil {
			return err
		}
		to, err := c.fetchRegister()
		if err != nil {
			return err
		}
		addr := c.Registers.Get(from)
		val := c.Registers.Get(to)
		return c.Memory.WriteWord(addr, val)
	case opcode.LitReg:
		reg, err := c.fetchRegister()
		if err != nil {
			return err
		}
		lit, err := c.fetchWord()
		if err != nil {
			return err
		}
		return c.executeLitReg(op, reg, lit)
	case opcode.RegMem:
		addr, err := c.fetchWord()
		if err != nil {
			return err
		}
		reg, err := c.fetchRegister()
		if err != nil {
			return err
		}
		val := c.Registers.Get(reg)
		return c.Memory.WriteWord(addr, val)
	case opcode.MemReg:
		addr, err := c.fetchWord()
		if err != nil {
			return err
		}
		reg, err := c.fetchRegister()
		if err != nil {
			return err
		}
		return c.executeMemReg(op, addr, reg)
	case opcode.LitMem:
		addr, err := c.fetchWord()
		if err != nil {
			return err
		}
		lit, err := c.fetchWord()
		if err != nil {
			return err
		}
		return c.executeLitMem(op, addr, lit)
	default:
		return fmt.Errorf("cpu: unhandled instruction kind %v for %s", kind, op)
	}
}

func (c *CPU) executeNoArgs(op opcode.Opcode) error {
	switch op {
	case opcode.Ret, opcode.Rti:
		return c.ret()
	default:
		return fmt.Errorf("cpu: unhandled no-args opcode %s", op)
	}
}

func (c *CPU) executeSingleReg(op opcode.Opcode, reg register.Register) error {
	switch op {
	case opcode.PushReg:
		return c.push(c.Registers.Get(reg))
	case opcode.Pop:
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.Registers.Set(reg, v)
		return nil
	case opcode.IncReg:
		c.Registers.Set(reg, c.Registers.Get(reg).Add(1))
		return nil
	case opcode.DecReg:
		c.Registers.Set(reg, c.Registers.Get(reg).Sub(1))
		return nil
	case opcode.Not:
		c.Registers.Set(reg, ^c.Registers.Get(reg))
		return nil
	default:
		return fmt.Errorf("cpu: unhandled single-register opcode %s", op)
	}
}

func (c *CPU) executeSingleLit(op opcode.Opcode, lit word.Word) error {
	switch op {
	case opcode.PushLit:
		return c.push(lit)
	case opcode.Call:
		return c.call(lit)
	case opcode.Jmp:
		c.Registers.Set(register.IP, c.jumpTarget(lit))
		return nil
	case opcode.Int:
		return c.interrupt(byte(lit))
	default:
		return fmt.Errorf("cpu: unhandled single-literal opcode %s", op)
	}
}

func (c *CPU) executeRegReg(op opcode.Opcode, lhs, rhs register.Register) error {
	a, b := c.Registers.Get(lhs), c.Registers.Get(rhs)
	switch op {
	case opcode.MovRegReg:
		c.Registers.Set(lhs, b)
	case opcode.AddRegReg:
		c.Registers.Set(lhs, a.Add(b))
	case opcode.SubRegReg:
		c.Registers.Set(lhs, a.Sub(b))
	case opcode.MulRegReg:
		c.Registers.Set(lhs, a.Mul(b))
	case opcode.LshRegReg:
		c.Registers.Set(lhs, a<<uint(b))
	case opcode.RshRegReg:
		c.Registers.Set(lhs, a>>uint(b))
	case opcode.AndRegReg:
		c.Registers.Set(lhs, a&b)
	case opcode.OrRegReg:
		c.Registers.Set(lhs, a|b)
	case opcode.XorRegReg:
		c.Registers.Set(lhs, a^b)
	default:
		return fmt.Errorf("cpu: unhandled reg-reg opcode %s", op)
	}
	return nil
}

func (c *CPU) executeLitReg(op opcode.Opcode, reg register.Register, lit word.Word) error {
	v := c.Registers.Get(reg)
	switch op {
	case opcode.MovLitReg:
		c.Registers.Set(reg, lit)
	case opcode.AddLitReg:
		c.Registers.Set(reg, v.Add(lit))
	case opcode.SubLitReg:
		c.Registers.Set(reg, v.Sub(lit))
	case opcode.MulLitReg:
		c.Registers.Set(reg, v.Mul(lit))
	case opcode.LshLitReg:
		c.Registers.Set(reg, v<<uint(lit))
	case opcode.RshLitReg:
		c.Registers.Set(reg, v>>uint(lit))
	case opcode.AndLitReg:
		c.Registers.Set(reg, v&lit)
	case opcode.OrLitReg:
		c.Registers.Set(reg, v|lit)
	case opcode.XorLitReg:
		c.Registers.Set(reg, v^lit)
	default:
		return fmt.Errorf("cpu: unhandled literal-register opcode %s", op)
	}
	return nil
}

// executeMemReg covers mov's MemReg (load register from address) and the
// conditional jump family's MemReg (compare register against Acc, branch to
// address). Both share the wire shape; the mnemonic decides the semantics.
func (c *CPU) executeMemReg(op opcode.Opcode, addr word.Word, reg register.Register) error {
	if op == opcode.MovMemReg {
		v, err := c.Memory.ReadWord(addr)
		if err != nil {
			return err
		}
		c.Registers.Set(reg, v)
		return nil
	}
	if relation, ok := jumpRelation(op); ok {
		acc := c.Registers.Get(register.Acc)
		regVal := c.Registers.Get(reg)
		if relation(regVal, acc) {
			c.Registers.Set(register.IP, c.jumpTarget(addr))
		}
		return nil
	}
	return fmt.Errorf("cpu: unhandled address-register opcode %s", op)
}

// executeLitMem covers mov's LitMem (store a literal to an address) and the
// conditional jump family's LitMem (compare a literal against Acc).
func (c *CPU) executeLitMem(op opcode.Opcode, addr, val word.Word) error {
	if op == opcode.MovLitMem {
		return c.Memory.WriteWord(addr, val)
	}
	if relation, ok := jumpRelation(op); ok {
		acc := c.Registers.Get(register.Acc)
		if relation(val, acc) {
			c.Registers.Set(register.IP, c.jumpTarget(addr))
		}
		return nil
	}
	return fmt.Errorf("cpu: unhandled address-literal opcode %s", op)
}

// jumpRelation maps a conditional jump opcode (reg or lit variant) to the
// comparison it performs against Acc: operand <relation> Acc.
func jumpRelation(op opcode.Opcode) (func(operand, acc word.Word) bool, bool) {
	switch op {
	case opcode.JeqReg, opcode.JeqLit:
		return func(o, a word.Word) bool { return o == a }, true
	case opcode.JgtReg, opcode.JgtLit:
		return func(o, a word.Word) bool { return o > a }, true
	case opcode.JneReg, opcode.JneLit:
		return func(o, a word.Word) bool { return o != a }, true
	case opcode.JgeReg, opcode.JgeLit:
		return func(o, a word.Word) bool { return o >= a }, true
	case opcode.JleReg, opcode.JleLit:
		return func(o, a word.Word) bool { return o <= a }, true
	case opcode.JltReg, opcode.JltLit:
		return func(o, a word.Word) bool { return o < a }, true
	default:
		return nil, false
	}
}
