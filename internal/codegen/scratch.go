package codegen

import (
	"fmt"

	"aya/internal/ast"
	"aya/internal/opcode"
	"aya/internal/register"
)

// scratchPool hands out temporary registers from a fixed-order pool
// (acc, r1..r8), saving each register's current value to the machine stack
// on acquire and restoring it on release so a scratch allocation never
// clobbers a value the caller still needs. Release must happen in the exact
// reverse order of acquisition -- the machine stack is a LIFO, and so is
// this pool's bookkeeping.
type scratchPool struct {
	available []register.Register
	acquired  []register.Register
}

func newScratchPool() *scratchPool {
	return &scratchPool{
		available: []register.Register{
			register.Acc, register.R1, register.R2, register.R3, register.R4,
			register.R5, register.R6, register.R7, register.R8,
		},
	}
}

// acquire reserves the next register in the pool's fixed order, returning
// the `psh` instruction that preserves its prior value.
func (p *scratchPool) acquire() (register.Register, ast.Instruction, error) {
	if len(p.available) == 0 {
		return 0, ast.Instruction{}, fmt.Errorf("codegen: scratch register pool exhausted")
	}
	r := p.available[0]
	p.available = p.available[1:]
	p.acquired = append(p.acquired, r)

	op, ok := opcode.Lookup("psh", opcode.SingleReg)
	if !ok {
		return 0, ast.Instruction{}, fmt.Errorf("codegen: no psh/SingleReg opcode")
	}
	return r, ast.Instruction{Op: op, Kind: opcode.SingleReg, LHS: ast.NewRegisterRef(r)}, nil
}

// release returns r to the pool, returning the `pop` instruction that
// restores its prior value. r must be the most recently acquired register
// still outstanding.
func (p *scratchPool) release(r register.Register) (ast.Instruction, error) {
	if len(p.acquired) == 0 || p.acquired[len(p.acquired)-1] != r {
		return ast.Instruction{}, fmt.Errorf("codegen: scratch register %s released out of order", r)
	}
	p.acquired = p.acquired[:len(p.acquired)-1]
	p.available = append([]register.Register{r}, p.available...)

	op, ok := opcode.Lookup("pop", opcode.SingleReg)
	if !ok {
		return ast.Instruction{}, fmt.Errorf("codegen: no pop/SingleReg opcode")
	}
	return ast.Instruction{Op: op, Kind: opcode.SingleReg, LHS: ast.NewRegisterRef(r)}, nil
}

// releaseAll pops every still-outstanding scratch register in LIFO order,
// used at the end of a top-level instruction lowering as a final safety net.
func (p *scratchPool) releaseAll() []ast.Instruction {
	var out []ast.Instruction
	for len(p.acquired) > 0 {
		r := p.acquired[len(p.acquired)-1]
		instr, err := p.release(r)
		if err != nil {
			continue
		}
		out = append(out, instr)
	}
	return out
}
