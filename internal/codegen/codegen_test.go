package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aya/internal/ast"
	"aya/internal/opcode"
	"aya/internal/parser"
)

func TestLowerFoldsPureLiteralExpression(t *testing.T) {
	src := "mov r1, [$0001 + $0002]\n"
	tree, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := Lower(tree, src)
	require.NoError(t, err)
	require.Len(t, out.Statements, 1)

	inst := out.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovLitReg, inst.Op)
	lit := inst.RHS.(ast.HexLiteral)
	v, ok := lit.ResolvedValue()
	require.True(t, ok)
	require.Equal(t, uint16(0x0003), uint16(v))
}

func TestLowerFoldsMultiplicationAndSubtraction(t *testing.T) {
	src := "mov r1, [$0010 * $0002 - $0005]\n"
	tree, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := Lower(tree, src)
	require.NoError(t, err)
	inst := out.Statements[0].(ast.Instruction)
	lit := inst.RHS.(ast.HexLiteral)
	v, _ := lit.ResolvedValue()
	require.Equal(t, uint16(0x001b), uint16(v))
}

func TestLowerLeavesSimpleOperandsUnchanged(t *testing.T) {
	src := "mov r1, r2\nmov r3, $00ff\nadd r1, r2\n"
	tree, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := Lower(tree, src)
	require.NoError(t, err)
	require.Len(t, out.Statements, 3)
	for i := range out.Statements {
		require.Equal(t, tree.Statements[i], out.Statements[i])
	}
}

func TestLowerExpandsRegisterInvolvingExpression(t *testing.T) {
	src := "mov r1, [r2 + $0005]\n"
	tree, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := Lower(tree, src)
	require.NoError(t, err)
	require.Greater(t, len(out.Statements), 1)

	// The scratch pool must be perfectly balanced: every psh has a
	// matching pop, and the instruction just before the closing pop moves
	// the computed value into the original destination register.
	pshCount, popCount := 0, 0
	for _, stmt := range out.Statements {
		inst := stmt.(ast.Instruction)
		switch inst.Op {
		case opcode.PushReg:
			pshCount++
		case opcode.Pop:
			popCount++
		}
	}
	require.Equal(t, pshCount, popCount)

	last := out.Statements[len(out.Statements)-2].(ast.Instruction)
	require.Equal(t, opcode.MovRegReg, last.Op)
	destReg, ok := last.LHS.(ast.RegisterRef)
	require.True(t, ok)
	require.Equal(t, "r1", destReg.Span.Slice(src))
}

func TestLowerFoldsAddressExpression(t *testing.T) {
	src := "mov r1, &[$1000 + $0002]\n"
	tree, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := Lower(tree, src)
	require.NoError(t, err)
	inst := out.Statements[0].(ast.Instruction)
	addr := inst.RHS.(ast.Address)
	lit := addr.Inner.(ast.HexLiteral)
	v, ok := lit.ResolvedValue()
	require.True(t, ok)
	require.Equal(t, uint16(0x1002), uint16(v))
}

func TestLowerLeavesVariableAddressUntouched(t *testing.T) {
	src := "mov r1, &[!table + $0002]\n"
	tree, err := parser.Parse(src)
	require.NoError(t, err)

	out, err := Lower(tree, src)
	require.NoError(t, err)
	inst := out.Statements[0].(ast.Instruction)
	addr := inst.RHS.(ast.Address)
	_, isBinOp := addr.Inner.(ast.BinaryOp)
	require.True(t, isBinOp)
}
