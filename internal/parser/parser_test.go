package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aya/internal/ast"
	"aya/internal/opcode"
)

func TestParseLabelAndConst(t *testing.T) {
	src := "start:\nconst limit = $00ff\n+const shared = $0010\n"
	a, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, a.Statements, 3)

	label, ok := a.Statements[0].(ast.Label)
	require.True(t, ok)
	require.False(t, label.Exported)
	require.Equal(t, "start", label.Name.Slice(src))

	c, ok := a.Statements[1].(ast.Const)
	require.True(t, ok)
	require.False(t, c.Exported)
	require.Equal(t, "limit", c.Name.Slice(src))
	require.Equal(t, "00ff", c.Value.Span.Slice(src))

	exported, ok := a.Statements[2].(ast.Const)
	require.True(t, ok)
	require.True(t, exported.Exported)
}

func TestParseConstWithAddressWrapper(t *testing.T) {
	src := "const mapped = &[$8000]\n"
	a, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, a.Statements, 1)

	c := a.Statements[0].(ast.Const)
	require.Equal(t, "8000", c.Value.Span.Slice(src))
}

func TestParseData8AndData16(t *testing.T) {
	src := "data8 bytes = { $01, $02, $ff }\n+data16 words = { $0100, $0200 }\n"
	a, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, a.Statements, 2)

	b := a.Statements[0].(ast.Data)
	require.Equal(t, ast.Data8, b.Size)
	require.False(t, b.Exported)
	require.Len(t, b.Values, 3)
	require.Equal(t, "ff", b.Values[2].Span.Slice(src))

	w := a.Statements[1].(ast.Data)
	require.Equal(t, ast.Data16, w.Size)
	require.True(t, w.Exported)
	require.Len(t, w.Values, 2)
}

func TestParseDataRejectsAddressWrappedValue(t *testing.T) {
	src := "data8 bytes = { &[$01] }\n"
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseMovRegReg(t *testing.T) {
	a, err := Parse("mov r1, r2\n")
	require.NoError(t, err)
	inst := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovRegReg, inst.Op)
	require.Equal(t, opcode.RegReg, inst.Kind)
	_, lhsIsReg := inst.LHS.(ast.RegisterRef)
	_, rhsIsReg := inst.RHS.(ast.RegisterRef)
	require.True(t, lhsIsReg)
	require.True(t, rhsIsReg)
}

func TestParseMovLitReg(t *testing.T) {
	a, err := Parse("mov r3, $00ff\n")
	require.NoError(t, err)
	inst := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovLitReg, inst.Op)
	require.Equal(t, opcode.LitReg, inst.Kind)
	_, lhsIsReg := inst.LHS.(ast.RegisterRef)
	require.True(t, lhsIsReg)
}

func TestParseMovWithComputedLiteral(t *testing.T) {
	a, err := Parse("mov r1, [$0001 + $0002]\n")
	require.NoError(t, err)
	inst := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovLitReg, inst.Op)
	_, ok := inst.RHS.(ast.BinaryOp)
	require.True(t, ok)
}

func TestParseMovRegMemAndMemReg(t *testing.T) {
	a, err := Parse("mov &[$9000], r1\nmov r1, &[$9000]\n")
	require.NoError(t, err)
	require.Len(t, a.Statements, 2)

	toMem := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovRegMem, toMem.Op)
	require.Equal(t, opcode.RegMem, toMem.Kind)

	fromMem := a.Statements[1].(ast.Instruction)
	require.Equal(t, opcode.MovMemReg, fromMem.Op)
	require.Equal(t, opcode.MemReg, fromMem.Kind)
}

func TestParseMovLitMem(t *testing.T) {
	a, err := Parse("mov &[$9000], $00aa\n")
	require.NoError(t, err)
	inst := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovLitMem, inst.Op)
	require.Equal(t, opcode.LitMem, inst.Kind)
}

func TestParseMovRegPtrReg(t *testing.T) {
	a, err := Parse("mov &[r1], &[r2]\n")
	require.NoError(t, err)
	inst := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.MovRegPtrReg, inst.Op)
	require.Equal(t, opcode.RegPtrReg, inst.Kind)
	_, lhsOk := inst.LHS.(ast.RegisterRef)
	_, rhsOk := inst.RHS.(ast.RegisterRef)
	require.True(t, lhsOk)
	require.True(t, rhsOk)
}

func TestParseRejectsStackPointerRegisters(t *testing.T) {
	_, err := Parse("mov r1, sp\n")
	require.Error(t, err)

	_, err = Parse("mov r1, fp\n")
	require.Error(t, err)
}

func TestParseArithmeticFamily(t *testing.T) {
	a, err := Parse("add r1, r2\nsub r3, $0001\nmul r4, r5\n")
	require.NoError(t, err)
	require.Len(t, a.Statements, 3)

	add := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.AddRegReg, add.Op)

	sub := a.Statements[1].(ast.Instruction)
	require.Equal(t, opcode.SubLitReg, sub.Op)

	mul := a.Statements[2].(ast.Instruction)
	require.Equal(t, opcode.MulRegReg, mul.Op)
}

func TestParseArithmeticRejectsLiteralDestination(t *testing.T) {
	_, err := Parse("add $0002, r1\n")
	require.Error(t, err)
}

func TestParseUnaryRegisterInstructions(t *testing.T) {
	a, err := Parse("inc r1\ndec r2\nnot r3\n")
	require.NoError(t, err)
	require.Equal(t, opcode.IncReg, a.Statements[0].(ast.Instruction).Op)
	require.Equal(t, opcode.DecReg, a.Statements[1].(ast.Instruction).Op)
	require.Equal(t, opcode.Not, a.Statements[2].(ast.Instruction).Op)
}

func TestParseUnaryRegisterRejectsLiteral(t *testing.T) {
	_, err := Parse("inc $0001\n")
	require.Error(t, err)
}

func TestParsePushBothShapes(t *testing.T) {
	a, err := Parse("psh r1\npsh $00ff\n")
	require.NoError(t, err)
	require.Equal(t, opcode.PushReg, a.Statements[0].(ast.Instruction).Op)
	require.Equal(t, opcode.PushLit, a.Statements[1].(ast.Instruction).Op)
}

func TestParsePopCallRetIntRti(t *testing.T) {
	a, err := Parse("pop r1\ncall $1000\nret\nint $03\nrti\n")
	require.NoError(t, err)
	require.Equal(t, opcode.Pop, a.Statements[0].(ast.Instruction).Op)
	require.Equal(t, opcode.Call, a.Statements[1].(ast.Instruction).Op)
	require.Equal(t, opcode.Ret, a.Statements[2].(ast.Instruction).Op)
	require.Equal(t, opcode.NoArgs, a.Statements[2].(ast.Instruction).Kind)
	require.Equal(t, opcode.Int, a.Statements[3].(ast.Instruction).Op)
	require.Equal(t, opcode.Rti, a.Statements[4].(ast.Instruction).Op)
}

func TestParseHalt(t *testing.T) {
	a, err := Parse("hlt $00\n")
	require.NoError(t, err)
	inst := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.Halt, inst.Op)
}

func TestParseConditionalJumpBothShapes(t *testing.T) {
	a, err := Parse("jeq &[$2000], r1\njgt &[$2010], $0005\njmp $3000\n")
	require.NoError(t, err)

	withReg := a.Statements[0].(ast.Instruction)
	require.Equal(t, opcode.JeqReg, withReg.Op)
	require.Equal(t, opcode.MemReg, withReg.Kind)
	_, targetIsAddr := withReg.LHS.(ast.Address)
	require.True(t, targetIsAddr)

	withLit := a.Statements[1].(ast.Instruction)
	require.Equal(t, opcode.JgtLit, withLit.Op)
	require.Equal(t, opcode.LitMem, withLit.Kind)

	jmp := a.Statements[2].(ast.Instruction)
	require.Equal(t, opcode.Jmp, jmp.Op)
	require.Equal(t, opcode.SingleLit, jmp.Kind)
}

func TestParseImportWithVariables(t *testing.T) {
	src := `import "math.aya" Math &[$4000] {
		seed: $0001,
		scale: !externalScale,
		forwarded: [!otherVar],
		field: [Other.value]
	}
`
	a, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, a.Statements, 1)

	imp := a.Statements[0].(ast.Import)
	require.Equal(t, "math.aya", imp.Path.Slice(src))
	require.Equal(t, "Math", imp.Name.Slice(src))
	require.Equal(t, "4000", imp.Address.Span.Slice(src))
	require.Len(t, imp.Variables, 4)

	require.Equal(t, "seed", imp.Variables[0].Name.Slice(src))
	_, isHex := imp.Variables[0].Value.(ast.HexLiteral)
	require.True(t, isHex)

	require.Equal(t, "scale", imp.Variables[1].Name.Slice(src))
	_, isVar := imp.Variables[1].Value.(ast.VarRef)
	require.True(t, isVar)

	require.Equal(t, "forwarded", imp.Variables[2].Name.Slice(src))
	_, isForwardedVar := imp.Variables[2].Value.(ast.VarRef)
	require.True(t, isForwardedVar)

	require.Equal(t, "field", imp.Variables[3].Name.Slice(src))
	field, isField := imp.Variables[3].Value.(ast.FieldAccessor)
	require.True(t, isField)
	require.Equal(t, "Other", field.Module.Slice(src))
	require.Equal(t, "value", field.Field.Slice(src))
}

func TestParseImportRejectsDuplicateVariableNames(t *testing.T) {
	src := `import "a.aya" A &[$1000] {
		x: $0001,
		x: $0002
	}
`
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseAst_ConstantsAndImportsHelpers(t *testing.T) {
	src := "const a = $0001\nimport \"b.aya\" B &[$2000] {}\nconst c = $0002\n"
	a, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, a.Constants(), 2)
	require.Len(t, a.Imports(), 1)
}
