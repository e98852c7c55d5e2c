package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aya/internal/memory"
	"aya/internal/register"
	"aya/internal/word"
)

func newTestCPU(t *testing.T, code []byte) *CPU {
	t.Helper()
	mem := memory.NewLinearDevice(0x1000)
	for i, b := range code {
		require.NoError(t, mem.Write(word.Word(i), b))
	}
	return New(mem, 0, 0x0FFE)
}

func TestMinimalProgram(t *testing.T) {
	code := []byte{0x11, 0x02, 0x42, 0x00, 0x11, 0x03, 0x03, 0x00, 0x20, 0x02, 0x03, 0xFF, 0x00}
	c := newTestCPU(t, code)
	require.NoError(t, c.Run())
	require.True(t, c.Halted())
	require.Equal(t, byte(0), c.ExitCode())
	require.Equal(t, word.Word(0x0045), c.Registers.Get(register.R1))
	require.Equal(t, word.Word(0x0003), c.Registers.Get(register.R2))
}

func TestLabelsAndJumpsLoopsThreeTimes(t *testing.T) {
	// mov acc,$0003; dec acc; jne &[4],$0000; hlt $00
	code := []byte{
		0x11, 0x00, 0x03, 0x00, // mov acc, $0003
		0x27, 0x00, // dec acc            (offset 4)
		0x56, 0x04, 0x00, 0x00, 0x00, // jne &[4], $0000
		0xFF, 0x00, // hlt $00
	}
	c := newTestCPU(t, code)
	require.NoError(t, c.Run())
	require.Equal(t, word.Word(0), c.Registers.Get(register.Acc))
}

func TestCallReturnRestoresFrame(t *testing.T) {
	// mov r1,$0011; call &[9]; hlt $00; sub: ret      (offset 9)
	// call/ret is a perfect mirror (§8): R1-R4, FP and SP all come back
	// exactly as they were right before the call, and execution resumes
	// at the instruction right after call.
	code := []byte{
		0x11, 0x02, 0x11, 0x00, // mov r1, $0011  (offset 0-3)
		0x43, 0x09, 0x00, // call &[9]             (offset 4-6)
		0xFF, 0x00, // hlt $00                      (offset 7-8)
		0x44, // sub: ret                            (offset 9)
	}

	c := newTestCPU(t, code)
	require.NoError(t, c.Step()) // mov r1, $0011
	r1AfterMov := c.Registers.Get(register.R1)
	require.Equal(t, word.Word(0x0011), r1AfterMov)

	spBefore := c.Registers.Get(register.SP)
	fpBefore := c.Registers.Get(register.FP)

	require.NoError(t, c.Step()) // call &[9]
	require.NoError(t, c.Step()) // ret

	require.Equal(t, word.Word(7), c.Registers.Get(register.IP)) // resumes right after call
	require.Equal(t, r1AfterMov, c.Registers.Get(register.R1))
	require.Equal(t, spBefore, c.Registers.Get(register.SP))
	require.Equal(t, fpBefore, c.Registers.Get(register.FP))

	require.NoError(t, c.Run())
	require.True(t, c.Halted())
	require.Equal(t, byte(0), c.ExitCode())
}

func TestForbiddenRegisterRejected(t *testing.T) {
	// pop into reg 11 (sp) -- SingleReg fetch of byte 11 must fail
	code := []byte{0x42, 0x0B} // pop sp
	c := newTestCPU(t, code)
	err := c.Step()
	require.ErrorIs(t, err, register.ErrForbiddenRegister)
}

func TestUnknownOpcodeFails(t *testing.T) {
	code := []byte{0x00}
	c := newTestCPU(t, code)
	_, err := c.fetchOpcode()
	require.Error(t, err)
}
