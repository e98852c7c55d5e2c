package debugger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"aya/internal/cpu"
	"aya/internal/logging"
	"aya/internal/memory"
	"aya/internal/register"
	"aya/internal/word"
)

func newCPU(t *testing.T, code []byte) *cpu.CPU {
	t.Helper()
	mem := memory.NewLinearDevice(0x1000)
	for i, b := range code {
		require.NoError(t, mem.Write(word.Word(i), b))
	}
	return cpu.New(mem, 0, 0x0FFE)
}

func loopProgram() []byte {
	return []byte{
		0x11, 0x00, 0x03, 0x00, // mov acc, $0003
		0x27, 0x00, // dec acc            (offset 4)
		0x56, 0x04, 0x00, 0x00, 0x00, // jne &[4], $0000
		0xFF, 0x00, // hlt $00
	}
}

func TestStepExecutesOneInstruction(t *testing.T) {
	code := loopProgram()
	d := New(newCPU(t, code))

	require.NoError(t, d.Step())
	require.Equal(t, word.Word(0x0003), d.CPU.Registers.Get(register.Acc))
}

func TestBreakpointStopsRunBeforeExecutingIt(t *testing.T) {
	code := loopProgram()
	d := New(newCPU(t, code))
	d.SetBreakpoint(4) // dec acc

	reason, err := d.RunUntilBreakOrHalt()
	require.NoError(t, err)
	require.Equal(t, StopBreakpoint, reason)
	require.Equal(t, word.Word(4), d.CPU.Registers.Get(register.IP))
	require.Equal(t, word.Word(0x0003), d.CPU.Registers.Get(register.Acc)) // dec hasn't run yet
}

func TestToggleBreakpointSetsThenClears(t *testing.T) {
	d := New(newCPU(t, loopProgram()))
	require.True(t, d.ToggleBreakpoint(4))
	require.False(t, d.ToggleBreakpoint(4))
}

func TestRunUntilBreakOrHaltReachesHalt(t *testing.T) {
	code := loopProgram()
	d := New(newCPU(t, code))

	reason, err := d.RunUntilBreakOrHalt()
	require.NoError(t, err)
	require.Equal(t, StopHalted, reason)
	require.Equal(t, byte(0), d.CPU.ExitCode())
}

func TestStackDumpShowsMostRecentPushFirst(t *testing.T) {
	code := []byte{
		0x41, 0xCD, 0xAB, // psh $ABCD
		0x41, 0x34, 0x12, // psh $1234
	}
	d := New(newCPU(t, code))

	require.NoError(t, d.Step()) // psh $ABCD
	require.NoError(t, d.Step()) // psh $1234

	dump := d.StackDump(stackDumpDepth)
	lines := strings.Split(strings.TrimSpace(dump), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	require.Contains(t, lines[0], "1234")
	require.Contains(t, lines[1], "ABCD")
}

func TestREPLStackCommandPrintsDump(t *testing.T) {
	code := []byte{
		0x41, 0xCD, 0xAB, // psh $ABCD
	}
	d := New(newCPU(t, code))

	in := bytes.NewBufferString("n\nstack\nq\n")
	var out bytes.Buffer
	require.NoError(t, d.REPL(in, &out, code))
	require.Contains(t, out.String(), "ABCD")
}

func TestREPLLogCommandWithNoRingReportsNone(t *testing.T) {
	d := New(newCPU(t, loopProgram()))

	in := bytes.NewBufferString("log\nq\n")
	var out bytes.Buffer
	require.NoError(t, d.REPL(in, &out, loopProgram()))
	require.Contains(t, out.String(), "no log buffer attached")
}

func TestREPLLogCommandPrintsBufferedLines(t *testing.T) {
	ring := logging.NewRingBuffer(8)
	slog.New(ring).Info("console started")

	d := New(newCPU(t, loopProgram()))
	d.Log = ring

	in := bytes.NewBufferString("log\nq\n")
	var out bytes.Buffer
	require.NoError(t, d.REPL(in, &out, loopProgram()))
	require.Contains(t, out.String(), "console started")
}

func TestREPLNextCommandSteps(t *testing.T) {
	code := loopProgram()
	d := New(newCPU(t, code))

	in := bytes.NewBufferString("n\nq\n")
	var out bytes.Buffer
	require.NoError(t, d.REPL(in, &out, code))
	require.Equal(t, word.Word(0x0003), d.CPU.Registers.Get(register.Acc))
	require.Contains(t, out.String(), "next:")
}
