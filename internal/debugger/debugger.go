// Package debugger implements the breakpoint/step/inspect protocol against
// the CPU's Step method, plus a line-oriented REPL exposed from
// `cmd/aya run --debug`. Grounded on gvm/vm/run.go's
// RunProgramDebugMode/getDefaultRecoverFuncForVM: a bufio.Reader-driven
// command loop checking breakpoints against the instruction pointer before
// each step, re-expressed without the teacher's panic/recover error path
// (internal/cpu reports errors directly instead of panicking).
package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aya/internal/cpu"
	"aya/internal/disasm"
	"aya/internal/logging"
	"aya/internal/register"
	"aya/internal/word"
)

// StopReason reports why RunUntilBreakOrHalt or the REPL's run command
// stopped stepping.
type StopReason int

const (
	StopHalted StopReason = iota
	StopBreakpoint
	StopError
)

// Debugger wraps a CPU with the breakpoint bookkeeping and commands a
// debugger front-end (REPL or otherwise) needs. Log is optional: when the
// caller attaches a RingBuffer (cmd/aya run --debug does), the REPL's "log"
// command prints its buffered lines; left nil, "log" reports none attached.
type Debugger struct {
	CPU         *cpu.CPU
	Log         *logging.RingBuffer
	breakpoints map[word.Word]struct{}
}

// New wraps c for debugging. c should not have executed any instructions yet
// so the first printed state reflects the program's entry point.
func New(c *cpu.CPU) *Debugger {
	return &Debugger{CPU: c, breakpoints: make(map[word.Word]struct{})}
}

// SetBreakpoint arms a break at addr.
func (d *Debugger) SetBreakpoint(addr word.Word) {
	d.breakpoints[addr] = struct{}{}
}

// ClearBreakpoint disarms a break at addr, reporting whether one was set.
func (d *Debugger) ClearBreakpoint(addr word.Word) bool {
	_, ok := d.breakpoints[addr]
	delete(d.breakpoints, addr)
	return ok
}

// ToggleBreakpoint sets addr if unset, clears it if set — the REPL's "break"
// command semantics, mirroring gvm/vm/run.go's toggle-by-line behavior.
func (d *Debugger) ToggleBreakpoint(addr word.Word) (set bool) {
	if d.ClearBreakpoint(addr) {
		return false
	}
	d.SetBreakpoint(addr)
	return true
}

func (d *Debugger) atBreakpoint() bool {
	_, ok := d.breakpoints[d.CPU.Registers.Get(register.IP)]
	return ok
}

// Step executes exactly one instruction.
func (d *Debugger) Step() error {
	return d.CPU.Step()
}

// RunUntilBreakOrHalt steps the CPU until it halts, hits an armed
// breakpoint, or errors. The instruction at a breakpoint's address has not
// yet executed when this returns StopBreakpoint, mirroring the original's
// "break before executing the flagged line" behavior.
func (d *Debugger) RunUntilBreakOrHalt() (StopReason, error) {
	first := true
	for {
		if !first && d.atBreakpoint() {
			return StopBreakpoint, nil
		}
		first = false

		if err := d.CPU.Step(); err != nil {
			if errors.Is(err, cpu.ErrHalted) {
				return StopHalted, nil
			}
			return StopError, err
		}
	}
}

// RegisterDump renders every register's current value, used by the REPL's
// "regs" command.
func (d *Debugger) RegisterDump() string {
	var b strings.Builder
	for _, r := range []register.Register{
		register.Acc, register.IP, register.R1, register.R2, register.R3, register.R4,
		register.R5, register.R6, register.R7, register.R8, register.SP, register.FP,
	} {
		fmt.Fprintf(&b, "%-4s %04X\n", r, uint16(d.CPU.Registers.Get(r)))
	}
	return b.String()
}

// stackDumpDepth bounds the REPL's "stack" command to a readable window
// instead of printing the whole stack region.
const stackDumpDepth = 16

// StackDump renders up to depth words above the current SP, most recently
// pushed first, used by the REPL's "stack" command. Reading stops early if
// an address runs off the end of the backing memory (e.g. near the top of a
// bare LinearDevice in tests), so it works the same whether the CPU is
// driving a full Console or a plain test buffer.
func (d *Debugger) StackDump(depth int) string {
	var b strings.Builder
	addr := d.CPU.Registers.Get(register.SP)
	for i := 0; i < depth; i++ {
		next, err := addr.NextWord()
		if err != nil {
			break
		}
		addr = next
		v, err := d.CPU.Memory.ReadWord(addr)
		if err != nil {
			break
		}
		fmt.Fprintf(&b, "%04X: %04X\n", uint16(addr), uint16(v))
	}
	if b.Len() == 0 {
		return "stack empty\n"
	}
	return b.String()
}

// NextInstruction disassembles the single instruction starting at the
// current IP, for the REPL to show what's about to run. code must be
// indexed the same way the CPU's IP is: byte 0 of code is whatever address
// the CPU was constructed with as its start address (0 for a bare CPU over
// raw bytecode, memory.ProgramMemoryStart when driving a full Console).
func (d *Debugger) NextInstruction(code []byte) (string, error) {
	ip := int(d.CPU.Registers.Get(register.IP))
	if ip >= len(code) {
		return "", fmt.Errorf("debugger: IP %#04x is past the end of the given code buffer", ip)
	}
	lines, err := disasm.Disassemble(code[ip:])
	if err != nil && len(lines) == 0 {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("debugger: no instruction decoded at %#04x", ip)
	}
	return lines[0].Text, nil
}

// REPL runs the interactive command loop described in SPEC_FULL.md's
// debugger-protocol supplemented feature: n/next single-steps, r/run runs to
// completion or the next breakpoint, b/break <addr> toggles a breakpoint,
// regs dumps registers, stack dumps the top of stack memory, log shows
// recently buffered log lines, q/quit exits. code is the program's bytecode,
// used only to render the upcoming instruction; it is not re-executed.
func (d *Debugger) REPL(in io.Reader, out io.Writer, code []byte) error {
	fmt.Fprint(out, "commands: n(ext), r(un), b(reak) <addr hex>, regs, stack, log, q(uit)\n\n")
	reader := bufio.NewReader(in)

	d.printState(out, code)
	for {
		fmt.Fprint(out, "-> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return nil
		}
		line = strings.ToLower(strings.TrimSpace(line))

		switch {
		case line == "n" || line == "next":
			if err := d.Step(); err != nil {
				if errors.Is(err, cpu.ErrHalted) {
					fmt.Fprintln(out, "halted, exit code", d.CPU.ExitCode())
					return nil
				}
				fmt.Fprintln(out, "error:", err)
				return err
			}
			d.printState(out, code)

		case line == "r" || line == "run":
			reason, err := d.RunUntilBreakOrHalt()
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				return err
			}
			switch reason {
			case StopHalted:
				fmt.Fprintln(out, "halted, exit code", d.CPU.ExitCode())
				return nil
			case StopBreakpoint:
				fmt.Fprintln(out, "breakpoint")
				d.printState(out, code)
			}

		case line == "regs":
			fmt.Fprint(out, d.RegisterDump())

		case line == "stack":
			fmt.Fprint(out, d.StackDump(stackDumpDepth))

		case line == "log":
			if d.Log == nil {
				fmt.Fprintln(out, "no log buffer attached (run with --debug to enable logging)")
				continue
			}
			for _, l := range d.Log.Lines() {
				fmt.Fprintln(out, l)
			}

		case strings.HasPrefix(line, "b"):
			arg := strings.TrimPrefix(line, "break")
			if arg == line {
				arg = strings.TrimPrefix(line, "b")
			}
			addr, err := parseAddr(strings.TrimSpace(arg))
			if err != nil {
				fmt.Fprintln(out, "bad address:", err)
				continue
			}
			if d.ToggleBreakpoint(addr) {
				fmt.Fprintf(out, "breakpoint set at %#04x\n", uint16(addr))
			} else {
				fmt.Fprintf(out, "breakpoint cleared at %#04x\n", uint16(addr))
			}

		case line == "q" || line == "quit":
			return nil

		default:
			fmt.Fprintln(out, "unknown command:", line)
		}
	}
}

func (d *Debugger) printState(out io.Writer, code []byte) {
	if next, err := d.NextInstruction(code); err == nil {
		fmt.Fprintln(out, "next:", next)
	}
}

func parseAddr(s string) (word.Word, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "break"), " ")
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return word.Word(v), nil
}
