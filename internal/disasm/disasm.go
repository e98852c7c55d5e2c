// Package disasm renders a compiled bytecode buffer back to mnemonic text
// using the opcode table's reverse mapping, colorized with fatih/color.
// Used by cmd/aya's disasm subcommand and the debugger's instruction trace.
package disasm

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"aya/internal/opcode"
	"aya/internal/register"
	"aya/internal/word"
)

// Line is one decoded instruction: its byte offset, the raw bytes it
// consumed, and its rendered mnemonic text.
type Line struct {
	Offset int
	Raw    []byte
	Text   string
}

var (
	mnemonicColor = color.New(color.FgCyan, color.Bold)
	regColor      = color.New(color.FgYellow)
	litColor      = color.New(color.FgGreen)
	addrColor     = color.New(color.FgMagenta)
	offsetColor   = color.New(color.FgHiBlack)
)

// Disassemble walks code from offset 0, decoding one instruction at a time
// until the buffer is exhausted. An unknown opcode byte stops decoding and
// is returned as an error; everything decoded up to that point is returned
// alongside it so a caller can still show partial output.
func Disassemble(code []byte) ([]Line, error) {
	var lines []Line
	offset := 0

	for offset < len(code) {
		op, err := opcode.FromByte(code[offset])
		if err != nil {
			return lines, fmt.Errorf("disasm: at offset %d: %w", offset, err)
		}

		if op == opcode.Halt {
			if offset+2 > len(code) {
				return lines, fmt.Errorf("disasm: at offset %d: truncated hlt", offset)
			}
			raw := code[offset : offset+2]
			lines = append(lines, Line{Offset: offset, Raw: raw, Text: fmt.Sprintf("hlt $%02X", raw[1])})
			offset += 2
			continue
		}

		kind, err := op.Kind()
		if err != nil {
			return lines, fmt.Errorf("disasm: at offset %d: %w", offset, err)
		}
		size := kind.ByteSize()
		if offset+size > len(code) {
			return lines, fmt.Errorf("disasm: at offset %d: truncated %s instruction", offset, op)
		}
		raw := code[offset : offset+size]

		text, err := render(op, kind, raw)
		if err != nil {
			return lines, fmt.Errorf("disasm: at offset %d: %w", offset, err)
		}
		lines = append(lines, Line{Offset: offset, Raw: raw, Text: text})
		offset += size
	}

	return lines, nil
}

// render formats a single instruction's raw bytes (including its opcode
// byte) into mnemonic text, mirroring the operand order execute.go decodes.
func render(op opcode.Opcode, kind opcode.Kind, raw []byte) (string, error) {
	name := op.String()
	switch kind {
	case opcode.NoArgs:
		return name, nil
	case opcode.SingleReg:
		reg, err := register.FromByte(raw[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s", name, reg), nil
	case opcode.SingleLit:
		lit := word.FromBytes(raw[1], raw[2])
		if opcode.IsJump(op) || op == opcode.Call {
			return fmt.Sprintf("%s &[%s]", name, hex(lit)), nil
		}
		return fmt.Sprintf("%s $%s", name, hex(lit)), nil
	case opcode.RegReg:
		lhs, err := register.FromByte(raw[1])
		if err != nil {
			return "", err
		}
		rhs, err := register.FromByte(raw[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s, %s", name, lhs, rhs), nil
	case opcode.RegPtrReg:
		from, err := register.FromByte(raw[1])
		if err != nil {
			return "", err
		}
		to, err := register.FromByte(raw[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s &%s, %s", name, from, to), nil
	case opcode.LitReg:
		reg, err := register.FromByte(raw[1])
		if err != nil {
			return "", err
		}
		lit := word.FromBytes(raw[2], raw[3])
		return fmt.Sprintf("%s %s, $%s", name, reg, hex(lit)), nil
	case opcode.RegMem:
		addr := word.FromBytes(raw[1], raw[2])
		reg, err := register.FromByte(raw[3])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s &[%s], %s", name, hex(addr), reg), nil
	case opcode.MemReg:
		addr := word.FromBytes(raw[1], raw[2])
		reg, err := register.FromByte(raw[3])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s &[%s], %s", name, hex(addr), reg), nil
	case opcode.LitMem:
		addr := word.FromBytes(raw[1], raw[2])
		lit := word.FromBytes(raw[3], raw[4])
		return fmt.Sprintf("%s &[%s], $%s", name, hex(addr), hex(lit)), nil
	default:
		return "", fmt.Errorf("unhandled kind %v", kind)
	}
}

func hex(w word.Word) string {
	return fmt.Sprintf("%04X", uint16(w))
}

// Render formats lines the way cmd/aya disasm prints them: offset, raw
// bytes, and colorized mnemonic text, one instruction per line.
func Render(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s  %-12s  %s\n",
			offsetColor.Sprintf("%04X", l.Offset),
			rawHex(l.Raw),
			colorize(l.Text))
	}
	return b.String()
}

func rawHex(raw []byte) string {
	var b strings.Builder
	for i, r := range raw {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", r)
	}
	return b.String()
}

// colorize re-tokenizes a rendered line to colorize its mnemonic, registers,
// and literals/addresses independently, rather than threading color state
// through render's fmt.Sprintf calls.
func colorize(text string) string {
	fields := strings.SplitN(text, " ", 2)
	out := mnemonicColor.Sprint(fields[0])
	if len(fields) == 1 {
		return out
	}
	rest := fields[1]
	var colored strings.Builder
	for _, tok := range strings.FieldsFunc(rest, func(r rune) bool { return r == ',' }) {
		tok = strings.TrimSpace(tok)
		if colored.Len() > 0 {
			colored.WriteString(", ")
		}
		switch {
		case strings.HasPrefix(tok, "$"):
			colored.WriteString(litColor.Sprint(tok))
		case strings.HasPrefix(tok, "&"):
			colored.WriteString(addrColor.Sprint(tok))
		default:
			colored.WriteString(regColor.Sprint(tok))
		}
	}
	return out + " " + colored.String()
}
