package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("mov r1")
	first, err := l.Peek()
	require.NoError(t, err)
	again, err := l.Peek()
	require.NoError(t, err)
	require.Equal(t, first, again)

	consumed, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, first, consumed)
}

func TestPunctuation(t *testing.T) {
	l := New("+-*!&[](){}:=,.")
	want := []Kind{Plus, Minus, Star, Bang, Amp, LBracket, RBracket, LParen, RParen, LBrace, RBrace, Colon, Equals, Comma, Dot}
	for _, k := range want {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, k, tok.Kind)
	}
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, Eof, tok.Kind)
}

func TestHexNumber(t *testing.T) {
	l := New("$0042 $FFff")
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, HexNumber, tok.Kind)
	require.Equal(t, "$0042", tok.Span.Slice(l.Source()))

	tok, err = l.Next()
	require.NoError(t, err)
	require.Equal(t, HexNumber, tok.Kind)
	require.Equal(t, "$FFff", tok.Span.Slice(l.Source()))
}

func TestCommentsAreIgnored(t *testing.T) {
	a := New("mov r1 ; comment\nr2")
	b := New("mov r1\nr2")

	for {
		ta, erra := a.Next()
		tb, errb := b.Next()
		require.NoError(t, erra)
		require.NoError(t, errb)
		require.Equal(t, ta.Kind, tb.Kind)
		if ta.Kind == Eof {
			break
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New("\"hello\nworld\"")
	_, err := l.Next()
	require.Error(t, err)
}

func TestTerminatedString(t *testing.T) {
	l := New(`"hello"`)
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, String, tok.Kind)
	require.Equal(t, `"hello"`, tok.Span.Slice(l.Source()))
}

func TestIdentifier(t *testing.T) {
	l := New("const data8 import mov label_1")
	for i := 0; i < 5; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, Ident, tok.Kind)
	}
}
