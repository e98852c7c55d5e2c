package word

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextOverflow(t *testing.T) {
	_, err := Max.Next()
	require.ErrorIs(t, err, ErrOverflow)

	v, err := Word(0x1234).Next()
	require.NoError(t, err)
	require.Equal(t, Word(0x1235), v)
}

func TestNextWordOverflow(t *testing.T) {
	_, err := Word(0xFFFE).NextWord()
	require.ErrorIs(t, err, ErrOverflow)

	v, err := Word(0xFFFD).NextWord()
	require.NoError(t, err)
	require.Equal(t, Word(0xFFFF), v)
}

func TestPrevUnderflow(t *testing.T) {
	_, err := Min.Prev()
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestPrevWordUnderflow(t *testing.T) {
	_, err := Word(0x0001).PrevWord()
	require.ErrorIs(t, err, ErrUnderflow)

	v, err := Word(0x0002).PrevWord()
	require.NoError(t, err)
	require.Equal(t, Word(0), v)
}

func TestBytesRoundTrip(t *testing.T) {
	w := Word(0x1234)
	lo, hi := w.Bytes()
	require.Equal(t, byte(0x34), lo)
	require.Equal(t, byte(0x12), hi)
	require.Equal(t, w, FromBytes(lo, hi))
}
