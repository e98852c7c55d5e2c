package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for op := range kinds {
		decoded, err := FromByte(byte(op))
		require.NoError(t, err)
		require.Equal(t, op, decoded)
	}
}

func TestKindByteSizeIsConsistent(t *testing.T) {
	cases := map[Kind]int{
		NoArgs: 1, SingleReg: 2, RegReg: 3, RegPtrReg: 3, SingleLit: 3,
		LitReg: 4, RegMem: 4, MemReg: 4, LitMem: 5, haltKind: 2,
	}
	for k, want := range cases {
		require.Equal(t, want, k.ByteSize())
	}
}

func TestHaltIsTwoBytes(t *testing.T) {
	k, err := Halt.Kind()
	require.NoError(t, err)
	require.Equal(t, 2, k.ByteSize())
}

func TestUnknownOpcodeByte(t *testing.T) {
	_, err := FromByte(0x00)
	require.Error(t, err)
}

func TestLookupResolvesMovFamily(t *testing.T) {
	op, ok := Lookup("mov", RegReg)
	require.True(t, ok)
	require.Equal(t, MovRegReg, op)

	op, ok = Lookup("mov", LitReg)
	require.True(t, ok)
	require.Equal(t, MovLitReg, op)
}

func TestIsJump(t *testing.T) {
	require.True(t, IsJump(Jmp))
	require.True(t, IsJump(JleLit))
	require.False(t, IsJump(Halt))
}
