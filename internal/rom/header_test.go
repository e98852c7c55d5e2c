package rom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackLoadRoundTrip(t *testing.T) {
	code := []byte{0x11, 0x02, 0x03, 0x00, 0xFF, 0x00}
	sprites := []byte{0xAB, 0xCD, 0xEF}

	data, err := Pack("demo", code, sprites)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+len(code)+len(sprites))

	img, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, "demo", img.Header.Name)
	require.Equal(t, uint16(1), uint16(img.Header.Version))
	require.Equal(t, uint16(CodeOffset), img.Header.CodeOffset)
	require.Equal(t, code, img.Code)
	require.Equal(t, sprites, img.Sprites)
}

func TestPackRejectsNameTooLong(t *testing.T) {
	name := make([]byte, 64)
	for i := range name {
		name[i] = 'a'
	}
	_, err := Pack(string(name), nil, nil)
	require.ErrorIs(t, err, ErrNameTooLong)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data, err := Pack("x", nil, nil)
	require.NoError(t, err)
	data[0] = 'B'
	_, err = Load(data)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestLoadRejectsBadVersion(t *testing.T) {
	data, err := Pack("x", nil, nil)
	require.NoError(t, err)
	data[4] = 2
	_, err = Load(data)
	require.ErrorIs(t, err, ErrBadVersion)
}

func TestLoadRejectsBadCodeOffset(t *testing.T) {
	data, err := Pack("x", nil, nil)
	require.NoError(t, err)
	data[0x44] = 0x00
	_, err = Load(data)
	require.ErrorIs(t, err, ErrBadCodeOffset)
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	data, err := Pack("x", []byte{1, 2, 3, 4}, []byte{5, 6})
	require.NoError(t, err)
	_, err = Load(data[:len(data)-1])
	require.ErrorIs(t, err, ErrTruncated)
}

func TestLoadRejectsTooShortForHeader(t *testing.T) {
	_, err := Load(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, ErrTruncated)
}
