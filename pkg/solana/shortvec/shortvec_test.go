package shortvec

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLen_KnownEncodings(t *testing.T) {
	for _, tc := range []struct {
		n       int
		encoded []byte
	}{
		{0x0, []byte{0x0}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0xff, []byte{0xff, 0x01}},
		{0x100, []byte{0x80, 0x02}},
		{0x3fff, []byte{0xff, 0x7f}},
		{0x4000, []byte{0x80, 0x80, 0x01}},
		{0xffff, []byte{0xff, 0xff, 0x03}},
	} {
		var buf bytes.Buffer
		written, err := EncodeLen(&buf, tc.n)
		require.NoError(t, err)
		assert.Equal(t, len(tc.encoded), written)
		assert.Equal(t, tc.encoded, buf.Bytes())

		decoded, err := DecodeLen(bytes.NewReader(tc.encoded))
		require.NoError(t, err)
		assert.Equal(t, tc.n, decoded)
	}
}

func TestLen_AllValues(t *testing.T) {
	var buf bytes.Buffer
	for n := 0; n <= math.MaxUint16; n++ {
		buf.Reset()
		_, err := EncodeLen(&buf, n)
		require.NoError(t, err)

		decoded, err := DecodeLen(&buf)
		require.NoError(t, err)
		require.Equal(t, n, decoded)
	}
}

func TestLen_Invalid(t *testing.T) {
	_, err := EncodeLen(&bytes.Buffer{}, math.MaxUint16+1)
	assert.Error(t, err)

	_, err = EncodeLen(&bytes.Buffer{}, -1)
	assert.Error(t, err)

	_, err = DecodeLen(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x01}))
	assert.Error(t, err)

	_, err = DecodeLen(bytes.NewReader([]byte{0xff, 0xff, 0x04}))
	assert.Error(t, err)

	_, err = DecodeLen(bytes.NewReader([]byte{0x80}))
	assert.ErrorIs(t, err, io.EOF)
}
