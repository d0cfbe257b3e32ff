// Package shortvec implements the compact-u16 length prefix used throughout
// the Solana wire format: seven bits per byte, low bits first, at most three
// bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedSize = 3

// EncodeLen writes n as a compact-u16 and returns the number of bytes written.
func EncodeLen(w io.ByteWriter, n int) (int, error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, errors.Errorf("length %d does not fit in a compact-u16", n)
	}

	var written int
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}

		if err := w.WriteByte(b); err != nil {
			return written, err
		}
		written++

		if n == 0 {
			return written, nil
		}
	}
}

// DecodeLen reads a compact-u16.
func DecodeLen(r io.ByteReader) (int, error) {
	var n int
	for i := 0; i < maxEncodedSize; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		n |= int(b&0x7f) << (7 * i)
		if b&0x80 != 0 {
			continue
		}

		if n > math.MaxUint16 {
			return 0, errors.Errorf("decoded length %d overflows a compact-u16", n)
		}
		return n, nil
	}

	return 0, errors.Errorf("compact-u16 longer than %d bytes", maxEncodedSize)
}
