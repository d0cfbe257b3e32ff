// Package binary reads and writes the fixed little-endian layouts used by
// native Solana programs, where COption fields carry a 4 byte tag.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// OptionTagSize is the width of a COption discriminant.
const OptionTagSize = 4

// Writer fills a fixed-size account buffer front to back.
type Writer struct {
	buf []byte
	off int
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

func (w *Writer) Key(key ed25519.PublicKey) {
	copy(w.buf[w.off:], key)
	w.off += ed25519.PublicKeySize
}

// OptionalKey writes a COption<Pubkey>. A nil or empty key is None.
func (w *Writer) OptionalKey(key ed25519.PublicKey) {
	if len(key) > 0 {
		w.buf[w.off] = 1
		copy(w.buf[w.off+OptionTagSize:], key)
	}
	w.off += OptionTagSize + ed25519.PublicKeySize
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *Writer) OptionalUint64(v *uint64) {
	if v != nil {
		w.buf[w.off] = 1
		binary.LittleEndian.PutUint64(w.buf[w.off+OptionTagSize:], *v)
	}
	w.off += OptionTagSize + 8
}

func (w *Writer) Uint8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader walks a buffer written by Writer. Callers check the total length
// up front; individual reads do not bounds check beyond what slicing does.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Key() ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, r.buf[r.off:])
	r.off += ed25519.PublicKeySize
	return key
}

// OptionalKey returns nil for None.
func (r *Reader) OptionalKey() ed25519.PublicKey {
	tag := r.buf[r.off]
	r.off += OptionTagSize
	if tag != 1 {
		r.off += ed25519.PublicKeySize
		return nil
	}
	return r.Key()
}

func (r *Reader) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *Reader) OptionalUint64() *uint64 {
	tag := r.buf[r.off]
	r.off += OptionTagSize
	v := r.Uint64()
	if tag != 1 {
		return nil
	}
	return &v
}

func (r *Reader) Uint8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *Reader) Bool() bool {
	return r.Uint8() == 1
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}
