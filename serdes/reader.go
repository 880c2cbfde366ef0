/*
 *
 * Copyright 2026 the hostipc authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package serdes

import "encoding/binary"

// Reader is a bounds-checked cursor over a borrowed immutable byte span.
// Decoders call VerifySize before consuming, so the primitive accessors treat
// an overrun as a contract violation and panic; untrusted input is made safe
// by Sub, which physically limits an inner decoder to its declared length.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of bytes left to read.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// VerifySize reports whether at least n more bytes are available.
func (r *Reader) VerifySize(n int) bool {
	return n >= 0 && r.Remaining() >= n
}

func (r *Reader) need(n int) {
	if r.Remaining() < n {
		fatalf("reader overrun: need %d bytes, %d remaining", n, r.Remaining())
	}
}

// Sub consumes the next n bytes and returns a Reader bounded to exactly that
// window. An inner decoder handed the sub-reader cannot read past the length
// its container declared. Callers must VerifySize(n) first.
func (r *Reader) Sub(n int) *Reader {
	r.need(n)
	s := &Reader{buf: r.buf[r.pos : r.pos+n]}
	r.pos += n
	return s
}

// ReadBytes consumes n bytes and returns them. The result aliases the
// underlying span.
func (r *Reader) ReadBytes(n int) []byte {
	r.need(n)
	s := r.buf[r.pos : r.pos+n]
	r.pos += n
	return s
}

// ReadUint8 consumes a single byte.
func (r *Reader) ReadUint8() uint8 {
	r.need(1)
	v := r.buf[r.pos]
	r.pos++
	return v
}

// ReadBool consumes one byte; any nonzero value decodes as true.
func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

// ReadUint16 consumes two bytes in the given byte order.
func (r *Reader) ReadUint16(bo binary.ByteOrder) uint16 {
	r.need(2)
	v := bo.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

// ReadUint32 consumes four bytes in the given byte order.
func (r *Reader) ReadUint32(bo binary.ByteOrder) uint32 {
	r.need(4)
	v := bo.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// ReadUint64 consumes eight bytes in the given byte order.
func (r *Reader) ReadUint64(bo binary.ByteOrder) uint64 {
	r.need(8)
	v := bo.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}
