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

// Writer is a bounds-checked cursor over a caller-owned byte span, typically
// a slice of a ring buffer's free region. It owns no memory and must not
// outlive the span backing it. Every primitive write panics if it would run
// past the span: the caller is responsible for sizing the buffer, and an
// overrun is a programming error, not a recoverable condition.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns a Writer positioned at the start of buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Position returns the number of bytes written so far.
func (w *Writer) Position() int { return w.pos }

// Remaining returns the number of bytes still writable.
func (w *Writer) Remaining() int { return len(w.buf) - w.pos }

// Bytes returns the written prefix of the underlying span.
func (w *Writer) Bytes() []byte { return w.buf[:w.pos] }

func (w *Writer) need(n int) {
	if w.Remaining() < n {
		fatalf("writer overrun: need %d bytes, %d remaining", n, w.Remaining())
	}
}

// Reserve advances the cursor past n bytes and returns them for later
// backpatching (length fields are written this way).
func (w *Writer) Reserve(n int) []byte {
	w.need(n)
	s := w.buf[w.pos : w.pos+n]
	w.pos += n
	return s
}

// WriteBytes copies p into the span.
func (w *Writer) WriteBytes(p []byte) {
	w.need(len(p))
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.need(1)
	w.buf[w.pos] = v
	w.pos++
}

// WriteBool writes a bool as one byte, 0 or 1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteUint16 writes v in the given byte order.
func (w *Writer) WriteUint16(bo binary.ByteOrder, v uint16) {
	w.need(2)
	bo.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

// WriteUint32 writes v in the given byte order.
func (w *Writer) WriteUint32(bo binary.ByteOrder, v uint32) {
	w.need(4)
	bo.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

// WriteUint64 writes v in the given byte order.
func (w *Writer) WriteUint64(bo binary.ByteOrder, v uint64) {
	w.need(8)
	bo.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
}
