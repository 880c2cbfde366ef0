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

// Length-field framework. Encoding reserves the prefix, runs the inner
// serializer, then backpatches the observed byte count. Decoding reads the
// prefix and hands the inner decoder a sub-reader bounded to exactly that
// many bytes, which is what makes truncated or malicious input safe: the
// inner decoder cannot see a single byte past the declared length.

// encodeWithLength wraps body's output with a length prefix of width lf.
// A measured payload that does not fit the configured width panics: the wire
// format has no way to signal oversize to the peer, so a mis-sized buffer
// against a mis-sized field is a system-design error caught at serialization
// time.
func encodeWithLength(w *Writer, bo binary.ByteOrder, lf LengthField, body func(*Writer)) {
	if lf == LengthFieldNone {
		body(w)
		return
	}
	prefix := w.Reserve(int(lf))
	start := w.Position()
	body(w)
	n := uint64(w.Position() - start)
	if n > lf.maxPayload() {
		fatalf("payload of %d bytes exceeds %d-byte length field", n, lf)
	}
	putLength(prefix, bo, lf, n)
}

// decodeWithLength reads the length prefix and runs body against a reader
// bounded to the declared payload. Insufficient input is an ordinary decode
// failure.
func decodeWithLength(r *Reader, bo binary.ByteOrder, lf LengthField, body func(*Reader) bool) bool {
	if lf == LengthFieldNone {
		return body(r)
	}
	if !r.VerifySize(int(lf)) {
		return false
	}
	n := int(readLength(r, bo, lf))
	if !r.VerifySize(n) {
		return false
	}
	return body(r.Sub(n))
}

func putLength(dst []byte, bo binary.ByteOrder, lf LengthField, n uint64) {
	switch lf {
	case LengthField8:
		dst[0] = uint8(n)
	case LengthField16:
		bo.PutUint16(dst, uint16(n))
	case LengthField32:
		bo.PutUint32(dst, uint32(n))
	default:
		fatalf("length field width %d", lf)
	}
}

func readLength(r *Reader, bo binary.ByteOrder, lf LengthField) uint64 {
	switch lf {
	case LengthField8:
		return uint64(r.ReadUint8())
	case LengthField16:
		return uint64(r.ReadUint16(bo))
	case LengthField32:
		return uint64(r.ReadUint32(bo))
	default:
		fatalf("length field width %d", lf)
		panic("unreachable")
	}
}
