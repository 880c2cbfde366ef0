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

type structCodec[T any] struct {
	bo     binary.ByteOrder
	lf     LengthField
	static int // -1 when dynamically sized
	enc    func(*Writer, T)
	dec    func(*Reader) (T, bool)
}

// StructOf adapts per-type field serializers (typically generated code) into
// a codec for a user-defined structure, wrapping them with an optional
// length field. static is the structure's fixed serialized size, or a
// negative value when the size depends on the value; a struct is only
// reported statically sized when it also has no length field.
func StructOf[T any](conf Config, lf LengthField, static int, enc func(*Writer, T), dec func(*Reader) (T, bool)) Codec[T] {
	if !lf.valid() {
		fatalf("invalid length field width %d", lf)
	}
	if enc == nil || dec == nil {
		fatalf("struct codec requires both an encoder and a decoder")
	}
	if static < 0 {
		static = -1
	}
	return structCodec[T]{bo: conf.byteOrder(), lf: lf, static: static, enc: enc, dec: dec}
}

func (c structCodec[T]) Encode(w *Writer, v T) {
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		c.enc(w, v)
	})
}

func (c structCodec[T]) Decode(r *Reader) (T, bool) {
	var out T
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		v, ok := c.dec(r)
		if !ok {
			return false
		}
		out = v
		return true
	})
	if !ok {
		var zero T
		return zero, false
	}
	return out, true
}

func (c structCodec[T]) StaticSize() (int, bool) {
	if c.lf != LengthFieldNone || c.static < 0 {
		return 0, false
	}
	return c.static, true
}
