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

type fixedArrayCodec[T any] struct {
	bo    binary.ByteOrder
	lf    LengthField
	elem  Codec[T]
	count int
}

// FixedArray returns the codec for an array of exactly count elements.
// Fixed arrays are the only container category allowed to omit the length
// field (lf may be LengthFieldNone); without one, the array is statically
// sized iff its element type is.
func FixedArray[T any](conf Config, lf LengthField, elem Codec[T], count int) Codec[[]T] {
	if !lf.valid() {
		fatalf("invalid length field width %d", lf)
	}
	if count < 0 {
		fatalf("negative array count %d", count)
	}
	return fixedArrayCodec[T]{bo: conf.byteOrder(), lf: lf, elem: elem, count: count}
}

func (c fixedArrayCodec[T]) Encode(w *Writer, v []T) {
	if len(v) != c.count {
		fatalf("fixed array of %d elements encoded with %d", c.count, len(v))
	}
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		for i := range v {
			c.elem.Encode(w, v[i])
		}
	})
}

func (c fixedArrayCodec[T]) Decode(r *Reader) ([]T, bool) {
	var out []T
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		out = make([]T, 0, c.count)
		for i := 0; i < c.count; i++ {
			e, ok := c.elem.Decode(r)
			if !ok {
				return false
			}
			out = append(out, e)
		}
		// A declared length longer than count elements is malformed.
		return c.lf == LengthFieldNone || r.Remaining() == 0
	})
	if !ok {
		return nil, false
	}
	return out, true
}

func (c fixedArrayCodec[T]) StaticSize() (int, bool) {
	if c.lf != LengthFieldNone {
		return 0, false
	}
	n, ok := c.elem.StaticSize()
	if !ok {
		return 0, false
	}
	return n * c.count, true
}

type listCodec[T any] struct {
	bo   binary.ByteOrder
	lf   LengthField
	elem Codec[T]
}

// List returns the codec for a dynamically sized sequence. Lists always
// carry a length field; configuring one without is a contract violation.
func List[T any](conf Config, lf LengthField, elem Codec[T]) Codec[[]T] {
	if !lf.valid() || lf == LengthFieldNone {
		fatalf("list requires a length field, got width %d", lf)
	}
	return listCodec[T]{bo: conf.byteOrder(), lf: lf, elem: elem}
}

func (c listCodec[T]) Encode(w *Writer, v []T) {
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		for i := range v {
			c.elem.Encode(w, v[i])
		}
	})
}

func (c listCodec[T]) Decode(r *Reader) ([]T, bool) {
	var out []T
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		for r.Remaining() > 0 {
			e, ok := c.elem.Decode(r)
			if !ok {
				return false
			}
			out = append(out, e)
		}
		return true
	})
	if !ok {
		return nil, false
	}
	return out, true
}

func (listCodec[T]) StaticSize() (int, bool) { return 0, false }

// MapEntry is one key/value pair of an ordered map. The wire format
// preserves entry order, so maps are transported as entry slices rather
// than Go maps.
type MapEntry[K comparable, V any] struct {
	Key   K
	Value V
}

type mapCodec[K comparable, V any] struct {
	bo  binary.ByteOrder
	lf  LengthField
	key Codec[K]
	val Codec[V]
}

// Map returns the codec for an ordered map. Maps always carry a length
// field.
func Map[K comparable, V any](conf Config, lf LengthField, key Codec[K], val Codec[V]) Codec[[]MapEntry[K, V]] {
	if !lf.valid() || lf == LengthFieldNone {
		fatalf("map requires a length field, got width %d", lf)
	}
	return mapCodec[K, V]{bo: conf.byteOrder(), lf: lf, key: key, val: val}
}

func (c mapCodec[K, V]) Encode(w *Writer, v []MapEntry[K, V]) {
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		for i := range v {
			c.key.Encode(w, v[i].Key)
			c.val.Encode(w, v[i].Value)
		}
	})
}

func (c mapCodec[K, V]) Decode(r *Reader) ([]MapEntry[K, V], bool) {
	var out []MapEntry[K, V]
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		for r.Remaining() > 0 {
			k, ok := c.key.Decode(r)
			if !ok {
				return false
			}
			v, ok := c.val.Decode(r)
			if !ok {
				return false
			}
			out = append(out, MapEntry[K, V]{Key: k, Value: v})
		}
		return true
	})
	if !ok {
		return nil, false
	}
	return out, true
}

func (mapCodec[K, V]) StaticSize() (int, bool) { return 0, false }
