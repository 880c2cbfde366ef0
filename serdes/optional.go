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

type optionalCodec[T any] struct{ inner Codec[T] }

// Optional returns the codec for an optional field outside a TLV structure.
// Non-TLV optionals add nothing on the wire: the inner layout is used as-is
// and the value must be present. Encoding a nil pointer is a contract
// violation; absence is only representable through TLV tagging, where a
// missing tag stands for a missing field.
func Optional[T any](inner Codec[T]) Codec[*T] {
	return optionalCodec[T]{inner}
}

func (c optionalCodec[T]) Encode(w *Writer, v *T) {
	if v == nil {
		fatalf("nil optional outside a TLV structure cannot be represented on the wire")
	}
	c.inner.Encode(w, *v)
}

func (c optionalCodec[T]) Decode(r *Reader) (*T, bool) {
	t, ok := c.inner.Decode(r)
	if !ok {
		return nil, false
	}
	return &t, true
}

func (c optionalCodec[T]) StaticSize() (int, bool) { return c.inner.StaticSize() }
