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

// WireType classifies a TLV field's payload shape: a fixed-width primitive
// or a length-delimited value with a given length-field width.
type WireType uint8

const (
	WireTypeFixed8   WireType = 0 // 1-byte payload
	WireTypeFixed16  WireType = 1 // 2-byte payload
	WireTypeFixed32  WireType = 2 // 4-byte payload
	WireTypeFixed64  WireType = 3 // 8-byte payload
	WireTypeComplex  WireType = 4 // payload size fixed by the data definition
	WireTypeLength8  WireType = 5 // 1-byte length field ahead of the payload
	WireTypeLength16 WireType = 6 // 2-byte length field ahead of the payload
	WireTypeLength32 WireType = 7 // 4-byte length field ahead of the payload
)

// maxDataID is the largest data id representable in the 12-bit tag field.
const maxDataID = 0x0FFF

// Tag is the 2-byte TLV field tag: a 3-bit wire type and a 12-bit data id.
// Byte 0 carries the wire type in its high nibble (top bit zero) and the
// data id's high nibble; byte 1 carries the data id's low byte.
type Tag struct {
	WireType WireType
	DataID   uint16
}

func (t Tag) encode(w *Writer) {
	w.WriteUint8(uint8(t.WireType&0x07)<<4 | uint8(t.DataID>>8)&0x0F)
	w.WriteUint8(uint8(t.DataID))
}

// readTag consumes a 2-byte tag. Callers must VerifySize(2) first.
func readTag(r *Reader) Tag {
	b0 := r.ReadUint8()
	b1 := r.ReadUint8()
	return Tag{
		WireType: WireType(b0 >> 4 & 0x07),
		DataID:   uint16(b0&0x0F)<<8 | uint16(b1),
	}
}

type taggedCodec[T any] struct {
	bo    binary.ByteOrder
	tag   Tag
	lf    LengthField
	inner Codec[T]
}

// Tagged wraps a codec as a TLV field with the given data id. The wire type
// is derived from the inner layout: statically sized payloads of 1, 2, 4 or
// 8 bytes with no length field use the fixed wire types; length-delimited
// fields (lf of 1, 2 or 4) use the corresponding length wire type; any other
// statically sized payload uses the complex wire type. A dynamically sized
// inner codec with no length field is a configuration error.
func Tagged[T any](conf Config, dataID uint16, lf LengthField, inner Codec[T]) Codec[T] {
	if dataID > maxDataID {
		fatalf("TLV data id %#x exceeds 12 bits", dataID)
	}
	if !lf.valid() {
		fatalf("invalid length field width %d", lf)
	}
	wt, ok := deriveWireType(lf, inner)
	if !ok {
		fatalf("TLV field %#x is dynamically sized but has no length field", dataID)
	}
	return taggedCodec[T]{
		bo:    conf.byteOrder(),
		tag:   Tag{WireType: wt, DataID: dataID},
		lf:    lf,
		inner: inner,
	}
}

func deriveWireType[T any](lf LengthField, inner Codec[T]) (WireType, bool) {
	switch lf {
	case LengthField8:
		return WireTypeLength8, true
	case LengthField16:
		return WireTypeLength16, true
	case LengthField32:
		return WireTypeLength32, true
	}
	n, static := inner.StaticSize()
	if !static {
		return 0, false
	}
	switch n {
	case 1:
		return WireTypeFixed8, true
	case 2:
		return WireTypeFixed16, true
	case 4:
		return WireTypeFixed32, true
	case 8:
		return WireTypeFixed64, true
	}
	return WireTypeComplex, true
}

func (c taggedCodec[T]) Encode(w *Writer, v T) {
	c.tag.encode(w)
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		c.inner.Encode(w, v)
	})
}

func (c taggedCodec[T]) Decode(r *Reader) (T, bool) {
	var zero T
	if !r.VerifySize(2) {
		return zero, false
	}
	if tag := readTag(r); tag != c.tag {
		return zero, false
	}
	var out T
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		v, ok := c.inner.Decode(r)
		if !ok {
			return false
		}
		out = v
		return true
	})
	if !ok {
		return zero, false
	}
	return out, true
}

// TLV fields are never statically sized from the outside: presence itself
// is optional in a sparse structure.
func (taggedCodec[T]) StaticSize() (int, bool) { return 0, false }

// DecodeTLVStruct walks the tag/value pairs of a sparse TLV structure,
// invoking field once per tag. For the self-describing wire types the value
// reader is bounded to exactly the field's payload, so field may leave an
// unknown tag's value unread to skip it. Complex wire-type payloads are not
// self-describing; field receives the outer reader and must either consume
// the payload exactly (it knows the static size from the data definition) or
// return false. Returns false on any truncated or malformed field.
func DecodeTLVStruct(conf Config, r *Reader, field func(tag Tag, value *Reader) bool) bool {
	bo := conf.byteOrder()
	for r.Remaining() > 0 {
		if !r.VerifySize(2) {
			return false
		}
		tag := readTag(r)
		var value *Reader
		switch tag.WireType {
		case WireTypeFixed8, WireTypeFixed16, WireTypeFixed32, WireTypeFixed64:
			n := 1 << (tag.WireType & 0x03)
			if !r.VerifySize(n) {
				return false
			}
			value = r.Sub(n)
		case WireTypeLength8, WireTypeLength16, WireTypeLength32:
			lf := LengthField(1 << (tag.WireType - WireTypeLength8))
			if !r.VerifySize(int(lf)) {
				return false
			}
			n := int(readLength(r, bo, lf))
			if !r.VerifySize(n) {
				return false
			}
			value = r.Sub(n)
		case WireTypeComplex:
			value = r
		default:
			return false
		}
		if !field(tag, value) {
			return false
		}
	}
	return true
}
