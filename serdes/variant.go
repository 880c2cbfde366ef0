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

// Variant is a tagged union value: Index selects one of the alternatives the
// codec was configured with (zero-based) and Value holds that alternative.
//
// On the wire the selector transmits as Index+1; selector zero is reserved
// to mean "no value selected" and always fails decoding. The offset is part
// of the wire format that peers depend on, not an off-by-one.
type Variant struct {
	Index int
	Value any
}

// Alternative adapts one typed codec into a variant's dispatch table.
type Alternative interface {
	encodeAny(w *Writer, v any)
	decodeAny(r *Reader) (any, bool)
}

type altCodec[T any] struct{ c Codec[T] }

// Alt wraps a codec as one alternative of a variant.
func Alt[T any](c Codec[T]) Alternative { return altCodec[T]{c} }

func (a altCodec[T]) encodeAny(w *Writer, v any) {
	t, ok := v.(T)
	if !ok {
		fatalf("variant value %T does not match configured alternative", v)
	}
	a.c.Encode(w, t)
}

func (a altCodec[T]) decodeAny(r *Reader) (any, bool) {
	t, ok := a.c.Decode(r)
	if !ok {
		return nil, false
	}
	return t, true
}

type variantCodec struct {
	bo       binary.ByteOrder
	lf       LengthField
	selWidth int
	alts     []Alternative
}

// VariantOf returns the codec for a tagged union over the given
// alternatives. selectorWidth is the selector's wire width in bytes (1, 2 or
// 4). Variants always carry a length field; its value covers the selector
// and the payload.
func VariantOf(conf Config, lf LengthField, selectorWidth int, alts ...Alternative) Codec[Variant] {
	if !lf.valid() || lf == LengthFieldNone {
		fatalf("variant requires a length field, got width %d", lf)
	}
	if selectorWidth != 1 && selectorWidth != 2 && selectorWidth != 4 {
		fatalf("variant selector width %d", selectorWidth)
	}
	if len(alts) == 0 {
		fatalf("variant with no alternatives")
	}
	// The highest selector is len(alts); it must fit the wire width or
	// Encode would truncate it, possibly down to the reserved zero.
	if maxSel := uint64(1)<<(8*selectorWidth) - 1; uint64(len(alts)) > maxSel {
		fatalf("%d alternatives exceed %d-byte selector range %d", len(alts), selectorWidth, maxSel)
	}
	return variantCodec{bo: conf.byteOrder(), lf: lf, selWidth: selectorWidth, alts: alts}
}

func (c variantCodec) Encode(w *Writer, v Variant) {
	if v.Index < 0 || v.Index >= len(c.alts) {
		fatalf("variant index %d out of range [0,%d)", v.Index, len(c.alts))
	}
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		c.writeSelector(w, uint32(v.Index+1))
		c.alts[v.Index].encodeAny(w, v.Value)
	})
}

func (c variantCodec) Decode(r *Reader) (Variant, bool) {
	var out Variant
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		if !r.VerifySize(c.selWidth) {
			return false
		}
		sel := c.readSelector(r)
		// Selector zero is reserved; anything past the configured
		// alternatives comes from an untrusted peer and fails the decode.
		if sel == 0 || sel > uint32(len(c.alts)) {
			return false
		}
		v, ok := c.alts[sel-1].decodeAny(r)
		if !ok {
			return false
		}
		out = Variant{Index: int(sel - 1), Value: v}
		return true
	})
	if !ok {
		return Variant{}, false
	}
	return out, true
}

func (c variantCodec) writeSelector(w *Writer, sel uint32) {
	switch c.selWidth {
	case 1:
		w.WriteUint8(uint8(sel))
	case 2:
		w.WriteUint16(c.bo, uint16(sel))
	case 4:
		w.WriteUint32(c.bo, sel)
	}
}

func (c variantCodec) readSelector(r *Reader) uint32 {
	switch c.selWidth {
	case 1:
		return uint32(r.ReadUint8())
	case 2:
		return uint32(r.ReadUint16(c.bo))
	default:
		return r.ReadUint32(c.bo)
	}
}

func (variantCodec) StaticSize() (int, bool) { return 0, false }
