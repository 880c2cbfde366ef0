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

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Primitive codecs. None of these carries a length field; their static size
// is the wire width (bool is forced to one byte).

type boolCodec struct{}

// Bool returns the codec for bool, one byte on the wire.
func Bool() Codec[bool] { return boolCodec{} }

func (boolCodec) Encode(w *Writer, v bool) { w.WriteBool(v) }

func (boolCodec) Decode(r *Reader) (bool, bool) {
	if !r.VerifySize(1) {
		return false, false
	}
	return r.ReadBool(), true
}

func (boolCodec) StaticSize() (int, bool) { return 1, true }

type uint8Codec struct{}

// Uint8 returns the codec for uint8.
func Uint8() Codec[uint8] { return uint8Codec{} }

func (uint8Codec) Encode(w *Writer, v uint8) { w.WriteUint8(v) }

func (uint8Codec) Decode(r *Reader) (uint8, bool) {
	if !r.VerifySize(1) {
		return 0, false
	}
	return r.ReadUint8(), true
}

func (uint8Codec) StaticSize() (int, bool) { return 1, true }

type uint16Codec struct{ bo binary.ByteOrder }

// Uint16 returns the codec for uint16 in the configured byte order.
func Uint16(conf Config) Codec[uint16] { return uint16Codec{conf.byteOrder()} }

func (c uint16Codec) Encode(w *Writer, v uint16) { w.WriteUint16(c.bo, v) }

func (c uint16Codec) Decode(r *Reader) (uint16, bool) {
	if !r.VerifySize(2) {
		return 0, false
	}
	return r.ReadUint16(c.bo), true
}

func (uint16Codec) StaticSize() (int, bool) { return 2, true }

type uint32Codec struct{ bo binary.ByteOrder }

// Uint32 returns the codec for uint32 in the configured byte order.
func Uint32(conf Config) Codec[uint32] { return uint32Codec{conf.byteOrder()} }

func (c uint32Codec) Encode(w *Writer, v uint32) { w.WriteUint32(c.bo, v) }

func (c uint32Codec) Decode(r *Reader) (uint32, bool) {
	if !r.VerifySize(4) {
		return 0, false
	}
	return r.ReadUint32(c.bo), true
}

func (uint32Codec) StaticSize() (int, bool) { return 4, true }

type uint64Codec struct{ bo binary.ByteOrder }

// Uint64 returns the codec for uint64 in the configured byte order.
func Uint64(conf Config) Codec[uint64] { return uint64Codec{conf.byteOrder()} }

func (c uint64Codec) Encode(w *Writer, v uint64) { w.WriteUint64(c.bo, v) }

func (c uint64Codec) Decode(r *Reader) (uint64, bool) {
	if !r.VerifySize(8) {
		return 0, false
	}
	return r.ReadUint64(c.bo), true
}

func (uint64Codec) StaticSize() (int, bool) { return 8, true }

type int8Codec struct{}

// Int8 returns the codec for int8.
func Int8() Codec[int8] { return int8Codec{} }

func (int8Codec) Encode(w *Writer, v int8) { w.WriteUint8(uint8(v)) }

func (int8Codec) Decode(r *Reader) (int8, bool) {
	if !r.VerifySize(1) {
		return 0, false
	}
	return int8(r.ReadUint8()), true
}

func (int8Codec) StaticSize() (int, bool) { return 1, true }

type int16Codec struct{ bo binary.ByteOrder }

// Int16 returns the codec for int16 in the configured byte order.
func Int16(conf Config) Codec[int16] { return int16Codec{conf.byteOrder()} }

func (c int16Codec) Encode(w *Writer, v int16) { w.WriteUint16(c.bo, uint16(v)) }

func (c int16Codec) Decode(r *Reader) (int16, bool) {
	if !r.VerifySize(2) {
		return 0, false
	}
	return int16(r.ReadUint16(c.bo)), true
}

func (int16Codec) StaticSize() (int, bool) { return 2, true }

type int32Codec struct{ bo binary.ByteOrder }

// Int32 returns the codec for int32 in the configured byte order.
func Int32(conf Config) Codec[int32] { return int32Codec{conf.byteOrder()} }

func (c int32Codec) Encode(w *Writer, v int32) { w.WriteUint32(c.bo, uint32(v)) }

func (c int32Codec) Decode(r *Reader) (int32, bool) {
	if !r.VerifySize(4) {
		return 0, false
	}
	return int32(r.ReadUint32(c.bo)), true
}

func (int32Codec) StaticSize() (int, bool) { return 4, true }

type int64Codec struct{ bo binary.ByteOrder }

// Int64 returns the codec for int64 in the configured byte order.
func Int64(conf Config) Codec[int64] { return int64Codec{conf.byteOrder()} }

func (c int64Codec) Encode(w *Writer, v int64) { w.WriteUint64(c.bo, uint64(v)) }

func (c int64Codec) Decode(r *Reader) (int64, bool) {
	if !r.VerifySize(8) {
		return 0, false
	}
	return int64(r.ReadUint64(c.bo)), true
}

func (int64Codec) StaticSize() (int, bool) { return 8, true }

type float32Codec struct{ bo binary.ByteOrder }

// Float32 returns the codec for float32, transported as its IEEE-754 bits.
func Float32(conf Config) Codec[float32] { return float32Codec{conf.byteOrder()} }

func (c float32Codec) Encode(w *Writer, v float32) {
	w.WriteUint32(c.bo, math.Float32bits(v))
}

func (c float32Codec) Decode(r *Reader) (float32, bool) {
	if !r.VerifySize(4) {
		return 0, false
	}
	return math.Float32frombits(r.ReadUint32(c.bo)), true
}

func (float32Codec) StaticSize() (int, bool) { return 4, true }

type float64Codec struct{ bo binary.ByteOrder }

// Float64 returns the codec for float64, transported as its IEEE-754 bits.
func Float64(conf Config) Codec[float64] { return float64Codec{conf.byteOrder()} }

func (c float64Codec) Encode(w *Writer, v float64) {
	w.WriteUint64(c.bo, math.Float64bits(v))
}

func (c float64Codec) Decode(r *Reader) (float64, bool) {
	if !r.VerifySize(8) {
		return 0, false
	}
	return math.Float64frombits(r.ReadUint64(c.bo)), true
}

func (float64Codec) StaticSize() (int, bool) { return 8, true }

// EnumValue constrains enum codecs to integer-backed types.
type EnumValue interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

type enumCodec[E EnumValue] struct {
	bo   binary.ByteOrder
	size int
}

// Enum returns the codec for an integer-backed enum type. The wire width is
// the width of the underlying type; enums never carry a length field.
func Enum[E EnumValue](conf Config) Codec[E] {
	var zero E
	return enumCodec[E]{bo: conf.byteOrder(), size: int(unsafe.Sizeof(zero))}
}

func (c enumCodec[E]) Encode(w *Writer, v E) {
	switch c.size {
	case 1:
		w.WriteUint8(uint8(v))
	case 2:
		w.WriteUint16(c.bo, uint16(v))
	case 4:
		w.WriteUint32(c.bo, uint32(v))
	case 8:
		w.WriteUint64(c.bo, uint64(v))
	default:
		fatalf("enum underlying width %d", c.size)
	}
}

func (c enumCodec[E]) Decode(r *Reader) (E, bool) {
	if !r.VerifySize(c.size) {
		var zero E
		return zero, false
	}
	switch c.size {
	case 1:
		return E(r.ReadUint8()), true
	case 2:
		return E(r.ReadUint16(c.bo)), true
	case 4:
		return E(r.ReadUint32(c.bo)), true
	case 8:
		return E(r.ReadUint64(c.bo)), true
	default:
		fatalf("enum underlying width %d", c.size)
		panic("unreachable")
	}
}

func (c enumCodec[E]) StaticSize() (int, bool) { return c.size, true }
