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
	"fmt"
	"math"
)

// Config carries the static wire-format parameters shared by every codec of
// a given protocol version. It is fixed at codec construction time.
type Config struct {
	// ByteOrder applies to multi-byte integers, floats and length fields.
	ByteOrder binary.ByteOrder
}

// DefaultConfig is the standard SOME/IP network byte order.
var DefaultConfig = Config{ByteOrder: binary.BigEndian}

func (c Config) byteOrder() binary.ByteOrder {
	if c.ByteOrder == nil {
		return binary.BigEndian
	}
	return c.ByteOrder
}

// LengthField selects the width of a length prefix in bytes. Zero disables
// the prefix entirely; only fixed arrays may be configured without one.
type LengthField int

const (
	LengthFieldNone LengthField = 0
	LengthField8    LengthField = 1
	LengthField16   LengthField = 2
	LengthField32   LengthField = 4
)

func (lf LengthField) valid() bool {
	switch lf {
	case LengthFieldNone, LengthField8, LengthField16, LengthField32:
		return true
	}
	return false
}

// maxPayload is the largest byte count representable in the field.
func (lf LengthField) maxPayload() uint64 {
	switch lf {
	case LengthField8:
		return math.MaxUint8
	case LengthField16:
		return math.MaxUint16
	case LengthField32:
		return math.MaxUint32
	}
	return 0
}

// Codec encodes and decodes values of type T against a fixed byte layout.
//
// Encode assumes the caller has sized the destination; running out of writer
// space is a contract violation and panics. Decode consumes bytes from r and
// reports false on malformed or truncated input without reading past the
// buffer.
type Codec[T any] interface {
	Encode(w *Writer, v T)
	Decode(r *Reader) (T, bool)

	// StaticSize reports the serialized size when it is the same for every
	// value of T (no length field, no variable-length content). ok is false
	// for dynamically sized layouts.
	StaticSize() (size int, ok bool)
}

// IsStaticSize reports whether every value of T serializes to the same
// number of bytes under c.
func IsStaticSize[T any](c Codec[T]) bool {
	_, ok := c.StaticSize()
	return ok
}

// StaticSizeOf returns the fixed serialized size of T under c. It panics if
// c describes a dynamically sized layout; callers use it to batch a single
// bounds check ahead of a structurally fixed-size decode.
func StaticSizeOf[T any](c Codec[T]) int {
	n, ok := c.StaticSize()
	if !ok {
		fatalf("StaticSizeOf on dynamically sized codec")
	}
	return n
}

// fatalf reports a contract violation in the trusted process. These are
// configuration or logic bugs, never peer input, so there is no error path.
func fatalf(format string, args ...any) {
	panic(fmt.Sprintf("serdes: "+format, args...))
}
