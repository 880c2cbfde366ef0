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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHeader struct {
	Service uint16
	Method  uint16
	Payload []uint8
}

func testHeaderCodec(lf LengthField) Codec[testHeader] {
	conf := DefaultConfig
	u16 := Uint16(conf)
	payload := List(conf, LengthField16, Uint8())

	return StructOf(conf, lf, -1,
		func(w *Writer, v testHeader) {
			u16.Encode(w, v.Service)
			u16.Encode(w, v.Method)
			payload.Encode(w, v.Payload)
		},
		func(r *Reader) (testHeader, bool) {
			var v testHeader
			var ok bool
			if v.Service, ok = u16.Decode(r); !ok {
				return v, false
			}
			if v.Method, ok = u16.Decode(r); !ok {
				return v, false
			}
			if v.Payload, ok = payload.Decode(r); !ok {
				return v, false
			}
			return v, true
		})
}

func TestStructOfRoundTrip(t *testing.T) {
	for _, lf := range []LengthField{LengthFieldNone, LengthField16, LengthField32} {
		c := testHeaderCodec(lf)
		in := testHeader{Service: 0x1234, Method: 0x8001, Payload: []uint8{1, 2, 3}}
		got := roundTrip(t, c, in)
		assert.Equal(t, in.Service, got.Service)
		assert.Equal(t, in.Method, got.Method)
		assert.Equal(t, in.Payload, got.Payload)
	}
}

func TestStructOfWireBytes(t *testing.T) {
	c := testHeaderCodec(LengthField16)

	out := encode(t, c, testHeader{Service: 1, Method: 2, Payload: []uint8{0xFF}})
	// Outer length 7 = two uint16 fields plus the list's 2-byte length and
	// one element.
	assert.Equal(t, []byte{0x00, 0x07, 0x00, 0x01, 0x00, 0x02, 0x00, 0x01, 0xFF}, out)
}

func TestStructOfTruncatedField(t *testing.T) {
	c := testHeaderCodec(LengthField16)

	// Outer length cuts the method field in half.
	_, ok := c.Decode(NewReader([]byte{0x00, 0x03, 0x00, 0x01, 0x00}))
	assert.False(t, ok)
}

func TestStructOfStaticSize(t *testing.T) {
	conf := DefaultConfig
	u32 := Uint32(conf)

	point := StructOf(conf, LengthFieldNone, 8,
		func(w *Writer, v [2]uint32) {
			u32.Encode(w, v[0])
			u32.Encode(w, v[1])
		},
		func(r *Reader) ([2]uint32, bool) {
			var v [2]uint32
			if !r.VerifySize(8) {
				return v, false
			}
			v[0] = r.ReadUint32(conf.byteOrder())
			v[1] = r.ReadUint32(conf.byteOrder())
			return v, true
		})

	require.True(t, IsStaticSize(point))
	assert.Equal(t, 8, StaticSizeOf(point))
	assert.Equal(t, [2]uint32{3, 4}, roundTrip(t, point, [2]uint32{3, 4}))

	// A length prefix makes the layout dynamic even with fixed content.
	prefixed := StructOf(conf, LengthField8, 8,
		func(w *Writer, v [2]uint32) { point.Encode(w, v) },
		func(r *Reader) ([2]uint32, bool) { return point.Decode(r) })
	assert.False(t, IsStaticSize(prefixed))
	assert.Equal(t, [2]uint32{5, 6}, roundTrip(t, prefixed, [2]uint32{5, 6}))
}
