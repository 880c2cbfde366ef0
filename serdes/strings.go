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
	"unicode/utf16"
	"unicode/utf8"
)

// StringEncoding selects the on-wire text encoding.
type StringEncoding uint8

const (
	UTF8 StringEncoding = iota
	UTF16
)

// StringConfig describes the wire layout of a string field beyond the common
// length field: encoding, optional byte-order mark and optional null
// terminator. ByteOrder applies to UTF-16 code units and defaults to the
// engine configuration; on decode a UTF-16 BOM overrides it for that field.
type StringConfig struct {
	Encoding       StringEncoding
	ByteOrder      binary.ByteOrder
	BOM            bool
	NullTerminated bool
}

const (
	surrSelf = 0x10000 // first code point needing a surrogate pair
	surrHi   = 0xD800
	surrLo   = 0xDC00
	surrEnd  = 0xE000
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type stringCodec struct {
	bo binary.ByteOrder
	lf LengthField
	sc StringConfig
}

// String returns the codec for a string field. Strings always carry a
// length field covering BOM, payload and terminator.
func String(conf Config, lf LengthField, sc StringConfig) Codec[string] {
	if !lf.valid() || lf == LengthFieldNone {
		fatalf("string requires a length field, got width %d", lf)
	}
	if sc.ByteOrder == nil {
		sc.ByteOrder = conf.byteOrder()
	}
	return stringCodec{bo: conf.byteOrder(), lf: lf, sc: sc}
}

func (c stringCodec) Encode(w *Writer, v string) {
	encodeWithLength(w, c.bo, c.lf, func(w *Writer) {
		switch c.sc.Encoding {
		case UTF8:
			if c.sc.BOM {
				w.WriteBytes(utf8BOM)
			}
			w.WriteBytes([]byte(v))
			if c.sc.NullTerminated {
				w.WriteUint8(0)
			}
		case UTF16:
			if c.sc.BOM {
				w.WriteUint16(c.sc.ByteOrder, 0xFEFF)
			}
			for _, u := range utf16.Encode([]rune(v)) {
				w.WriteUint16(c.sc.ByteOrder, u)
			}
			if c.sc.NullTerminated {
				w.WriteUint16(c.sc.ByteOrder, 0)
			}
		default:
			fatalf("string encoding %d", c.sc.Encoding)
		}
	})
}

func (c stringCodec) Decode(r *Reader) (string, bool) {
	var out string
	ok := decodeWithLength(r, c.bo, c.lf, func(r *Reader) bool {
		switch c.sc.Encoding {
		case UTF8:
			return c.decodeUTF8(r, &out)
		case UTF16:
			return c.decodeUTF16(r, &out)
		default:
			fatalf("string encoding %d", c.sc.Encoding)
			panic("unreachable")
		}
	})
	if !ok {
		return "", false
	}
	return out, true
}

func (c stringCodec) decodeUTF8(r *Reader, out *string) bool {
	if c.sc.BOM {
		if !r.VerifySize(len(utf8BOM)) {
			return false
		}
		b := r.ReadBytes(len(utf8BOM))
		if b[0] != utf8BOM[0] || b[1] != utf8BOM[1] || b[2] != utf8BOM[2] {
			return false
		}
	}
	payload := r.ReadBytes(r.Remaining())
	if c.sc.NullTerminated {
		if len(payload) < 1 || payload[len(payload)-1] != 0 {
			return false
		}
		payload = payload[:len(payload)-1]
	}
	// Like the UTF-16 path, malformed sequences from the peer fail the
	// decode instead of becoming invalid strings.
	if !utf8.Valid(payload) {
		return false
	}
	*out = string(payload)
	return true
}

func (c stringCodec) decodeUTF16(r *Reader, out *string) bool {
	bo := c.sc.ByteOrder
	if c.sc.BOM {
		// The BOM value reveals the transmitted byte order; it overrides
		// the configured order for this field only.
		if !r.VerifySize(2) {
			return false
		}
		b := r.ReadBytes(2)
		switch {
		case b[0] == 0xFE && b[1] == 0xFF:
			bo = binary.BigEndian
		case b[0] == 0xFF && b[1] == 0xFE:
			bo = binary.LittleEndian
		default:
			return false
		}
	}
	if r.Remaining()%2 != 0 {
		return false
	}
	units := make([]uint16, 0, r.Remaining()/2)
	for r.Remaining() > 0 {
		units = append(units, r.ReadUint16(bo))
	}
	if c.sc.NullTerminated {
		if len(units) < 1 || units[len(units)-1] != 0 {
			return false
		}
		units = units[:len(units)-1]
	}
	s, ok := transcodeUTF16(units)
	if !ok {
		return false
	}
	*out = s
	return true
}

// transcodeUTF16 converts UTF-16 code units to a UTF-8 string. Unlike the
// stdlib decoder it rejects malformed input instead of substituting
// replacement characters: an unpaired or inverted surrogate fails the
// decode, since the bytes come from an untrusted peer.
func transcodeUTF16(units []uint16) (string, bool) {
	buf := make([]byte, 0, len(units)*2)
	for i := 0; i < len(units); i++ {
		u := units[i]
		var cp rune
		switch {
		case u >= surrHi && u < surrLo:
			if i+1 >= len(units) {
				return "", false
			}
			lo := units[i+1]
			if lo < surrLo || lo >= surrEnd {
				return "", false
			}
			cp = surrSelf + (rune(u-surrHi)<<10 | rune(lo-surrLo))
			i++
		case u >= surrLo && u < surrEnd:
			return "", false
		default:
			cp = rune(u)
		}
		buf = utf8.AppendRune(buf, cp)
	}
	return string(buf), true
}

func (stringCodec) StaticSize() (int, bool) { return 0, false }
