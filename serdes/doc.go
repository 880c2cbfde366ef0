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

// Package serdes implements a SOME/IP-style binary serialization layer.
//
// Values are encoded and decoded through Codec values that compose
// recursively: primitives, enums, fixed arrays, dynamic lists, ordered maps,
// strings (UTF-8/UTF-16), tagged unions, optionals and user structs. Each
// codec is parameterized by a static wire configuration (byte order, length
// field widths, string transcoding) that never varies at runtime for a given
// wire-format version.
//
// Two failure classes are kept strictly apart. Malformed or truncated input
// from an untrusted peer is reported through the boolean result of Decode;
// a failed decode never reads past the input buffer and never panics.
// Contract violations inside the trusted process (writing past a buffer the
// caller sized, a length field too narrow for the payload it was configured
// to carry) panic immediately: they are configuration bugs, not runtime
// conditions to recover from.
package serdes
