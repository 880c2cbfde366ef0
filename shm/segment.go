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

package shm

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// Memory layout constants.
const (
	// Magic bytes for segment identification.
	SegmentMagic = "HOSTIPC\x00"

	// Current layout version.
	SegmentVersion = uint32(1)

	// Segment header size (aligned to 128 bytes).
	SegmentHeaderSize = 128

	// Per-ring index header: [head: atomic uint32][tail: atomic uint32],
	// immediately followed by the data area.
	RingHeaderSize = 8

	// Minimum ring data size in bytes.
	MinRingDataSize = 16

	// Default ring data size (64KB, 64KB-1 usable).
	DefaultRingDataSize = 64 * 1024
)

// SegmentHeader is the 128-byte header at offset 0 of every segment. Fields
// written after the initial handshake are accessed atomically.
type SegmentHeader struct {
	magic       [8]byte  // 0x00: "HOSTIPC\0"
	version     uint32   // 0x08: layout version
	flags       uint32   // 0x0C: reserved
	totalSize   uint64   // 0x10: total segment size
	ringAOff    uint64   // 0x18: offset to ring A index header
	ringASize   uint64   // 0x20: ring A data size in bytes
	ringBOff    uint64   // 0x28: offset to ring B index header
	ringBSize   uint64   // 0x30: ring B data size in bytes
	serverPID   uint32   // 0x38: server process ID
	clientPID   uint32   // 0x3C: client process ID
	serverReady uint32   // 0x40: server ready flag (0 -> 1)
	clientReady uint32   // 0x44: client mapped flag (0 -> 1)
	closed      uint32   // 0x48: closed flag (0 open, 1 closed)
	pad         uint32   // 0x4C: padding
	reserved    [48]byte // 0x50-0x7F: reserved to 128B
}

// Magic returns the magic bytes.
func (h *SegmentHeader) Magic() [8]byte { return h.magic }

// SetMagic sets the magic bytes.
func (h *SegmentHeader) SetMagic(magic [8]byte) { h.magic = magic }

// Version returns the layout version.
func (h *SegmentHeader) Version() uint32 { return atomic.LoadUint32(&h.version) }

// SetVersion sets the layout version.
func (h *SegmentHeader) SetVersion(v uint32) { atomic.StoreUint32(&h.version, v) }

// TotalSize returns the total segment size.
func (h *SegmentHeader) TotalSize() uint64 { return atomic.LoadUint64(&h.totalSize) }

// SetTotalSize sets the total segment size.
func (h *SegmentHeader) SetTotalSize(n uint64) { atomic.StoreUint64(&h.totalSize, n) }

// RingAOffset returns the offset of ring A's index header.
func (h *SegmentHeader) RingAOffset() uint64 { return atomic.LoadUint64(&h.ringAOff) }

// SetRingAOffset sets the offset of ring A's index header.
func (h *SegmentHeader) SetRingAOffset(off uint64) { atomic.StoreUint64(&h.ringAOff, off) }

// RingASize returns ring A's data size.
func (h *SegmentHeader) RingASize() uint64 { return atomic.LoadUint64(&h.ringASize) }

// SetRingASize sets ring A's data size.
func (h *SegmentHeader) SetRingASize(n uint64) { atomic.StoreUint64(&h.ringASize, n) }

// RingBOffset returns the offset of ring B's index header.
func (h *SegmentHeader) RingBOffset() uint64 { return atomic.LoadUint64(&h.ringBOff) }

// SetRingBOffset sets the offset of ring B's index header.
func (h *SegmentHeader) SetRingBOffset(off uint64) { atomic.StoreUint64(&h.ringBOff, off) }

// RingBSize returns ring B's data size.
func (h *SegmentHeader) RingBSize() uint64 { return atomic.LoadUint64(&h.ringBSize) }

// SetRingBSize sets ring B's data size.
func (h *SegmentHeader) SetRingBSize(n uint64) { atomic.StoreUint64(&h.ringBSize, n) }

// ServerPID returns the server process ID.
func (h *SegmentHeader) ServerPID() uint32 { return atomic.LoadUint32(&h.serverPID) }

// SetServerPID sets the server process ID.
func (h *SegmentHeader) SetServerPID(pid uint32) { atomic.StoreUint32(&h.serverPID, pid) }

// ClientPID returns the client process ID.
func (h *SegmentHeader) ClientPID() uint32 { return atomic.LoadUint32(&h.clientPID) }

// SetClientPID sets the client process ID.
func (h *SegmentHeader) SetClientPID(pid uint32) { atomic.StoreUint32(&h.clientPID, pid) }

// ServerReady returns the server ready flag.
func (h *SegmentHeader) ServerReady() bool { return atomic.LoadUint32(&h.serverReady) != 0 }

// SetServerReady sets the server ready flag.
func (h *SegmentHeader) SetServerReady(ready bool) { atomic.StoreUint32(&h.serverReady, b32(ready)) }

// ClientReady returns the client mapped flag.
func (h *SegmentHeader) ClientReady() bool { return atomic.LoadUint32(&h.clientReady) != 0 }

// SetClientReady sets the client mapped flag.
func (h *SegmentHeader) SetClientReady(ready bool) { atomic.StoreUint32(&h.clientReady, b32(ready)) }

// Closed returns the closed flag.
func (h *SegmentHeader) Closed() bool { return atomic.LoadUint32(&h.closed) != 0 }

// SetClosed sets the closed flag.
func (h *SegmentHeader) SetClosed(closed bool) { atomic.StoreUint32(&h.closed, b32(closed)) }

func b32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// CalculateSegmentLayout computes the total size and ring offsets for the
// given ring data sizes. Ring index headers land on 64-byte boundaries.
func CalculateSegmentLayout(ringASize, ringBSize uint64) (totalSize, ringAOffset, ringBOffset uint64, err error) {
	if err := validRingSize("A", ringASize); err != nil {
		return 0, 0, 0, err
	}
	if err := validRingSize("B", ringBSize); err != nil {
		return 0, 0, 0, err
	}
	ringAOffset = alignTo64(SegmentHeaderSize)
	ringBOffset = alignTo64(ringAOffset + RingHeaderSize + ringASize)
	totalSize = alignTo64(ringBOffset + RingHeaderSize + ringBSize)
	return totalSize, ringAOffset, ringBOffset, nil
}

func validRingSize(name string, n uint64) error {
	if n < MinRingDataSize {
		return fmt.Errorf("shm: ring %s data size %d below minimum %d", name, n, MinRingDataSize)
	}
	if n > MaxRingDataSize {
		return fmt.Errorf("shm: ring %s data size %d exceeds %d", name, n, uint32(MaxRingDataSize))
	}
	return nil
}

func alignTo64(n uint64) uint64 {
	return (n + 63) &^ 63
}

// ValidateSegmentHeader checks a mapped header for consistency before any
// offset in it is trusted. The header comes from a file another process
// wrote, so every derived offset is recomputed rather than believed.
func ValidateSegmentHeader(h *SegmentHeader) error {
	if h.Magic() != magicBytes() {
		return fmt.Errorf("shm: invalid magic bytes")
	}
	if h.Version() != SegmentVersion {
		return fmt.Errorf("shm: unsupported version %d, expected %d", h.Version(), SegmentVersion)
	}
	expectedTotal, expectedAOff, expectedBOff, err := CalculateSegmentLayout(h.RingASize(), h.RingBSize())
	if err != nil {
		return err
	}
	if h.TotalSize() != expectedTotal {
		return fmt.Errorf("shm: total size mismatch: got %d, expected %d", h.TotalSize(), expectedTotal)
	}
	if h.RingAOffset() != expectedAOff {
		return fmt.Errorf("shm: ring A offset mismatch: got %d, expected %d", h.RingAOffset(), expectedAOff)
	}
	if h.RingBOffset() != expectedBOff {
		return fmt.Errorf("shm: ring B offset mismatch: got %d, expected %d", h.RingBOffset(), expectedBOff)
	}
	return nil
}

func magicBytes() [8]byte {
	var m [8]byte
	copy(m[:], SegmentMagic)
	return m
}

// Segment is a mapped shared memory segment holding the header and two
// rings: A carries client-to-server traffic, B the reverse. Neither peer may
// resize or remap the region while the other is attached.
type Segment struct {
	File   *os.File // backing file descriptor
	Mem    []byte   // mapped region
	Path   string   // backing file path
	logger *zap.Logger
}

// Header returns the typed view of the segment header.
func (s *Segment) Header() *SegmentHeader {
	return (*SegmentHeader)(unsafe.Pointer(&s.Mem[0]))
}

// RingA returns a fresh view over ring A. Each peer constructs its own views
// once after mapping; views from different processes over the same ring are
// exactly the two ends of the channel.
func (s *Segment) RingA() (*RingBufferView, error) {
	h := s.Header()
	return s.ringAt(h.RingAOffset(), h.RingASize())
}

// RingB returns a fresh view over ring B.
func (s *Segment) RingB() (*RingBufferView, error) {
	h := s.Header()
	return s.ringAt(h.RingBOffset(), h.RingBSize())
}

func (s *Segment) ringAt(off, size uint64) (*RingBufferView, error) {
	if off+RingHeaderSize+size > uint64(len(s.Mem)) {
		return nil, fmt.Errorf("%w: ring at offset %d size %d outside segment of %d bytes",
			ErrProtocolViolation, off, size, len(s.Mem))
	}
	head := (*atomic.Uint32)(unsafe.Pointer(&s.Mem[off]))
	tail := (*atomic.Uint32)(unsafe.Pointer(&s.Mem[off+4]))
	return NewRingBufferView(head, tail, s.Mem[off+RingHeaderSize:off+RingHeaderSize+size])
}

// Close marks the segment closed, unmaps the memory and closes the backing
// file. The shared region and the peer's views outlive this: destruction of
// a mapping never affects the other process, but the peer can observe the
// closed flag and stop expecting traffic.
func (s *Segment) Close() error {
	var firstErr error
	if s.Mem != nil {
		s.Header().SetClosed(true)
		if err := unmapMemory(s.Mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.Mem = nil
	}
	if s.File != nil {
		if err := s.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.File = nil
	}
	return firstErr
}
