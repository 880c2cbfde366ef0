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
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// MaxRingDataSize bounds a ring's data area so the wraparound index
// arithmetic cannot overflow uint32.
const MaxRingDataSize = math.MaxUint32 / 2

// ErrProtocolViolation indicates the peer broke the ring protocol: an index
// out of bounds, or used space moving in a direction only the other side may
// move it. Once returned, the channel's invariants are no longer
// trustworthy; only capacity queries remain safe on the view.
var ErrProtocolViolation = errors.New("shm: ring protocol violation")

// RingBufferView is one process's view of a single-producer single-consumer
// circular byte buffer resident in shared memory. It owns neither the data
// area nor the index atomics; it holds cached copies of both indices,
// refreshed only by explicit LoadHeadIndex/LoadTailIndex calls, so a
// sequence of Write/Peek/Read/Discard calls operates on one consistent
// snapshot.
//
// The protocol is snapshot, mutate locally, publish: the data area has no
// atomic protection of its own, so all copying stays strictly inside the
// region the cached snapshot proves safe, and the StoreHeadIndex or
// StoreTailIndex call afterwards is the publication point. The slot the
// head points at is kept empty, making head == tail unambiguously "empty";
// usable capacity is therefore one less than the data size.
//
// A view is not safe for concurrent use within a process: one writer thread
// on one side, one reader thread on the other.
type RingBufferView struct {
	head *atomic.Uint32
	tail *atomic.Uint32
	data []byte
	size uint32

	curHead  uint32
	curTail  uint32
	poisoned bool
}

// NewRingBufferView constructs a view from pointers into a mapped region and
// the span of its data area. The initial index values are validated for
// bounds; geometry outside the supported range is rejected.
func NewRingBufferView(head, tail *atomic.Uint32, data []byte) (*RingBufferView, error) {
	if head == nil || tail == nil {
		return nil, errors.New("shm: ring view requires index atomics")
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("shm: ring data size %d too small", len(data))
	}
	if uint64(len(data)) > MaxRingDataSize {
		return nil, fmt.Errorf("shm: ring data size %d exceeds %d", len(data), uint32(MaxRingDataSize))
	}
	v := &RingBufferView{head: head, tail: tail, data: data, size: uint32(len(data))}
	h, t := head.Load(), tail.Load()
	if h >= v.size || t >= v.size {
		return nil, fmt.Errorf("%w: initial indices head=%d tail=%d size=%d", ErrProtocolViolation, h, t, v.size)
	}
	v.curHead, v.curTail = h, t
	return v, nil
}

// Capacity returns the usable payload capacity, one byte less than the data
// size. It remains valid after a protocol violation.
func (v *RingBufferView) Capacity() uint32 { return v.size - 1 }

// RingState is a diagnostic snapshot of a ring's indices and occupancy.
type RingState struct {
	Size     uint32 // data area size in bytes
	Capacity uint32 // usable capacity (Size - 1)
	Head     uint32 // shared head index as currently published
	Tail     uint32 // shared tail index as currently published
	Used     uint32 // bytes occupied per the published indices
	Poisoned bool   // view disabled after a protocol violation
}

// DebugState reads the shared indices directly and reports the ring's state
// for diagnostics. It bypasses the snapshot cache and its validation, so it
// stays usable on a poisoned view; the reported values are whatever the
// shared memory holds, trustworthy or not.
func (v *RingBufferView) DebugState() RingState {
	h, t := v.head.Load(), v.tail.Load()
	return RingState{
		Size:     v.size,
		Capacity: v.size - 1,
		Head:     h,
		Tail:     t,
		Used:     v.usedBetween(h%v.size, t%v.size),
		Poisoned: v.poisoned,
	}
}

// usedBetween computes occupied bytes for a given head/tail pair.
func (v *RingBufferView) usedBetween(head, tail uint32) uint32 {
	if head >= tail {
		return head - tail
	}
	return v.size + head - tail
}

// UsedSpace returns the occupied byte count per the cached snapshot.
func (v *RingBufferView) UsedSpace() uint32 {
	v.ensureUsable()
	return v.usedBetween(v.curHead, v.curTail)
}

// FreeSpace returns the writable byte count per the cached snapshot.
func (v *RingBufferView) FreeSpace() uint32 {
	return v.Capacity() - v.UsedSpace()
}

// IsEmpty reports head == tail per the cached snapshot.
func (v *RingBufferView) IsEmpty() bool { return v.UsedSpace() == 0 }

// IsFull reports the cached snapshot holds Capacity bytes.
func (v *RingBufferView) IsFull() bool { return v.UsedSpace() == v.Capacity() }

// LoadHeadIndex refreshes the cached head from shared memory with a
// sequentially consistent load — the acquire side of the handoff; bytes the
// writer placed before publishing this head value are visible afterwards.
//
// The loaded value is validated: it must lie inside the buffer, and because
// only the writer advances head, re-reading it may only ever reveal more
// used space, never less. A violation poisons the view and returns
// ErrProtocolViolation.
func (v *RingBufferView) LoadHeadIndex() error {
	v.ensureUsable()
	h := v.head.Load()
	if h >= v.size {
		v.poisoned = true
		return fmt.Errorf("%w: head index %d outside buffer of size %d", ErrProtocolViolation, h, v.size)
	}
	if v.usedBetween(h, v.curTail) < v.usedBetween(v.curHead, v.curTail) {
		v.poisoned = true
		return fmt.Errorf("%w: used space shrank from reloading head (%d -> %d)", ErrProtocolViolation, v.curHead, h)
	}
	v.curHead = h
	return nil
}

// LoadTailIndex refreshes the cached tail from shared memory. Symmetric to
// LoadHeadIndex: only the reader advances tail, so from the writer's side a
// reload may only ever reveal more free space, never less.
func (v *RingBufferView) LoadTailIndex() error {
	v.ensureUsable()
	t := v.tail.Load()
	if t >= v.size {
		v.poisoned = true
		return fmt.Errorf("%w: tail index %d outside buffer of size %d", ErrProtocolViolation, t, v.size)
	}
	if v.usedBetween(v.curHead, t) > v.usedBetween(v.curHead, v.curTail) {
		v.poisoned = true
		return fmt.Errorf("%w: used space grew from reloading tail (%d -> %d)", ErrProtocolViolation, v.curTail, t)
	}
	v.curTail = t
	return nil
}

// Write copies p into the buffer at the cached head, splitting the copy at
// the wrap point, and advances the cached head. It does not publish; call
// StoreHeadIndex to make the bytes visible to the peer.
//
// The caller must have established p fits: Write(p) with
// len(p) > FreeSpace() is a contract violation, not a runtime error —
// re-checking here against a stale tail would prove nothing, and loading a
// fresh tail is the caller's job.
func (v *RingBufferView) Write(p []byte) {
	v.ensureUsable()
	n := uint32(len(p))
	if n > v.FreeSpace() {
		fatalf("write of %d bytes exceeds free space %d", n, v.FreeSpace())
	}
	linear := v.size - v.curHead
	if n <= linear {
		copy(v.data[v.curHead:], p)
	} else {
		copy(v.data[v.curHead:], p[:linear])
		copy(v.data, p[linear:])
	}
	v.curHead = (v.curHead + n) % v.size
}

// Peek copies the next len(p) readable bytes into p without consuming them.
// Requesting more than UsedSpace() is a contract violation.
func (v *RingBufferView) Peek(p []byte) {
	v.ensureUsable()
	n := uint32(len(p))
	if n > v.UsedSpace() {
		fatalf("peek of %d bytes exceeds used space %d", n, v.UsedSpace())
	}
	linear := v.size - v.curTail
	if n <= linear {
		copy(p, v.data[v.curTail:])
	} else {
		copy(p, v.data[v.curTail:])
		copy(p[linear:], v.data)
	}
}

// Discard advances the cached tail past n bytes without copying them. It
// does not publish; call StoreTailIndex to release the space to the writer.
func (v *RingBufferView) Discard(n uint32) {
	v.ensureUsable()
	if n > v.UsedSpace() {
		fatalf("discard of %d bytes exceeds used space %d", n, v.UsedSpace())
	}
	v.curTail = (v.curTail + n) % v.size
}

// Read copies the next len(p) bytes into p and consumes them; it is
// Peek followed by Discard.
func (v *RingBufferView) Read(p []byte) {
	v.Peek(p)
	v.Discard(uint32(len(p)))
}

// StoreHeadIndex publishes the cached head with a sequentially consistent
// store — the release side of the handoff. After it returns the peer may
// observe and read the written bytes.
func (v *RingBufferView) StoreHeadIndex() {
	v.ensureUsable()
	v.head.Store(v.curHead)
}

// StoreTailIndex publishes the cached tail, releasing the consumed region
// back to the writer.
func (v *RingBufferView) StoreTailIndex() {
	v.ensureUsable()
	v.tail.Store(v.curTail)
}

func (v *RingBufferView) ensureUsable() {
	if v.head == nil || v.tail == nil {
		fatalf("operation on zero-value ring view")
	}
	if v.poisoned {
		fatalf("operation on ring view after protocol violation")
	}
}

func fatalf(format string, args ...any) {
	panic(fmt.Sprintf("shm: "+format, args...))
}
