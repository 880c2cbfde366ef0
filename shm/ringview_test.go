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
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
)

// testRing builds two independent views (writer and reader) over the same
// backing memory, the way two processes each construct their own.
func testRing(t *testing.T, size int) (head, tail *atomic.Uint32, w, r *RingBufferView) {
	t.Helper()
	head = new(atomic.Uint32)
	tail = new(atomic.Uint32)
	data := make([]byte, size)

	var err error
	w, err = NewRingBufferView(head, tail, data)
	if err != nil {
		t.Fatalf("writer view: %v", err)
	}
	r, err = NewRingBufferView(head, tail, data)
	if err != nil {
		t.Fatalf("reader view: %v", err)
	}
	return head, tail, w, r
}

func TestRingViewRoundTrip(t *testing.T) {
	_, _, w, r := testRing(t, 64)

	msg := []byte("hello shared memory")
	if err := w.LoadTailIndex(); err != nil {
		t.Fatalf("LoadTailIndex: %v", err)
	}
	if got := w.FreeSpace(); got != 63 {
		t.Fatalf("expected 63 bytes free, got %d", got)
	}
	w.Write(msg)
	w.StoreHeadIndex()

	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}
	if got := r.UsedSpace(); got != uint32(len(msg)) {
		t.Fatalf("expected %d bytes used, got %d", len(msg), got)
	}
	out := make([]byte, len(msg))
	r.Read(out)
	r.StoreTailIndex()

	if !bytes.Equal(out, msg) {
		t.Fatalf("data mismatch: expected %q, got %q", msg, out)
	}
	if !r.IsEmpty() {
		t.Fatal("ring should be empty after draining")
	}
}

// The canonical wraparound walk-through: size 8 (capacity 7), a five-byte
// write, a partial read, then a second five-byte write that wraps at the
// end of the data area.
func TestRingViewWrapAround(t *testing.T) {
	_, _, w, r := testRing(t, 8)

	w.Write([]byte{1, 2, 3, 4, 5})
	w.StoreHeadIndex()

	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}
	if got := r.UsedSpace(); got != 5 {
		t.Fatalf("expected 5 used, got %d", got)
	}
	out := make([]byte, 3)
	r.Read(out)
	r.StoreTailIndex()
	if !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Fatalf("first read mismatch: %v", out)
	}

	if err := w.LoadTailIndex(); err != nil {
		t.Fatalf("LoadTailIndex: %v", err)
	}
	if got := w.FreeSpace(); got != 5 {
		t.Fatalf("expected 5 free after partial drain, got %d", got)
	}
	w.Write([]byte{6, 7, 8, 9, 10}) // wraps: indices 5,6,7,0,1
	w.StoreHeadIndex()

	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}
	if got := r.UsedSpace(); got != 7 {
		t.Fatalf("expected 7 used, got %d", got)
	}
	rest := make([]byte, 7)
	r.Read(rest)
	r.StoreTailIndex()
	if !bytes.Equal(rest, []byte{4, 5, 6, 7, 8, 9, 10}) {
		t.Fatalf("wrapped read mismatch: %v", rest)
	}
}

func TestRingViewCapacityInvariant(t *testing.T) {
	_, _, w, r := testRing(t, 32)

	if got := w.Capacity(); got != 31 {
		t.Fatalf("capacity should be size-1, got %d", got)
	}

	chunk := []byte{0xAA, 0xBB, 0xCC}
	drain := make([]byte, 2)
	for i := 0; i < 100; i++ {
		if err := w.LoadTailIndex(); err != nil {
			t.Fatalf("LoadTailIndex: %v", err)
		}
		if w.FreeSpace() >= uint32(len(chunk)) {
			w.Write(chunk)
			w.StoreHeadIndex()
		}
		if w.UsedSpace()+w.FreeSpace() != w.Capacity() {
			t.Fatalf("used %d + free %d != capacity %d", w.UsedSpace(), w.FreeSpace(), w.Capacity())
		}

		if err := r.LoadHeadIndex(); err != nil {
			t.Fatalf("LoadHeadIndex: %v", err)
		}
		if r.UsedSpace() >= uint32(len(drain)) {
			r.Read(drain)
			r.StoreTailIndex()
		}
		if r.UsedSpace()+r.FreeSpace() != r.Capacity() {
			t.Fatalf("used %d + free %d != capacity %d", r.UsedSpace(), r.FreeSpace(), r.Capacity())
		}
	}
}

func TestRingViewEmptyFullDisambiguation(t *testing.T) {
	_, _, w, r := testRing(t, 8)

	if !w.IsEmpty() || w.IsFull() {
		t.Fatal("fresh ring should be empty and not full")
	}

	w.Write([]byte{1, 2, 3, 4, 5, 6, 7})
	w.StoreHeadIndex()
	if !w.IsFull() || w.IsEmpty() {
		t.Fatalf("ring at capacity should be full: used=%d", w.UsedSpace())
	}
	if got := w.FreeSpace(); got != 0 {
		t.Fatalf("full ring should report 0 free, got %d", got)
	}

	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}
	out := make([]byte, 7)
	r.Read(out)
	r.StoreTailIndex()
	if !r.IsEmpty() {
		t.Fatal("drained ring should be empty")
	}
}

func TestRingViewHeadCorruptionDetected(t *testing.T) {
	head, _, _, r := testRing(t, 16)

	// Peer writes garbage out of bounds.
	head.Store(16)
	if err := r.LoadHeadIndex(); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}

	// The view is poisoned; only capacity queries stay legal.
	if got := r.Capacity(); got != 15 {
		t.Fatalf("capacity after violation: %d", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic using poisoned view")
		}
	}()
	r.LoadHeadIndex()
}

func TestRingViewShrinkingUsedSpaceDetected(t *testing.T) {
	head, _, w, r := testRing(t, 16)

	w.Write([]byte{1, 2, 3, 4, 5})
	w.StoreHeadIndex()
	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}

	// Only the writer may move head, and only forward. Rewinding it makes
	// used space shrink from the reader's point of view.
	head.Store(2)
	if err := r.LoadHeadIndex(); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestRingViewGrowingUsedSpaceDetectedByWriter(t *testing.T) {
	_, tail, w, r := testRing(t, 16)

	w.Write([]byte{1, 2, 3, 4, 5})
	w.StoreHeadIndex()
	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}
	r.Read(make([]byte, 3))
	r.StoreTailIndex()

	if err := w.LoadTailIndex(); err != nil {
		t.Fatalf("LoadTailIndex: %v", err)
	}

	// Only the reader may move tail, and only toward head. Rewinding it
	// makes used space grow from the writer's point of view.
	tail.Store(0)
	if err := w.LoadTailIndex(); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestRingViewOversizeGeometryRejected(t *testing.T) {
	head := new(atomic.Uint32)
	tail := new(atomic.Uint32)

	if _, err := NewRingBufferView(head, tail, make([]byte, 1)); err == nil {
		t.Fatal("expected error for undersized data area")
	}
	if _, err := NewRingBufferView(nil, tail, make([]byte, 16)); err == nil {
		t.Fatal("expected error for missing head atomic")
	}

	head.Store(20)
	if _, err := NewRingBufferView(head, tail, make([]byte, 16)); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation for initial out-of-bounds head, got %v", err)
	}
}

func TestRingViewWriteBeyondFreePanics(t *testing.T) {
	_, _, w, _ := testRing(t, 8)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic writing past free space")
		}
	}()
	w.Write(make([]byte, 8)) // capacity is 7
}

func TestRingViewZeroValuePanics(t *testing.T) {
	var v RingBufferView

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on zero-value view")
		}
	}()
	v.UsedSpace()
}

func TestRingViewPeekDoesNotConsume(t *testing.T) {
	_, _, w, r := testRing(t, 16)

	w.Write([]byte{9, 8, 7})
	w.StoreHeadIndex()
	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}

	first := make([]byte, 3)
	r.Peek(first)
	second := make([]byte, 3)
	r.Peek(second)
	if !bytes.Equal(first, second) {
		t.Fatalf("peek consumed data: %v vs %v", first, second)
	}
	if got := r.UsedSpace(); got != 3 {
		t.Fatalf("peek changed used space: %d", got)
	}

	r.Discard(3)
	if got := r.UsedSpace(); got != 0 {
		t.Fatalf("discard did not consume: %d", got)
	}
}

func TestRingViewDebugState(t *testing.T) {
	head, _, w, r := testRing(t, 16)

	w.Write([]byte{1, 2, 3, 4, 5})
	w.StoreHeadIndex()

	st := r.DebugState()
	if st.Size != 16 || st.Capacity != 15 {
		t.Fatalf("geometry: %+v", st)
	}
	if st.Head != 5 || st.Tail != 0 || st.Used != 5 {
		t.Fatalf("indices: %+v", st)
	}

	// DebugState reads the published values directly and survives poisoning.
	head.Store(99)
	if err := r.LoadHeadIndex(); err == nil {
		t.Fatal("expected protocol violation")
	}
	st = r.DebugState()
	if !st.Poisoned || st.Head != 99 {
		t.Fatalf("post-violation state: %+v", st)
	}
}

// A snapshot stays consistent across calls: data written by the peer after
// our LoadHeadIndex is invisible until the next explicit load.
func TestRingViewSnapshotConsistency(t *testing.T) {
	_, _, w, r := testRing(t, 32)

	w.Write([]byte{1, 2})
	w.StoreHeadIndex()
	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}

	w.Write([]byte{3, 4})
	w.StoreHeadIndex()

	if got := r.UsedSpace(); got != 2 {
		t.Fatalf("snapshot should still see 2 bytes, got %d", got)
	}
	if err := r.LoadHeadIndex(); err != nil {
		t.Fatalf("LoadHeadIndex: %v", err)
	}
	if got := r.UsedSpace(); got != 4 {
		t.Fatalf("fresh snapshot should see 4 bytes, got %d", got)
	}
}
