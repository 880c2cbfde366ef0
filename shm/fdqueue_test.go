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

import "testing"

// Placeholder descriptors only: close on a negative fd is a no-op, so the
// queue's ownership semantics can be exercised without real descriptors.

func TestFDQueueFIFO(t *testing.T) {
	q := NewFileDescriptorQueue()

	if _, ok := q.PopFD(); ok {
		t.Fatal("pop from empty queue should fail")
	}

	q.PushInvalidFD()
	q.PushInvalidFD()
	if q.Len() != 2 {
		t.Fatalf("len = %d, expected 2", q.Len())
	}
	if fd, ok := q.PopFD(); !ok || fd != InvalidFD {
		t.Fatalf("pop = %d, %v", fd, ok)
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, expected 1", q.Len())
	}
}

func TestFDQueueDiscardQueued(t *testing.T) {
	q := NewFileDescriptorQueue()

	q.PushInvalidFD()
	q.PushInvalidFD()
	q.DiscardNextFD()
	if q.Len() != 1 {
		t.Fatalf("len = %d after discard, expected 1", q.Len())
	}
}

// A discard registered before the descriptor arrives swallows the next
// push rather than an already-queued slot.
func TestFDQueueDiscardBeforePush(t *testing.T) {
	q := NewFileDescriptorQueue()

	q.DiscardNextFD()
	q.DiscardNextFD()

	q.PushInvalidFD() // swallowed
	q.PushInvalidFD() // swallowed
	q.PushInvalidFD() // survives
	if q.Len() != 1 {
		t.Fatalf("len = %d, expected 1", q.Len())
	}
}

func TestFDQueueDiscardAllIsSticky(t *testing.T) {
	q := NewFileDescriptorQueue()

	q.PushInvalidFD()
	q.DiscardAllFDs()
	if q.Len() != 0 {
		t.Fatalf("len = %d after discard-all, expected 0", q.Len())
	}

	q.PushInvalidFD()
	q.PushInvalidFD()
	if q.Len() != 0 {
		t.Fatal("pushes after discard-all should be suppressed")
	}

	q.Reset()
	q.PushInvalidFD()
	if q.Len() != 1 {
		t.Fatal("reset should re-enable the queue")
	}
}

func TestFDQueueResetClearsPendingDiscards(t *testing.T) {
	q := NewFileDescriptorQueue()

	q.DiscardNextFD()
	q.Reset()
	q.PushInvalidFD()
	if q.Len() != 1 {
		t.Fatal("reset should drop pending discards")
	}
}
