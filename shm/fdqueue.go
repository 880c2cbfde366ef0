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

// InvalidFD is the placeholder for a file descriptor slot the peer declared
// but could not fill.
const InvalidFD = -1

// FileDescriptorQueue tracks out-of-band file descriptors attached to
// in-band messages, in arrival order. A descriptor pushed into the queue is
// owned by it until popped or discarded; discarded valid descriptors are
// closed.
//
// Discard may be requested before the matching push has happened: message
// headers arrive in-band and can name descriptors that the control channel
// has not delivered yet. DiscardNextFD therefore falls back to counting
// future pushes to drop. DiscardAllFDs is the protocol-violation shutdown
// path: it empties the queue and suppresses every later push until Reset.
type FileDescriptorQueue struct {
	fds            []int
	pendingDiscard int
	discardAll     bool
}

// NewFileDescriptorQueue returns an empty queue.
func NewFileDescriptorQueue() *FileDescriptorQueue {
	return &FileDescriptorQueue{}
}

// Len returns the number of queued descriptors.
func (q *FileDescriptorQueue) Len() int { return len(q.fds) }

// PushFD appends fd, transferring ownership to the queue. When a discard is
// pending or the queue is in discard-all mode, fd is closed instead.
func (q *FileDescriptorQueue) PushFD(fd int) {
	if q.discardAll {
		closeFD(fd)
		return
	}
	if q.pendingDiscard > 0 {
		q.pendingDiscard--
		closeFD(fd)
		return
	}
	q.fds = append(q.fds, fd)
}

// PushInvalidFD appends a placeholder slot, keeping in-band bookkeeping and
// the queue aligned when a descriptor failed to transfer.
func (q *FileDescriptorQueue) PushInvalidFD() {
	q.PushFD(InvalidFD)
}

// PopFD removes and returns the front descriptor, transferring ownership to
// the caller. ok is false when the queue is empty.
func (q *FileDescriptorQueue) PopFD() (fd int, ok bool) {
	if len(q.fds) == 0 {
		return InvalidFD, false
	}
	fd = q.fds[0]
	q.fds = q.fds[1:]
	return fd, true
}

// DiscardNextFD drops one descriptor: the front of the queue if one is
// present, otherwise the next future push. Used when a partially processed
// message must be skipped.
func (q *FileDescriptorQueue) DiscardNextFD() {
	if len(q.fds) > 0 {
		fd := q.fds[0]
		q.fds = q.fds[1:]
		closeFD(fd)
		return
	}
	q.pendingDiscard++
}

// DiscardAllFDs closes and drops everything queued and suppresses all
// future pushes. The suppression is sticky: only Reset clears it.
func (q *FileDescriptorQueue) DiscardAllFDs() {
	q.drain()
	q.pendingDiscard = 0
	q.discardAll = true
}

// Reset returns the queue to its initial state, closing anything still
// queued.
func (q *FileDescriptorQueue) Reset() {
	q.drain()
	q.pendingDiscard = 0
	q.discardAll = false
}

func (q *FileDescriptorQueue) drain() {
	for _, fd := range q.fds {
		closeFD(fd)
	}
	q.fds = q.fds[:0]
}
