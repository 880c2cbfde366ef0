//go:build unix

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

	"golang.org/x/sys/unix"

	"github.com/hostipc/hostipc/oserror"
)

// File descriptors travel out-of-band over the control channel, a
// unix-domain socket, as SCM_RIGHTS ancillary data. The in-band message only
// carries the count; the socket delivers the descriptors themselves, and the
// receiver feeds them into the connection's FileDescriptorQueue.

// SendFDs transmits fds as ancillary data on the unix-domain socket sock,
// alongside a small in-band payload (at least one byte is required for the
// ancillary data to be delivered).
func SendFDs(sock int, fds []int, payload []byte) error {
	if len(payload) == 0 {
		payload = []byte{0}
	}
	rights := unix.UnixRights(fds...)
	if err := unix.Sendmsg(sock, payload, rights, nil, 0); err != nil {
		return fmt.Errorf("shm: sendmsg: %w", oserror.FromError(err))
	}
	return nil
}

// RecvFDs receives one control-channel datagram from sock, returning the
// in-band payload length and any descriptors delivered with it. Ownership
// of the returned descriptors passes to the caller.
func RecvFDs(sock int, payload []byte, maxFDs int) (n int, fds []int, err error) {
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	n, oobn, _, _, err := unix.Recvmsg(sock, payload, oob, 0)
	if err != nil {
		return 0, nil, fmt.Errorf("shm: recvmsg: %w", oserror.FromError(err))
	}
	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return n, nil, fmt.Errorf("shm: parse control message: %w", oserror.FromError(err))
	}
	for _, msg := range msgs {
		got, err := unix.ParseUnixRights(&msg)
		if err != nil {
			continue
		}
		fds = append(fds, got...)
	}
	return n, fds, nil
}

// RecvFDsInto receives descriptors from sock and pushes them into q in
// arrival order, honoring q's discard state. Returns the in-band payload
// length and the number of descriptors delivered.
func RecvFDsInto(sock int, payload []byte, maxFDs int, q *FileDescriptorQueue) (n, pushed int, err error) {
	n, fds, err := RecvFDs(sock, payload, maxFDs)
	if err != nil {
		return n, 0, err
	}
	for _, fd := range fds {
		q.PushFD(fd)
	}
	return n, len(fds), nil
}

func closeFD(fd int) {
	if fd >= 0 {
		unix.Close(fd)
	}
}
