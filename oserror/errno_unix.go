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

package oserror

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// FromErrno maps a raw errno into the domain taxonomy. The original errno
// stays in the chain for diagnostics; callers match on the sentinel with
// errors.Is.
func FromErrno(errno unix.Errno) error {
	return fmt.Errorf("%w: %s (errno %d)", mapErrno(errno), errno.Error(), int(errno))
}

// FromError maps any syscall-shaped error; non-errno errors map to
// ErrUnexpected.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return FromErrno(errno)
	}
	return fmt.Errorf("%w: %v", ErrUnexpected, err)
}

func mapErrno(errno unix.Errno) error {
	switch errno {
	case unix.EACCES, unix.EPERM:
		return ErrInsufficientPrivileges
	case unix.ENOMEM, unix.ENOSPC, unix.EMFILE, unix.ENFILE, unix.EAGAIN:
		return ErrResourceExhausted
	case unix.EBUSY, unix.ETXTBSY:
		return ErrBusy
	case unix.ECONNRESET, unix.ECONNABORTED, unix.EPIPE, unix.ENOTCONN, unix.ESHUTDOWN:
		return ErrDisconnected
	case unix.ENOENT, unix.ENODEV, unix.ENXIO:
		return ErrDoesNotExist
	case unix.EEXIST:
		return ErrAlreadyExists
	case unix.EADDRNOTAVAIL, unix.EADDRINUSE:
		return ErrAddressUnavailable
	case unix.ENOSYS, unix.ENOTSUP, unix.EINVAL:
		return ErrSystemEnvironment
	case unix.EPROTO, unix.EPROTONOSUPPORT, unix.EBADMSG:
		return ErrProtocol
	case unix.EMSGSIZE, unix.E2BIG, unix.EFBIG, unix.ERANGE:
		return ErrSize
	default:
		return ErrUnexpected
	}
}
