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

// Package oserror maps raw operating-system error numbers into the small
// closed taxonomy the transport reports. The mapping happens once, at the
// syscall boundary; everything above it matches on the sentinel values with
// errors.Is. No retry policy lives here — retry is the connection owner's
// decision.
package oserror

import "errors"

var (
	ErrUnexpected             = errors.New("unexpected error")
	ErrInsufficientPrivileges = errors.New("insufficient privileges")
	ErrResourceExhausted      = errors.New("resource exhausted")
	ErrBusy                   = errors.New("resource busy")
	ErrDisconnected           = errors.New("peer disconnected")
	ErrDoesNotExist           = errors.New("does not exist")
	ErrAlreadyExists          = errors.New("already exists")
	ErrAddressUnavailable     = errors.New("address unavailable")
	ErrSystemEnvironment      = errors.New("system environment error")
	ErrProtocol               = errors.New("protocol error")
	ErrSize                   = errors.New("size error")
)
