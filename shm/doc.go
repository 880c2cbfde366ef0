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

// Package shm moves byte-oriented messages between two processes on the same
// host through a shared-memory segment.
//
// The only synchronization between the peers is a pair of 32-bit atomic
// indices per ring, read and written with sequentially consistent ordering.
// Nothing in the data path blocks, locks or issues a syscall: the ring API
// is poll-based, and waiting for data or space belongs to whatever event
// mechanism the caller owns. The peer on the other side of the segment is
// untrusted — it may be buggy, malicious, or dead mid-write — so every index
// loaded from shared memory is validated before use and a violation poisons
// the local view rather than corrupting it.
package shm
