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
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/hostipc/hostipc/oserror"
)

// SegmentOption configures segment creation and opening.
type SegmentOption func(*Segment)

// WithLogger attaches a logger to the segment. The default discards
// everything.
func WithLogger(l *zap.Logger) SegmentOption {
	return func(s *Segment) { s.logger = l }
}

// CreateSegment creates, sizes and maps a new shared memory segment and
// initializes its header and ring indices. The creating side is the server.
func CreateSegment(name string, ringASize, ringBSize uint64, opts ...SegmentOption) (*Segment, error) {
	path := segmentPath(name)

	totalSize, ringAOffset, ringBOffset, err := CalculateSegmentLayout(ringASize, ringBSize)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create segment file %s: %w", path, oserror.FromError(err))
	}
	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(totalSize)); err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: size segment file: %w", oserror.FromError(err))
	}

	mem, err := mapFile(file, int(totalSize))
	if err != nil {
		cleanup()
		return nil, err
	}

	s := &Segment{File: file, Mem: mem, Path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	h := s.Header()
	h.SetMagic(magicBytes())
	h.SetVersion(SegmentVersion)
	h.SetTotalSize(totalSize)
	h.SetRingAOffset(ringAOffset)
	h.SetRingASize(ringASize)
	h.SetRingBOffset(ringBOffset)
	h.SetRingBSize(ringBSize)
	h.SetServerPID(uint32(os.Getpid()))
	h.SetServerReady(true)

	s.logger.Debug("segment created",
		zap.String("path", path),
		zap.Uint64("total_size", totalSize),
		zap.Uint64("ring_a", ringASize),
		zap.Uint64("ring_b", ringBSize))
	return s, nil
}

// OpenSegment maps an existing segment created by a peer and validates its
// header before any offset in it is used. The opening side is the client.
func OpenSegment(name string, opts ...SegmentOption) (*Segment, error) {
	path := segmentPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open segment file %s: %w", path, oserror.FromError(err))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: stat segment file: %w", oserror.FromError(err))
	}
	if info.Size() < SegmentHeaderSize {
		file.Close()
		return nil, fmt.Errorf("shm: segment file too small: %d bytes", info.Size())
	}

	mem, err := mapFile(file, int(info.Size()))
	if err != nil {
		file.Close()
		return nil, err
	}

	s := &Segment{File: file, Mem: mem, Path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := ValidateSegmentHeader(s.Header()); err != nil {
		unmapMemory(mem)
		file.Close()
		return nil, err
	}

	h := s.Header()
	h.SetClientPID(uint32(os.Getpid()))
	h.SetClientReady(true)

	s.logger.Debug("segment opened",
		zap.String("path", path),
		zap.Uint64("total_size", h.TotalSize()))
	return s, nil
}

// RemoveSegment removes a segment's backing file.
func RemoveSegment(name string) error {
	if err := os.Remove(segmentPath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("shm: segment %s: %w", name, oserror.ErrDoesNotExist)
		}
		return fmt.Errorf("shm: remove segment %s: %w", name, oserror.FromError(err))
	}
	return nil
}

// SegmentExists reports whether a segment's backing file is present.
func SegmentExists(name string) bool {
	_, err := os.Stat(segmentPath(name))
	return err == nil
}

// segmentPath places segments under /dev/shm when available (memory-backed
// on Linux), falling back to the temporary directory.
func segmentPath(name string) string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", "hostipc_"+name)
	}
	return filepath.Join(os.TempDir(), "hostipc_"+name)
}

func mapFile(file *os.File, size int) ([]byte, error) {
	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap: %w", oserror.FromError(err))
	}
	return mem, nil
}

func unmapMemory(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("shm: munmap: %w", oserror.FromError(err))
	}
	return nil
}
