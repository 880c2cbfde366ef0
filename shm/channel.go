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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Frame header layout (8 bytes, little-endian):
//
//	uint32 length   // payload length in bytes (excludes the 8-byte header)
//	uint8  flags    // frameFlag bits
//	uint8  fdCount  // descriptors travelling out-of-band with this message
//	uint16 reserved // set to zero
const channelFrameHeaderSize = 8

const (
	frameFlagCompressed = uint8(0x01)
)

var (
	// ErrWouldBlock indicates no progress is possible right now: the send
	// ring lacks free space or the receive ring holds no complete message.
	// The caller re-polls after its own wait strategy; nothing here blocks.
	ErrWouldBlock = errors.New("shm: operation would block")

	// ErrMessageTooLarge indicates a payload that can never fit the ring,
	// regardless of how much the peer drains.
	ErrMessageTooLarge = errors.New("shm: message exceeds ring capacity")
)

// Channel frames variable-length messages over a pair of ring views: tx
// carries outbound frames, rx inbound. Payloads above the configured
// threshold are zstd-compressed. Out-of-band descriptor counts ride in the
// frame header and pair with the channel's FileDescriptorQueue.
//
// Like the rings underneath, a channel is single-threaded per direction and
// entirely non-blocking.
type Channel struct {
	tx     *RingBufferView
	rx     *RingBufferView
	fds    *FileDescriptorQueue
	logger *zap.Logger

	enc         *zstd.Encoder
	dec         *zstd.Decoder
	compressMin int // 0 disables compression
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithChannelLogger attaches a logger; the default discards everything.
func WithChannelLogger(l *zap.Logger) ChannelOption {
	return func(c *Channel) { c.logger = l }
}

// WithCompression enables zstd compression for payloads of at least minSize
// bytes. Compression is skipped when it does not shrink the payload.
func WithCompression(minSize int) ChannelOption {
	return func(c *Channel) { c.compressMin = minSize }
}

// NewChannel builds a channel over the given ring views.
func NewChannel(tx, rx *RingBufferView, opts ...ChannelOption) (*Channel, error) {
	c := &Channel{
		tx:     tx,
		rx:     rx,
		fds:    NewFileDescriptorQueue(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	var err error
	if c.enc, err = zstd.NewWriter(nil); err != nil {
		return nil, fmt.Errorf("shm: zstd encoder: %w", err)
	}
	if c.dec, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("shm: zstd decoder: %w", err)
	}
	return c, nil
}

// FDQueue returns the queue pairing out-of-band descriptors with inbound
// messages.
func (c *Channel) FDQueue() *FileDescriptorQueue { return c.fds }

// Send frames payload onto the tx ring and publishes it. fdCount records how
// many descriptors the control channel will deliver for this message.
// Returns ErrWouldBlock when the ring lacks space; the write is all or
// nothing, never partial.
func (c *Channel) Send(payload []byte, fdCount int) error {
	if fdCount < 0 || fdCount > 0xFF {
		fatalf("fd count %d outside frame header range", fdCount)
	}

	body := payload
	flags := uint8(0)
	if c.compressMin > 0 && len(payload) >= c.compressMin {
		if compressed := c.enc.EncodeAll(payload, nil); len(compressed) < len(payload) {
			body = compressed
			flags |= frameFlagCompressed
		}
	}

	total := uint64(channelFrameHeaderSize) + uint64(len(body))
	if total > uint64(c.tx.Capacity()) {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrMessageTooLarge, total, c.tx.Capacity())
	}

	// Refresh the view of how much the peer has drained.
	if err := c.tx.LoadTailIndex(); err != nil {
		return err
	}
	if total > uint64(c.tx.FreeSpace()) {
		return ErrWouldBlock
	}

	var hdr [channelFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(body)))
	hdr[4] = flags
	hdr[5] = uint8(fdCount)
	binary.LittleEndian.PutUint16(hdr[6:8], 0)

	c.tx.Write(hdr[:])
	c.tx.Write(body)
	c.tx.StoreHeadIndex()

	c.logger.Debug("frame sent",
		zap.Int("payload", len(payload)),
		zap.Int("wire", len(body)),
		zap.Int("fds", fdCount),
		zap.Bool("compressed", flags&frameFlagCompressed != 0))
	return nil
}

// Recv consumes one complete frame from the rx ring, returning the payload
// and the number of out-of-band descriptors the sender attached. Returns
// ErrWouldBlock when no complete frame has been published yet — a header
// without its full payload means the writer is still mid-message.
func (c *Channel) Recv() (payload []byte, fdCount int, err error) {
	if err := c.rx.LoadHeadIndex(); err != nil {
		return nil, 0, err
	}
	if c.rx.UsedSpace() < channelFrameHeaderSize {
		return nil, 0, ErrWouldBlock
	}

	var hdr [channelFrameHeaderSize]byte
	c.rx.Peek(hdr[:])
	length := binary.LittleEndian.Uint32(hdr[0:4])
	flags := hdr[4]
	fdCount = int(hdr[5])

	// Compared in uint64: a declared length near MaxUint32 must not wrap
	// past the capacity check and reach an allocation.
	if uint64(channelFrameHeaderSize)+uint64(length) > uint64(c.rx.Capacity()) {
		// The declared frame can never fit the ring: the peer is broken
		// or hostile. Drop its descriptors too.
		c.discardFrameFDs(fdCount)
		return nil, 0, fmt.Errorf("%w: declared frame of %d bytes in ring of capacity %d",
			ErrProtocolViolation, length, c.rx.Capacity())
	}
	if c.rx.UsedSpace() < channelFrameHeaderSize+length {
		return nil, 0, ErrWouldBlock
	}

	c.rx.Discard(channelFrameHeaderSize)
	body := make([]byte, length)
	c.rx.Read(body)
	c.rx.StoreTailIndex()

	if flags&frameFlagCompressed != 0 {
		decompressed, err := c.dec.DecodeAll(body, nil)
		if err != nil {
			c.discardFrameFDs(fdCount)
			return nil, 0, fmt.Errorf("%w: undecodable compressed frame: %v", ErrProtocolViolation, err)
		}
		body = decompressed
	}

	c.logger.Debug("frame received",
		zap.Int("payload", len(body)),
		zap.Int("fds", fdCount),
		zap.Bool("compressed", flags&frameFlagCompressed != 0))
	return body, fdCount, nil
}

// discardFrameFDs drops the descriptors paired with a frame that failed,
// whether they have arrived yet or not.
func (c *Channel) discardFrameFDs(fdCount int) {
	for i := 0; i < fdCount; i++ {
		c.fds.DiscardNextFD()
	}
}
