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
	"encoding/binary"
	"errors"
	"testing"
)

// testChannelPair builds two channels over a shared pair of rings, so that
// everything a sends arrives at b and vice versa.
func testChannelPair(t *testing.T, ringSize int, opts ...ChannelOption) (a, b *Channel) {
	t.Helper()
	_, _, aw, br := testRing(t, ringSize)
	_, _, bw, ar := testRing(t, ringSize)

	var err error
	a, err = NewChannel(aw, ar, opts...)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	b, err = NewChannel(bw, br, opts...)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	return a, b
}

func TestChannelRoundTrip(t *testing.T) {
	a, b := testChannelPair(t, 256)

	msgs := [][]byte{
		[]byte("first"),
		{},
		[]byte("a somewhat longer third message"),
	}
	for _, m := range msgs {
		if err := a.Send(m, 0); err != nil {
			t.Fatalf("Send(%q): %v", m, err)
		}
	}
	for _, want := range msgs {
		got, fds, err := b.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if fds != 0 {
			t.Fatalf("unexpected fd count %d", fds)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("payload mismatch: %q vs %q", got, want)
		}
	}
	if _, _, err := b.Recv(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("drained channel should report would-block, got %v", err)
	}
}

func TestChannelBidirectional(t *testing.T) {
	a, b := testChannelPair(t, 128)

	if err := a.Send([]byte("ping"), 0); err != nil {
		t.Fatalf("Send: %v", err)
	}
	req, _, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if err := b.Send(append([]byte("re: "), req...), 0); err != nil {
		t.Fatalf("reply Send: %v", err)
	}
	resp, _, err := a.Recv()
	if err != nil {
		t.Fatalf("reply Recv: %v", err)
	}
	if string(resp) != "re: ping" {
		t.Fatalf("reply = %q", resp)
	}
}

func TestChannelWouldBlockOnFullRing(t *testing.T) {
	a, b := testChannelPair(t, 64) // capacity 63, room for ~3 small frames

	sent := 0
	for {
		err := a.Send([]byte("0123456789"), 0)
		if errors.Is(err, ErrWouldBlock) {
			break
		}
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		sent++
		if sent > 10 {
			t.Fatal("ring never filled")
		}
	}
	if sent == 0 {
		t.Fatal("no frame fit at all")
	}

	// Draining one frame makes room again.
	if _, _, err := b.Recv(); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if err := a.Send([]byte("0123456789"), 0); err != nil {
		t.Fatalf("Send after drain: %v", err)
	}
}

func TestChannelMessageTooLarge(t *testing.T) {
	a, _ := testChannelPair(t, 64)

	err := a.Send(make([]byte, 64), 0)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestChannelPartialFrameWouldBlock(t *testing.T) {
	_, _, w, rxr := testRing(t, 256)
	_, _, txw, _ := testRing(t, 256)

	c, err := NewChannel(txw, rxr)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	// Publish a header that promises 100 bytes but deliver only 10.
	var hdr [channelFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], 100)
	w.Write(hdr[:])
	w.Write(make([]byte, 10))
	w.StoreHeadIndex()

	if _, _, err := c.Recv(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("incomplete frame should report would-block, got %v", err)
	}
}

func TestChannelOversizeFrameIsProtocolViolation(t *testing.T) {
	_, _, w, rxr := testRing(t, 64)
	_, _, txw, _ := testRing(t, 64)

	c, err := NewChannel(txw, rxr)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	// A declared length that can never fit the ring, with two descriptors
	// attached that must be dropped alongside the frame.
	var hdr [channelFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], 1<<20)
	hdr[5] = 2
	w.Write(hdr[:])
	w.StoreHeadIndex()

	if _, _, err := c.Recv(); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}

	// The two discards were registered before the descriptors arrived, so
	// both later pushes are swallowed and a third survives.
	q := c.FDQueue()
	q.PushFD(InvalidFD)
	q.PushFD(InvalidFD)
	q.PushFD(InvalidFD)
	if q.Len() != 1 {
		t.Fatalf("expected 1 surviving descriptor, got %d", q.Len())
	}
}

// A declared length near MaxUint32 must not wrap around the header size and
// sneak past the capacity check: it is a protocol violation like any other
// oversize frame, never a panic or an allocation.
func TestChannelNearMaxLengthIsProtocolViolation(t *testing.T) {
	_, _, w, rxr := testRing(t, 64)
	_, _, txw, _ := testRing(t, 64)

	c, err := NewChannel(txw, rxr)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}

	for _, length := range []uint32{0xFFFFFFF8, 0xFFFFFFFF, 0xFFFFFFFA} {
		var hdr [channelFrameHeaderSize]byte
		binary.LittleEndian.PutUint32(hdr[0:4], length)
		hdr[5] = 1
		w.Write(hdr[:])
		w.StoreHeadIndex()

		if _, _, err := c.Recv(); !errors.Is(err, ErrProtocolViolation) {
			t.Fatalf("length %#x: expected protocol violation, got %v", length, err)
		}

		// The descriptor paired with the rejected frame is swallowed.
		c.FDQueue().PushFD(InvalidFD)
		if got := c.FDQueue().Len(); got != 0 {
			t.Fatalf("length %#x: expected discarded descriptor, queue len %d", length, got)
		}

		// Drain the rejected header so the next round starts clean.
		rxr.Discard(rxr.UsedSpace())
		rxr.StoreTailIndex()
	}
}

func TestChannelCompression(t *testing.T) {
	a, b := testChannelPair(t, 4096, WithCompression(64))

	payload := bytes.Repeat([]byte("abcdefgh"), 400) // compressible, above threshold
	if err := a.Send(payload, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, _, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("compressed payload did not round-trip")
	}
}

func TestChannelCompressionFitsOversizePayload(t *testing.T) {
	// Uncompressed the payload exceeds the ring; compressed it fits.
	a, b := testChannelPair(t, 1024, WithCompression(64))

	payload := bytes.Repeat([]byte{0x42}, 4000)
	if err := a.Send(payload, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, _, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload did not round-trip")
	}
}

func TestChannelFDCountTravelsWithFrame(t *testing.T) {
	a, b := testChannelPair(t, 256)

	if err := a.Send([]byte("with fds"), 3); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, fds, err := b.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if fds != 3 {
		t.Fatalf("fd count = %d, expected 3", fds)
	}
}

func TestChannelFDCountOutOfRangePanics(t *testing.T) {
	a, _ := testChannelPair(t, 256)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for fd count above 255")
		}
	}()
	a.Send([]byte("x"), 256)
}
