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

// Command ringstat creates a throwaway shared-memory segment, pushes traffic
// through one of its rings in-process and reports the observed geometry.
// Useful for eyeballing layout and capacity behavior on a new platform.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hostipc/hostipc/shm"
)

func main() {
	ringSize := flag.Uint64("ring-size", shm.DefaultRingDataSize, "ring data size in bytes")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	name := fmt.Sprintf("ringstat-%d", os.Getpid())
	seg, err := shm.CreateSegment(name, *ringSize, *ringSize, shm.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "create segment: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		seg.Close()
		shm.RemoveSegment(name)
	}()

	h := seg.Header()
	fmt.Printf("segment %s\n", seg.Path)
	fmt.Printf("  total size    %d bytes\n", h.TotalSize())
	fmt.Printf("  ring A        offset %d, data %d bytes\n", h.RingAOffset(), h.RingASize())
	fmt.Printf("  ring B        offset %d, data %d bytes\n", h.RingBOffset(), h.RingBSize())

	writer, err := seg.RingA()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ring A writer view: %v\n", err)
		os.Exit(1)
	}
	reader, err := seg.RingA()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ring A reader view: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  usable        %d bytes per ring\n", writer.Capacity())

	// Pump chunks through the ring until every offset has wrapped a few
	// times, reading back and verifying as we go.
	const rounds = 4
	chunk := make([]byte, 4096)
	if uint32(len(chunk)) > writer.Capacity() {
		chunk = chunk[:writer.Capacity()]
	}
	for i := range chunk {
		chunk[i] = byte(i)
	}
	got := make([]byte, len(chunk))

	start := time.Now()
	var moved uint64
	for total := uint64(0); total < uint64(writer.Capacity())*rounds; total += uint64(len(chunk)) {
		if err := writer.LoadTailIndex(); err != nil {
			fmt.Fprintf(os.Stderr, "load tail: %v\n", err)
			os.Exit(1)
		}
		if writer.FreeSpace() < uint32(len(chunk)) {
			fmt.Fprintf(os.Stderr, "unexpected backpressure at %d bytes\n", total)
			os.Exit(1)
		}
		writer.Write(chunk)
		writer.StoreHeadIndex()

		if err := reader.LoadHeadIndex(); err != nil {
			fmt.Fprintf(os.Stderr, "load head: %v\n", err)
			os.Exit(1)
		}
		reader.Read(got)
		reader.StoreTailIndex()

		for i := range got {
			if got[i] != chunk[i] {
				fmt.Fprintf(os.Stderr, "data mismatch at offset %d\n", i)
				os.Exit(1)
			}
		}
		moved += uint64(len(chunk))
	}
	elapsed := time.Since(start)

	st := writer.DebugState()
	fmt.Printf("final state   head=%d tail=%d used=%d\n", st.Head, st.Tail, st.Used)
	fmt.Printf("moved %d bytes in %v (%.1f MB/s)\n",
		moved, elapsed, float64(moved)/elapsed.Seconds()/1e6)
}
