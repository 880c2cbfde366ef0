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
	"context"
	"time"
)

// Handshake over the segment header's ready flags. This is the only place a
// peer is waited for; the data path itself never blocks.

const readyPollInterval = time.Millisecond

// WaitForClient returns once the client has mapped the segment and set its
// ready flag. The server calls this after CreateSegment.
func (s *Segment) WaitForClient(ctx context.Context) error {
	return s.waitReady(ctx, func() bool { return s.Header().ClientReady() })
}

// WaitForServer returns once the server's ready flag is set. The client
// calls this after OpenSegment.
func (s *Segment) WaitForServer(ctx context.Context) error {
	return s.waitReady(ctx, func() bool { return s.Header().ServerReady() })
}

func (s *Segment) waitReady(ctx context.Context, ready func() bool) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if ready() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
