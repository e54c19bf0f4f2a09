/* Copyright 2026 Gangway Contributors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bridge

import (
	"context"
	"sync"

	"github.com/gangwayio/gangway/envelope"
)

// Outbound is the fire-and-forget queue of envelopes headed to the
// host runtime.
//
// Send never blocks the caller: envelopes accumulate here in issue
// order, and a single forwarder drains them to the host coupling.
// There is no delivery confirmation; that's explicitly the host
// boundary's problem.
type Outbound struct {
	sync.Mutex
	queue []*envelope.Envelope

	// wake (capacity 1) nudges the forwarder when the queue goes
	// from empty to non-empty.
	wake chan struct{}
}

// NewOutbound makes an empty outbound queue.
func NewOutbound() *Outbound {
	return &Outbound{
		queue: make([]*envelope.Envelope, 0, 32),
		wake:  make(chan struct{}, 1),
	}
}

// Add appends an envelope to the queue.
func (o *Outbound) Add(e *envelope.Envelope) {
	o.Lock()
	o.queue = append(o.queue, e)
	o.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// pop removes and returns the head of the queue (or nil).
func (o *Outbound) pop() *envelope.Envelope {
	o.Lock()
	defer o.Unlock()
	if len(o.queue) == 0 {
		return nil
	}
	e := o.queue[0]
	o.queue = o.queue[1:]
	return e
}

// Forward drains the queue into out, in order, until the context is
// done.
func (o *Outbound) Forward(ctx context.Context, out chan<- *envelope.Envelope) {
	for {
		e := o.pop()
		if e == nil {
			select {
			case <-ctx.Done():
				return
			case <-o.wake:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case out <- e:
		}
	}
}

// Send encodes a payload under the given tag and queues the envelope
// for the host runtime.
//
// From the caller's point of view Send always succeeds: the only
// possible error is a payload that won't marshal, which can't happen
// with JSON-shaped values.
func (b *Bridge) Send(tag string, payload interface{}) error {
	e, err := envelope.Encode(tag, payload)
	if err != nil {
		return err
	}
	b.Logf("Bridge.Send %s", tag)
	b.outbound.Add(e)
	return nil
}

// Forward drains this bridge's outbound queue into out.
//
// Usually called (in a goroutine) by whatever couples this bridge to
// the host runtime.  See the hostio package.
func (b *Bridge) Forward(ctx context.Context, out chan<- *envelope.Envelope) {
	b.Logf("Bridge.Forward starting")
	b.outbound.Forward(ctx, out)
	b.Logf("Bridge.Forward done")
}
