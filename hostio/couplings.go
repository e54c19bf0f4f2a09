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

// Package hostio couples a bridge to an actual host runtime.
//
// The bridge itself doesn't know or care what's on the other side of
// the boundary.  A Couplings implementation does: stdin/stdout, a
// WebSocket server, an MQTT broker, or an HTTP endpoint.
package hostio

import (
	"context"
	"log"

	"github.com/gangwayio/gangway/bridge"
	"github.com/gangwayio/gangway/envelope"
)

// Couplings provide channels for raw inbound bytes and outbound
// envelopes.
//
// For example, an implementation could couple a bridge to an MQTT
// broker, with broker topics on one side and envelope tags on the
// other.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the inbound, outbound, and done channels.
	//
	// The inbound channel carries raw bytes exactly as the host
	// produced them: deciding whether they are well-formed
	// envelopes is the bridge's job, not the transport's.
	//
	// done is closed when the host side ends the conversation.
	IO(context.Context) (chan []byte, chan *envelope.Envelope, chan bool, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}

// Run couples a bridge to a host runtime until the input ends or the
// context is done.
//
// Inbound messages are dispatched strictly in arrival order, one at a
// time.  Outbound envelopes are forwarded concurrently (they never
// wait on inbound processing).
func Run(ctx context.Context, b *bridge.Bridge, c Couplings) error {

	// The IO goroutines (the coupling's and the forwarder) all
	// watch this context, so Run can end them before Stop waits
	// for them.
	ioctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.Start(ioctx); err != nil {
		return err
	}

	in, out, done, err := c.IO(ioctx)
	if err != nil {
		return err
	}

	go b.Forward(ioctx, out)

LOOP:
	for {
		select {
		case <-ioctx.Done():
			break LOOP
		case <-done:
			break LOOP
		case raw, ok := <-in:
			if !ok {
				break LOOP
			}
			b.Dispatch(ioctx, raw)
		}
	}

	// Cancel IO before Stop: implementations wait for their IO
	// goroutines there.
	cancel()

	return c.Stop(ctx)
}

// E logs an error (along with some context) and returns it.
func E(err error, args ...interface{}) error {
	log.Printf("hostio error %v: %s", args, err)
	return err
}
