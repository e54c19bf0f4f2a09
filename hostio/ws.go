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

package hostio

import (
	"context"
	"log"
	"net/url"

	"github.com/gangwayio/gangway/envelope"

	"github.com/gorilla/websocket"
)

// WebSocket is a Couplings for a host runtime reachable as a
// WebSocket server.
//
// Each text frame from the host is one raw inbound message; each
// outbound envelope goes out as one text frame.
type WebSocket struct {
	// URL is the target WebSocket server ("ws://...").
	URL string

	in   chan []byte
	out  chan *envelope.Envelope
	done chan bool
	conn *websocket.Conn
}

// NewWebSocket makes a WebSocket Couplings for the given URL.
func NewWebSocket(url string) *WebSocket {
	return &WebSocket{
		URL: url,
	}
}

// Start creates the WebSocket session and starts processing it.
func (c *WebSocket) Start(ctx context.Context) error {

	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}

	c.in = make(chan []byte)
	c.out = make(chan *envelope.Envelope)
	c.done = make(chan bool)

	log.Println("wsconnect", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	c.conn = conn

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, bs, err := conn.ReadMessage()
			if err != nil {
				E(err, "ReadMessage")
				close(c.done)
				return
			}
			if len(bs) == 0 {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case c.in <- bs:
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-c.out:
				if e == nil {
					return
				}
				js, err := e.Bytes()
				if err != nil {
					E(err, "Marshal")
					continue
				}
				if err = conn.WriteMessage(websocket.TextMessage, js); err != nil {
					E(err, "WriteMessage")
					return
				}
			}
		}
	}()

	return nil
}

// IO just returns the channels that Start() initialized.
func (c *WebSocket) IO(ctx context.Context) (chan []byte, chan *envelope.Envelope, chan bool, error) {
	return c.in, c.out, c.done, nil
}

// Stop terminates the WebSocket connection.
func (c *WebSocket) Stop(ctx context.Context) error {
	log.Printf("Disconnecting")
	return c.conn.Close()
}
