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
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/gangwayio/gangway/envelope"

	"golang.org/x/net/publicsuffix"
)

// HTTPPoll is a Couplings for a host runtime that only speaks HTTP.
//
// Inbound: GET URL returns a JSON array of envelopes (possibly
// empty), polled every Interval.  Outbound: each envelope is POSTed
// to URL.
//
// The client keeps a cookie jar so hosts behind session-affine
// frontends keep talking to the same backend.
type HTTPPoll struct {
	// URL is the host endpoint for both GET polling and POSTs.
	URL string

	// Interval is the polling period.
	Interval time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	client *http.Client

	in   chan []byte
	out  chan *envelope.Envelope
	done chan bool
}

// NewHTTPPoll makes an HTTPPoll Couplings for the given endpoint.
func NewHTTPPoll(url string, interval time.Duration) *HTTPPoll {
	return &HTTPPoll{
		URL:      url,
		Interval: interval,
		Timeout:  10 * time.Second,
	}
}

// Start sets up the HTTP client and starts the polling loop.
func (c *HTTPPoll) Start(ctx context.Context) error {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return err
	}
	c.client = &http.Client{
		Jar:     jar,
		Timeout: c.Timeout,
	}

	c.in = make(chan []byte)
	c.out = make(chan *envelope.Envelope)
	c.done = make(chan bool)

	go func() {
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.poll(ctx); err != nil {
					E(err, "poll", c.URL)
				}
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
				if err := c.post(ctx, e); err != nil {
					E(err, "post", e.Tag)
				}
			}
		}
	}()

	return nil
}

// poll does one GET and forwards whatever envelopes came back.
func (c *HTTPPoll) poll(ctx context.Context) error {
	req, err := http.NewRequest("GET", c.URL, nil)
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bs, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("poll status %s", resp.Status)
		return nil
	}
	if len(bs) == 0 {
		return nil
	}

	// Raw messages, not envelopes: whether each element is a
	// well-formed envelope is the bridge's call.
	var batch []json.RawMessage
	if err := json.Unmarshal(bs, &batch); err != nil {
		// Not an array: treat the whole body as one message.
		batch = []json.RawMessage{json.RawMessage(bs)}
	}

	for _, raw := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c.in <- []byte(raw):
		}
	}

	return nil
}

// post sends one envelope to the host.
func (c *HTTPPoll) post(ctx context.Context, e *envelope.Envelope) error {
	js, err := e.Bytes()
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", c.URL, ioutil.NopCloser(bytes.NewReader(js)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(ctx)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	ioutil.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		log.Printf("post status %s", resp.Status)
	}

	return nil
}

// IO just returns the channels that Start() initialized.
func (c *HTTPPoll) IO(ctx context.Context) (chan []byte, chan *envelope.Envelope, chan bool, error) {
	return c.in, c.out, c.done, nil
}

// Stop does nothing: the polling loops stop with their context.
func (c *HTTPPoll) Stop(ctx context.Context) error {
	return nil
}
