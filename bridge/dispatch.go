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
	"encoding/json"
	"fmt"

	"github.com/gangwayio/gangway/envelope"

	. "github.com/gangwayio/gangway/util/testutil"
)

// Dispatch processes one raw inbound message completely: decode the
// envelope, resolve its tag, and run every matching subscriber.
//
// Nothing here is fatal.  A malformed envelope, an unknown tag, or a
// failing decoder each become exactly one Report, and Dispatch
// returns ready for the next message.
//
// Subscribers for a tag run in registration order, and each one's
// success or failure is independent of the others.
func (b *Bridge) Dispatch(ctx context.Context, raw []byte) {
	b.Logf("Bridge.Dispatch %s", JShort(string(raw)))

	e, err := envelope.Decode(raw)
	if err != nil {
		b.reporter.Report(&Report{
			Kind: MalformedEnvelope,
			Raw:  rawJS(raw),
			Err:  err.Error(),
		})
		return
	}

	subs := b.registry.Find(e.Tag)
	if len(subs) == 0 {
		b.reporter.Report(&Report{
			Kind: UnhandledTag,
			Tag:  e.Tag,
			Raw:  rawJS(raw),
		})
		return
	}

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		v, err := decode(sub, e.Data)
		if err != nil {
			b.reporter.Report(&Report{
				Kind:   DecodeFailure,
				Tag:    e.Tag,
				Module: sub.Module,
				Raw:    rawJS(raw),
				Err:    err.Error(),
			})
			continue
		}

		b.deliver(&Message{
			Module: sub.Module,
			Tag:    e.Tag,
			Value:  v,
		})
	}
}

// rawJS makes raw input safe to carry in a Report's Raw field, which
// is JSON.  Input that isn't valid JSON (it happens; that's what
// MalformedEnvelope is for) gets JSON-quoted instead.
func rawJS(raw []byte) json.RawMessage {
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	js, err := json.Marshal(string(raw))
	if err != nil {
		// String marshaling replaces bad UTF-8; it doesn't fail.
		return json.RawMessage(`"?"`)
	}
	return json.RawMessage(js)
}

// decode runs one subscription's decoder, converting a panic into a
// plain error.
func decode(sub *Subscription, data json.RawMessage) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return sub.Decode(data)
}

// Loop dispatches raw inbound messages strictly in arrival order
// until in is closed or the context is done.
//
// One message is processed completely (all fan-out, all reports)
// before the next is read.  There is no batching and no reordering.
func (b *Bridge) Loop(ctx context.Context, in <-chan []byte) error {
	b.Logf("Bridge.Loop starting")
	for {
		select {
		case <-ctx.Done():
			b.Logf("Bridge.Loop shutting down (ctx.Done)")
			return ctx.Err()
		case raw, ok := <-in:
			if !ok {
				b.Logf("Bridge.Loop shutting down (in closed)")
				return nil
			}
			b.Dispatch(ctx, raw)
		}
	}
}
