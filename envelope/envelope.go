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

// Package envelope defines the generic wire unit exchanged with a
// host runtime: a tag naming the kind of message and an opaque
// payload whose shape only a subscriber's decoder knows.
//
// This package does transport-level work only.  Payload validation
// belongs to whoever registered for the tag.
package envelope

import (
	"bytes"
	"encoding/json"
)

// Envelope is a single message on the boundary with the host runtime.
//
// Data is deliberately left as raw JSON.  An Envelope with an
// unrecognized Tag is not an error here; it only becomes one at
// dispatch.
type Envelope struct {
	Tag  string          `json:"tag"`
	Data json.RawMessage `json:"data"`
}

// Encode marshals the given payload to make an Envelope with the
// given tag.
//
// The only way Encode can fail is if the payload won't marshal.
func Encode(tag string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(&payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Tag:  tag,
		Data: data,
	}, nil
}

// Bytes renders the Envelope in its wire form.
func (e *Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses raw bytes from the host boundary into an Envelope.
//
// The raw input must be a JSON object with a string "tag" and a
// "data" property.  "data" can be any JSON value (including null),
// but it has to be there.  Anything else gets a *Malformed error.
func Decode(raw []byte) (*Envelope, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &Malformed{
			Raw:    raw,
			Reason: "not a JSON object",
		}
	}

	tagJS, have := m["tag"]
	if !have {
		return nil, &Malformed{
			Raw:    raw,
			Reason: `no "tag" property`,
		}
	}

	var tag string
	if err := json.Unmarshal(tagJS, &tag); err != nil {
		return nil, &Malformed{
			Raw:    raw,
			Reason: `"tag" isn't a string`,
		}
	}

	data, have := m["data"]
	if !have {
		return nil, &Malformed{
			Raw:    raw,
			Reason: `no "data" property`,
		}
	}

	return &Envelope{
		Tag:  tag,
		Data: data,
	}, nil
}

// Equal reports whether two payloads are the same JSON value
// (ignoring whitespace and such).
func Equal(a, b json.RawMessage) bool {
	var x, y interface{}
	if err := json.Unmarshal(a, &x); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Unmarshal(b, &y); err != nil {
		return false
	}
	js0, err := json.Marshal(&x)
	if err != nil {
		return false
	}
	js1, err := json.Marshal(&y)
	if err != nil {
		return false
	}
	return bytes.Equal(js0, js1)
}
