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
	"encoding/json"
	"sync"
	"time"

	"github.com/gangwayio/gangway/util"
)

// Kind classifies an error report.
type Kind string

const (
	// MalformedEnvelope: the raw input didn't have the envelope
	// shape.  A transport-level problem.
	MalformedEnvelope Kind = "malformedEnvelope"

	// UnhandledTag: the envelope was fine, but no module is
	// subscribed to its tag.
	UnhandledTag Kind = "unhandledTag"

	// DecodeFailure: one subscriber's decoder rejected the
	// payload.  Other subscribers for the same envelope are not
	// affected.
	DecodeFailure Kind = "decodeFailure"
)

// Report describes one non-fatal dispatch problem.
type Report struct {
	// Kind says what went wrong.
	Kind Kind `json:"kind"`

	// Tag is the envelope tag, when the envelope got far enough
	// to have one.
	Tag string `json:"tag,omitempty"`

	// Module is the owning module, for DecodeFailure reports.
	Module string `json:"module,omitempty"`

	// Raw is the offending input, kept for diagnostics (and for
	// dead-lettering; see the journal package).
	Raw json.RawMessage `json:"raw,omitempty"`

	// Err is the string form of the underlying error.
	Err string `json:"err,omitempty"`

	// At is when the report was made (UTC).
	At time.Time `json:"at"`
}

// Reporter fans reports out to zero or more sinks.
//
// A Reporter is a terminal: reporting never returns an error, never
// panics, and never stalls dispatch.  A sink that panics gets its
// panic swallowed (with a log line), because a monitoring hiccup must
// not destabilize message processing.
type Reporter struct {
	sync.Mutex
	sinks []func(*Report)
}

// NewReporter makes a Reporter with no sinks.
//
// With no sinks, reports just go to Logf.
func NewReporter() *Reporter {
	return &Reporter{
		sinks: make([]func(*Report), 0, 2),
	}
}

// OnError adds a sink.
func (r *Reporter) OnError(sink func(*Report)) {
	r.Lock()
	r.sinks = append(r.sinks, sink)
	r.Unlock()
}

// Report delivers the report to every sink.
func (r *Reporter) Report(rep *Report) {
	if rep.At.IsZero() {
		rep.At = time.Now().UTC()
	}

	r.Lock()
	acc := make([]func(*Report), len(r.sinks))
	copy(acc, r.sinks)
	r.Unlock()

	if len(acc) == 0 {
		util.Logf("bridge report %s tag=%s module=%s err=%s",
			rep.Kind, rep.Tag, rep.Module, rep.Err)
		return
	}

	for _, sink := range acc {
		protect(rep, sink)
	}
}

// protect runs one sink, swallowing any panic.
func protect(rep *Report, sink func(*Report)) {
	defer func() {
		if r := recover(); r != nil {
			util.Warnf("bridge: report sink panic: %v", r)
		}
	}()
	sink(rep)
}
