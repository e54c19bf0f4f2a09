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

// Package timers emits envelopes on schedules: one-shot delays and
// recurring cron expressions.
//
// The usual emitter is a bridge's Send, which makes a timer a
// scheduled outbound message to the host runtime (heartbeats, polls,
// keepalives).
package timers

// ToDo: Timers.Suspend, Timers.Resume

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/gangwayio/gangway/util"
)

// Entry represents a pending timer.
//
// Exactly one of In or Cron should have a value.
type Entry struct {
	// Id names the timer.  Adding an Entry with an existing Id
	// cancels the old one first.
	Id string `json:"id" yaml:"id"`

	// Tag is the envelope tag to emit.
	Tag string `json:"tag" yaml:"tag"`

	// Data is the payload to emit.
	Data interface{} `json:"data,omitempty" yaml:"data,omitempty"`

	// In delays a one-shot emission.
	In time.Duration `json:"in,omitempty" yaml:"in,omitempty"`

	// Cron schedules recurring emissions ("*/5 * * * * * *"
	// style, with seconds).
	Cron string `json:"cron,omitempty" yaml:"cron,omitempty"`

	// Ctl cancels this timer when closed.
	Ctl chan bool `json:"-" yaml:"-"`

	cron   *cronexpr.Expression
	timers *Timers
}

// Emitter is what fires when a timer goes off.
type Emitter func(ctx context.Context, tag string, data interface{})

// Timers represents pending timers.
type Timers struct {
	Map map[string]*Entry

	// Emitter is called for every firing.
	Emitter Emitter `json:"-"`

	sync.Mutex
}

// NewTimers creates a Timers with the given function that entries
// will use to emit their messages.
func NewTimers(emitter Emitter) *Timers {
	return &Timers{
		Map:     make(map[string]*Entry, 8),
		Emitter: emitter,
	}
}

// Add starts the given timer.
//
// A cron Entry that doesn't parse is refused here, before anything
// starts ticking.
func (ts *Timers) Add(ctx context.Context, e *Entry) error {
	util.Logf("Timers.Add %s", e.Id)

	if e.Id == "" || e.Tag == "" {
		return fmt.Errorf("timer needs an id and a tag")
	}
	if e.Cron != "" {
		c, err := cronexpr.Parse(e.Cron)
		if err != nil {
			return fmt.Errorf("bad cron '%s': %s", e.Cron, err)
		}
		e.cron = c
	} else if e.In <= 0 {
		return fmt.Errorf("timer '%s' has neither 'in' nor 'cron'", e.Id)
	}

	e.Ctl = make(chan bool)
	e.timers = ts

	ts.Lock()
	if _, have := ts.Map[e.Id]; have {
		ts.cancel(e.Id)
	}
	ts.Map[e.Id] = e
	ts.Unlock()

	go e.run(ctx)

	return nil
}

// Cancel attempts to cancel the timer with the given id.
func (ts *Timers) Cancel(id string) error {
	ts.Lock()
	err := ts.cancel(id)
	ts.Unlock()
	return err
}

func (ts *Timers) cancel(id string) error {
	util.Logf("Timers.cancel %s", id)

	e, have := ts.Map[id]
	if !have {
		return fmt.Errorf("timer '%s' doesn't exist", id)
	}
	delete(ts.Map, id)
	close(e.Ctl)

	return nil
}

// StopAll cancels every pending timer.
func (ts *Timers) StopAll() {
	ts.Lock()
	for id := range ts.Map {
		ts.cancel(id)
	}
	ts.Unlock()
}

// remove takes this Entry out of the map, unless Add has already
// replaced it with a new Entry under the same Id.
func (e *Entry) remove() {
	e.timers.Lock()
	if e.timers.Map[e.Id] == e {
		delete(e.timers.Map, e.Id)
	}
	e.timers.Unlock()
}

// run executes the Entry at the appointed time(s) if the Entry isn't
// cancelled first.
func (e *Entry) run(ctx context.Context) {
	util.Logf("Entry %s run", e.Id)

	if e.cron == nil {
		t := time.NewTimer(e.In)
		select {
		case <-t.C:
			util.Logf("Firing timer '%s'", e.Id)
			e.timers.Emitter(ctx, e.Tag, e.Data)
			e.remove()
		case <-e.Ctl:
			util.Logf("Canceling timer '%s'", e.Id)
			t.Stop()
		case <-ctx.Done():
			t.Stop()
		}
		return
	}

	for {
		now := time.Now()
		next := e.cron.Next(now)
		if next.IsZero() {
			util.Logf("Timer '%s' has no next firing", e.Id)
			e.remove()
			return
		}
		t := time.NewTimer(next.Sub(now))
		select {
		case <-t.C:
			util.Logf("Firing timer '%s'", e.Id)
			e.timers.Emitter(ctx, e.Tag, e.Data)
		case <-e.Ctl:
			util.Logf("Canceling timer '%s'", e.Id)
			t.Stop()
			return
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}
