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

package timers

import (
	"context"
	"testing"
	"time"
)

type firing struct {
	tag  string
	data interface{}
}

func TestTimerOneShot(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fired := make(chan firing, 8)
	ts := NewTimers(func(ctx context.Context, tag string, data interface{}) {
		fired <- firing{tag: tag, data: data}
	})

	err := ts.Add(ctx, &Entry{
		Id:   "t0",
		Tag:  "Heartbeat",
		Data: "thump",
		In:   10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-fired:
		if f.tag != "Heartbeat" {
			t.Fatalf("tag %s", f.tag)
		}
		if s, is := f.data.(string); !is || s != "thump" {
			t.Fatalf("data %#v", f.data)
		}
	case <-ctx.Done():
		t.Fatal("timer never fired")
	}

	// A fired one-shot removes itself (just after emitting, so
	// give it a beat).
	time.Sleep(100 * time.Millisecond)
	if err := ts.Cancel("t0"); err == nil {
		t.Fatal("t0 still exists")
	}
}

func TestTimerCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fired := make(chan firing, 8)
	ts := NewTimers(func(ctx context.Context, tag string, data interface{}) {
		fired <- firing{tag: tag}
	})

	err := ts.Add(ctx, &Entry{
		Id:  "t1",
		Tag: "Never",
		In:  50 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := ts.Cancel("t1"); err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-fired:
		t.Fatalf("cancelled timer fired %s", f.tag)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTimerReplace(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fired := make(chan firing, 8)
	ts := NewTimers(func(ctx context.Context, tag string, data interface{}) {
		fired <- firing{tag: tag}
	})

	if err := ts.Add(ctx, &Entry{Id: "t2", Tag: "Old", In: 50 * time.Millisecond}); err != nil {
		t.Fatal(err)
	}
	// Same id: the old timer dies.
	if err := ts.Add(ctx, &Entry{Id: "t2", Tag: "New", In: 20 * time.Millisecond}); err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-fired:
		if f.tag != "New" {
			t.Fatalf("tag %s", f.tag)
		}
	case <-ctx.Done():
		t.Fatal("timer never fired")
	}

	select {
	case f := <-fired:
		t.Fatalf("replaced timer fired %s", f.tag)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTimerCron(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fired := make(chan firing, 8)
	ts := NewTimers(func(ctx context.Context, tag string, data interface{}) {
		fired <- firing{tag: tag}
	})

	// Every second (cronexpr's seconds field).
	err := ts.Add(ctx, &Entry{
		Id:   "t3",
		Tag:  "Tick",
		Cron: "* * * * * * *",
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		select {
		case f := <-fired:
			if f.tag != "Tick" {
				t.Fatalf("tag %s", f.tag)
			}
		case <-ctx.Done():
			t.Fatalf("cron firing %d never happened", i)
		}
	}

	if err := ts.Cancel("t3"); err != nil {
		t.Fatal(err)
	}
}

func TestTimerBad(t *testing.T) {
	ctx := context.Background()
	ts := NewTimers(func(ctx context.Context, tag string, data interface{}) {})

	for _, e := range []*Entry{
		{Tag: "NoId", In: time.Second},
		{Id: "no-tag", In: time.Second},
		{Id: "no-schedule", Tag: "Ever"},
		{Id: "bad-cron", Tag: "Ever", Cron: "not a cron expression"},
	} {
		if err := ts.Add(ctx, e); err == nil {
			t.Fatalf("accepted %#v", e)
		}
	}
}

func TestTimerReplaceWhileFiring(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		fired   = make(chan bool)
		release = make(chan bool)
	)
	ts := NewTimers(func(ctx context.Context, tag string, data interface{}) {
		fired <- true
		<-release
	})
	defer ts.StopAll()

	if err := ts.Add(ctx, &Entry{Id: "t4", Tag: "Old", In: time.Millisecond}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("timer never fired")
	}

	// Replace the id while the old timer is still in its emitter.
	// The old timer's cleanup must not take the new entry with it.
	if err := ts.Add(ctx, &Entry{Id: "t4", Tag: "New", In: time.Hour}); err != nil {
		t.Fatal(err)
	}
	close(release)

	time.Sleep(50 * time.Millisecond)

	if err := ts.Cancel("t4"); err != nil {
		t.Fatal(err)
	}
}
