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

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gangwayio/gangway/bridge"
)

func testJournal(t *testing.T) *Journal {
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		j.Close()
	})
	return j
}

func TestJournalReports(t *testing.T) {
	ctx := context.Background()
	j := testJournal(t)

	for i := 0; i < 5; i++ {
		rep := &bridge.Report{
			Kind: bridge.UnhandledTag,
			Tag:  fmt.Sprintf("Tag%d", i),
		}
		if err := j.AddReport(ctx, rep); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	if err := j.Reports(ctx, func(rep *bridge.Report) error {
		if rep.Kind != bridge.UnhandledTag {
			t.Fatalf("kind %s", rep.Kind)
		}
		got = append(got, rep.Tag)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if len(got) != 5 {
		t.Fatalf("got %d reports", len(got))
	}
	for i, tag := range got {
		if want := fmt.Sprintf("Tag%d", i); tag != want {
			t.Fatalf("report %d is %s, not %s", i, tag, want)
		}
	}
}

func TestJournalReplay(t *testing.T) {
	ctx := context.Background()
	j := testJournal(t)

	raws := []string{
		`{"tag":"A","data":1}`,
		`{"tag":"B","data":2}`,
	}
	for _, raw := range raws {
		if err := j.DeadLetter(ctx, []byte(raw)); err != nil {
			t.Fatal(err)
		}
	}

	if err := j.AddReport(ctx, &bridge.Report{
		Kind: bridge.UnhandledTag,
		Tag:  "A",
	}); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := j.Replay(ctx, func(raw []byte) error {
		got = append(got, string(raw))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != raws[0] || got[1] != raws[1] {
		t.Fatalf("replayed %#v", got)
	}

	if err := j.Drop(ctx); err != nil {
		t.Fatal(err)
	}
	n := 0
	if err := j.Replay(ctx, func(raw []byte) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("%d dead letters after Drop", n)
	}

	// Drop clears dead letters only; reports stay.
	n = 0
	if err := j.Reports(ctx, func(rep *bridge.Report) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("%d reports after Drop", n)
	}
}

// TestJournalSink runs a journal as a bridge error sink and then
// replays the dead letters into a repaired bridge.
func TestJournalSink(t *testing.T) {
	ctx := context.Background()
	j := testJournal(t)

	b := bridge.New()
	b.OnError(j.Sink())

	b.Dispatch(ctx, []byte(`{"tag":"Later","data":"keep me"}`))
	b.Dispatch(ctx, []byte(`no envelope here`))

	n := 0
	if err := j.Reports(ctx, func(rep *bridge.Report) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("%d reports", n)
	}

	// Now somebody registers for "Later" and replays.
	repaired := bridge.New()
	if err := repaired.Register("Foo", "Later", func(data json.RawMessage) (interface{}, error) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	}); err != nil {
		t.Fatal(err)
	}
	got := make([]*bridge.Message, 0, 1)
	if err := repaired.OnMessage("Foo", func(msg *bridge.Message) {
		got = append(got, msg)
	}); err != nil {
		t.Fatal(err)
	}

	if err := j.Replay(ctx, func(raw []byte) error {
		repaired.Dispatch(ctx, raw)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d messages", len(got))
	}
	if s, is := got[0].Value.(string); !is || s != "keep me" {
		t.Fatalf("value %#v", got[0].Value)
	}
}
