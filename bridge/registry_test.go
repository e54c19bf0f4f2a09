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
	"testing"
)

func anyDecoder(data json.RawMessage) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()

	sub := func(module, tag string) error {
		return r.Add(&Subscription{
			Module: module,
			Tag:    tag,
			Decode: anyDecoder,
		})
	}

	if err := sub("Foo", "Ping"); err != nil {
		t.Fatal(err)
	}
	if err := sub("Bar", "Ping"); err != nil {
		t.Fatal(err)
	}
	if err := sub("Foo", "Pong"); err != nil {
		t.Fatal(err)
	}

	err := sub("Foo", "Ping")
	if err == nil {
		t.Fatal("duplicate (Foo, Ping) accepted")
	}
	if _, is := err.(*DuplicateSubscription); !is {
		t.Fatalf("error is a %T", err)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()

	for _, module := range []string{"A", "B", "C", "D"} {
		err := r.Add(&Subscription{
			Module: module,
			Tag:    "Tick",
			Decode: anyDecoder,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	subs := r.Find("Tick")
	if len(subs) != 4 {
		t.Fatalf("found %d subscriptions", len(subs))
	}
	for i, module := range []string{"A", "B", "C", "D"} {
		if subs[i].Module != module {
			t.Fatalf("subscription %d is %s, not %s", i, subs[i].Module, module)
		}
	}
}

func TestRegistryFindMisses(t *testing.T) {
	r := NewRegistry()
	if subs := r.Find("Nothing"); subs != nil {
		t.Fatalf("found %#v", subs)
	}
}

func TestRegistryBadSubscription(t *testing.T) {
	r := NewRegistry()

	for _, sub := range []*Subscription{
		{Tag: "Ping", Decode: anyDecoder},
		{Module: "Foo", Decode: anyDecoder},
		{Module: "Foo", Tag: "Ping"},
	} {
		err := r.Add(sub)
		if err == nil {
			t.Fatalf("accepted %#v", sub)
		}
		if _, is := err.(*BadSubscription); !is {
			t.Fatalf("error is a %T", err)
		}
	}
}
