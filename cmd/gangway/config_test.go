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

package main

import (
	"context"
	"testing"

	"github.com/gangwayio/gangway/bridge"
	"github.com/gangwayio/gangway/timers"
)

func TestReadConfig(t *testing.T) {
	c, err := ReadConfig("testdata/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Subscriptions) != 2 {
		t.Fatal(len(c.Subscriptions))
	}
	if len(c.Timers) != 1 {
		t.Fatal(len(c.Timers))
	}
	if c.DecoderTimeout != "500ms" {
		t.Fatal(c.DecoderTimeout)
	}
}

func TestConfigApply(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := ReadConfig("testdata/config.yaml")
	if err != nil {
		t.Fatal(err)
	}

	b := bridge.New()

	ts := timers.NewTimers(func(ctx context.Context, tag string, data interface{}) {
	})
	defer ts.StopAll()

	if err = c.Apply(ctx, b, ts); err != nil {
		t.Fatal(err)
	}

	var got []*bridge.Message
	if err = b.OnMessage("m", func(msg *bridge.Message) {
		got = append(got, msg)
	}); err != nil {
		t.Fatal(err)
	}

	b.Dispatch(ctx, []byte(`{"tag":"Double","data":21}`))
	b.Dispatch(ctx, []byte(`{"tag":"Note","data":{"x":1}}`))

	if len(got) != 2 {
		t.Fatal(len(got))
	}

	if n, is := got[0].Value.(float64); !is || n != 42 {
		t.Fatal(got[0].Value)
	}

	m, is := got[1].Value.(map[string]interface{})
	if !is {
		t.Fatal(got[1].Value)
	}
	if x, _ := m["x"].(float64); x != 1 {
		t.Fatal(m)
	}

	if _, have := ts.Map["heartbeat"]; !have {
		t.Fatal("no heartbeat timer")
	}
}

func TestConfigApplyBadDecoder(t *testing.T) {
	ctx := context.Background()

	c := &Config{
		Subscriptions: []*SubscriptionConfig{
			{
				Module:  "m",
				Tag:     "Broken",
				Decoder: "return data +",
			},
		},
	}

	b := bridge.New()
	ts := timers.NewTimers(func(ctx context.Context, tag string, data interface{}) {})
	defer ts.StopAll()

	if err := c.Apply(ctx, b, ts); err == nil {
		t.Fatal("expected a compilation error")
	}
}
