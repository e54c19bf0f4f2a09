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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/gangwayio/gangway/bridge"
	"github.com/gangwayio/gangway/script"
	"github.com/gangwayio/gangway/timers"

	"github.com/jsccast/yaml"
)

// Config is what a YAML configuration file gives us.
type Config struct {
	// Journal is an optional filename for a bolt journal.
	//
	// The -journal command-line flag wins if both are given.
	Journal string `yaml:"journal,omitempty"`

	// DecoderTimeout bounds each JavaScript decoder invocation
	// ("250ms", "2s"; default one second).
	DecoderTimeout string `yaml:"decoderTimeout,omitempty"`

	Subscriptions []*SubscriptionConfig `yaml:"subscriptions,omitempty"`

	Timers []*TimerConfig `yaml:"timers,omitempty"`
}

// SubscriptionConfig describes one subscription.
type SubscriptionConfig struct {
	Module string `yaml:"module"`
	Tag    string `yaml:"tag"`
	Doc    string `yaml:"doc,omitempty"`

	// Decoder is optional JavaScript source.  The payload is
	// bound to 'data', and what the code returns becomes the
	// message value.  Without source, the payload just passes
	// through.
	Decoder string `yaml:"decoder,omitempty"`
}

// TimerConfig describes one timer entry.
//
// In is a string ("250ms", "1h") so configurations stay readable.
type TimerConfig struct {
	Id   string      `yaml:"id"`
	Tag  string      `yaml:"tag"`
	Data interface{} `yaml:"data,omitempty"`
	In   string      `yaml:"in,omitempty"`
	Cron string      `yaml:"cron,omitempty"`
}

// ReadConfig reads a YAML Config from the given file.
func ReadConfig(filename string) (*Config, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var c Config
	if err = yaml.Unmarshal(bs, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// passThrough just parses the payload as JSON.
func passThrough(data json.RawMessage) (interface{}, error) {
	var x interface{}
	if err := json.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	return x, nil
}

// Apply subscribes and starts timers per the Config.
func (c *Config) Apply(ctx context.Context, b *bridge.Bridge, ts *timers.Timers) error {

	i := script.NewInterpreter()
	if c.DecoderTimeout != "" {
		d, err := time.ParseDuration(c.DecoderTimeout)
		if err != nil {
			return err
		}
		i.Timeout = d
	}

	for _, s := range c.Subscriptions {
		decode := bridge.Decoder(passThrough)
		if s.Decoder != "" {
			var err error
			name := fmt.Sprintf("%s/%s", s.Module, s.Tag)
			if decode, err = i.Decoder(name, s.Decoder); err != nil {
				return err
			}
		}
		sub := &bridge.Subscription{
			Module: s.Module,
			Tag:    s.Tag,
			Doc:    s.Doc,
			Decode: decode,
		}
		if err := b.Subscribe(sub); err != nil {
			return err
		}
	}

	for _, t := range c.Timers {
		e := &timers.Entry{
			Id:   t.Id,
			Tag:  t.Tag,
			Data: t.Data,
			Cron: t.Cron,
		}
		if t.In != "" {
			d, err := time.ParseDuration(t.In)
			if err != nil {
				return err
			}
			e.In = d
		}
		if err := ts.Add(ctx, e); err != nil {
			return err
		}
	}

	return nil
}
