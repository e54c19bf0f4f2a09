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

// Package bridge implements the message bridge between application
// modules and a host runtime: a subscription registry, an inbound
// dispatcher, an outbound channel, and an error reporter.
//
// A Bridge is an explicit value rather than ambient process state, so
// a single process (or test) can run several independent bridges.
package bridge

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gangwayio/gangway/util"
)

// Decoder turns an envelope's raw payload into a domain-level value.
//
// A Decoder is registered for a (module, tag) pair.  Its error means
// "this payload isn't what my module expects", which the dispatcher
// turns into a DecodeFailure report rather than anything fatal.
type Decoder func(data json.RawMessage) (interface{}, error)

// Message is a decoded, domain-level message headed for a module's
// update cycle.
type Message struct {
	// Module is the name of the module whose decoder produced
	// this Message.
	Module string `json:"module"`

	// Tag is the envelope tag that was dispatched.
	Tag string `json:"tag"`

	// Value is whatever the module's decoder returned.
	Value interface{} `json:"value,omitempty"`
}

// Subscription says that a module wants envelopes with a given tag,
// decoded by the given Decoder.
//
// Subscriptions are created at module initialization and then never
// mutated.
type Subscription struct {
	// Module is the owning module's name.
	Module string `json:"module" yaml:"module"`

	// Tag is the envelope tag this subscription matches.
	Tag string `json:"tag" yaml:"tag"`

	// Doc is optional markdown describing what the module does
	// with these messages.  See the tools package.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Decode is this subscription's payload decoder.
	Decode Decoder `json:"-" yaml:"-"`
}

// Bridge is the context object tying a registry, an outbound queue,
// and an error reporter to one host channel.
type Bridge struct {
	// Verbose turns on logging.
	Verbose bool

	registry *Registry
	reporter *Reporter
	outbound *Outbound

	// callbacks maps a module name to its inbound Message
	// callback.  Installed once per module at initialization.
	callbacks map[string]func(*Message)

	// Mutex guards callbacks.  Like the registry, callbacks are
	// only written during initialization, but the lock is cheap
	// and keeps tools honest.
	sync.Mutex
}

// New makes a Bridge with an empty registry and an empty outbound
// queue.
func New() *Bridge {
	return &Bridge{
		registry:  NewRegistry(),
		reporter:  NewReporter(),
		outbound:  NewOutbound(),
		callbacks: make(map[string]func(*Message), 8),
	}
}

// Register subscribes a module to a tag with the given decoder.
//
// Registering the same (module, tag) pair twice is refused with a
// *DuplicateSubscription so dispatch can't become ambiguous.  The
// same tag registered by different modules is fine: the dispatcher
// broadcasts to all of them.
func (b *Bridge) Register(module, tag string, decode Decoder) error {
	return b.Subscribe(&Subscription{
		Module: module,
		Tag:    tag,
		Decode: decode,
	})
}

// Subscribe is Register for callers that also want to provide a Doc.
func (b *Bridge) Subscribe(sub *Subscription) error {
	b.Logf("Bridge.Subscribe %s %s", sub.Module, sub.Tag)
	return b.registry.Add(sub)
}

// OnMessage installs the given module's Message callback.
//
// Install at most one callback per module, at initialization.  A
// second installation for the same module is refused.
func (b *Bridge) OnMessage(module string, f func(*Message)) error {
	b.Lock()
	defer b.Unlock()
	if _, have := b.callbacks[module]; have {
		return &DuplicateCallback{
			Module: module,
		}
	}
	b.callbacks[module] = f
	return nil
}

// OnError installs a sink for error reports.
//
// See Reporter for the (lack of) guarantees a sink gets.
func (b *Bridge) OnError(sink func(*Report)) {
	b.reporter.OnError(sink)
}

// Registry exposes this bridge's subscriptions (for tools).
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// Logf logs if b.Verbose.
func (b *Bridge) Logf(format string, args ...interface{}) {
	if b.Verbose {
		log.Printf(format, args...)
	}
}

// deliver hands a Message to its module's callback.
//
// A module with no installed callback just drops its messages (with a
// log line).  A panicking callback is recovered so one bad module
// can't stop dispatch for the rest.
func (b *Bridge) deliver(msg *Message) {
	b.Lock()
	f, have := b.callbacks[msg.Module]
	b.Unlock()

	if !have {
		util.Warnf("bridge: no callback for module %s (tag %s)", msg.Module, msg.Tag)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			util.Warnf("bridge: callback panic in module %s: %v", msg.Module, r)
		}
	}()

	f(msg)
}
