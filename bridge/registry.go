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
	"sync"
)

// Registry is the table of subscriptions for one bridge.
//
// Tags are namespaced per module: a (module, tag) pair can be
// registered at most once, but several modules can each register the
// same tag, and a matching envelope fans out to all of them.
//
// The registry is written during initialization (before any dispatch)
// and read afterwards, so the lock sees essentially no contention.
type Registry struct {
	sync.Mutex

	// byTag maps a tag to its subscriptions in registration
	// order.  The value is a list, not a single Subscription, to
	// preserve the one-tag-many-modules behavior.
	byTag map[string][]*Subscription

	// pairs tracks which (module, tag) pairs are taken.
	pairs map[pair]bool

	// all keeps every subscription in overall registration order,
	// mostly for tools.
	all []*Subscription
}

type pair struct {
	module string
	tag    string
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag: make(map[string][]*Subscription, 32),
		pairs: make(map[pair]bool, 32),
	}
}

// Add registers a subscription.
//
// Returns a *DuplicateSubscription if this (module, tag) pair was
// registered before, and a *BadSubscription if the subscription has
// no module, no tag, or no decoder.
func (r *Registry) Add(sub *Subscription) error {
	if sub == nil || sub.Module == "" || sub.Tag == "" || sub.Decode == nil {
		return &BadSubscription{
			Sub: sub,
		}
	}

	r.Lock()
	defer r.Unlock()

	p := pair{
		module: sub.Module,
		tag:    sub.Tag,
	}
	if r.pairs[p] {
		return &DuplicateSubscription{
			Module: sub.Module,
			Tag:    sub.Tag,
		}
	}
	r.pairs[p] = true

	subs, have := r.byTag[sub.Tag]
	if !have {
		subs = make([]*Subscription, 0, 4)
	}
	r.byTag[sub.Tag] = append(subs, sub)
	r.all = append(r.all, sub)

	return nil
}

// Find returns the subscriptions matching the given tag, in
// registration order.
//
// The returned slice is a copy, so a caller can't mess up the
// registry (and the dispatcher doesn't hold the lock while running
// decoders).
func (r *Registry) Find(tag string) []*Subscription {
	r.Lock()
	defer r.Unlock()

	subs, have := r.byTag[tag]
	if !have {
		return nil
	}
	acc := make([]*Subscription, len(subs))
	copy(acc, subs)
	return acc
}

// Subscriptions returns every subscription in overall registration
// order (a copy).
func (r *Registry) Subscriptions() []*Subscription {
	r.Lock()
	defer r.Unlock()

	acc := make([]*Subscription, len(r.all))
	copy(acc, r.all)
	return acc
}

// Tags returns the set of subscribed tags (in no particular order).
func (r *Registry) Tags() []string {
	r.Lock()
	defer r.Unlock()

	acc := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		acc = append(acc, tag)
	}
	return acc
}
