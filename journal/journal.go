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

// Package journal persists error reports and dead-lettered envelopes
// in a Bolt database.
//
// A bridge forgets a bad message as soon as it has reported it.  The
// journal is for operators who want to look at those messages later,
// and for replaying dead letters after subscriptions change.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log"
	"time"

	"github.com/gangwayio/gangway/bridge"

	bolt "go.etcd.io/bbolt"
)

var (
	reportsBucket     = []byte("reports")
	deadLettersBucket = []byte("deadletters")
)

// Journal is Bolt-backed persistence for reports and dead letters.
type Journal struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// NewJournal takes a filename and returns a Journal.
//
// Call Open before use.
func NewJournal(filename string) (*Journal, error) {
	return &Journal{
		filename: filename,
	}, nil
}

// Open opens the underlying Bolt database and makes the buckets.
func (j *Journal) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(j.filename, 0644, opts)
	if err != nil {
		return err
	}
	j.db = db

	return j.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(reportsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(deadLettersBucket)
		return err
	})
}

// Close closes the underlying Bolt database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) logf(format string, args ...interface{}) {
	if j.Debug {
		log.Printf("Journal."+format, args...)
	}
}

// key makes a time-ordered bucket key from a bucket sequence number.
func key(n uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, n)
	return bs
}

// AddReport appends one report to the journal.
func (j *Journal) AddReport(ctx context.Context, rep *bridge.Report) error {
	j.logf("AddReport %s %s", rep.Kind, rep.Tag)
	js, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(reportsBucket)
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(key(n), js)
	})
}

// DeadLetter stores the raw form of an envelope that went nowhere.
func (j *Journal) DeadLetter(ctx context.Context, raw []byte) error {
	j.logf("DeadLetter %d bytes", len(raw))
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(deadLettersBucket)
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(key(n), raw)
	})
}

// Reports walks the journaled reports in order.
func (j *Journal) Reports(ctx context.Context, f func(*bridge.Report) error) error {
	return j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(reportsBucket).ForEach(func(k, v []byte) error {
			var rep bridge.Report
			if err := json.Unmarshal(v, &rep); err != nil {
				return err
			}
			return f(&rep)
		})
	})
}

// Replay walks the dead letters in order.
//
// The given function usually just re-dispatches the raw bytes.
// Replay doesn't remove anything; see Drop.
func (j *Journal) Replay(ctx context.Context, f func(raw []byte) error) error {
	return j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(deadLettersBucket).ForEach(func(k, v []byte) error {
			raw := make([]byte, len(v))
			copy(raw, v)
			return f(raw)
		})
	})
}

// Drop removes all dead letters (say after a successful Replay).
func (j *Journal) Drop(ctx context.Context) error {
	j.logf("Drop")
	return j.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(deadLettersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(deadLettersBucket)
		return err
	})
}

// Sink returns a report sink for bridge.OnError.
//
// The sink journals every report and dead-letters the raw input for
// MalformedEnvelope and UnhandledTag reports.  Storage errors are
// logged and swallowed: persistence trouble must never escalate into
// the dispatch loop.
func (j *Journal) Sink() func(*bridge.Report) {
	ctx := context.Background()
	return func(rep *bridge.Report) {
		if err := j.AddReport(ctx, rep); err != nil {
			log.Printf("Journal.Sink report error %s", err)
		}
		switch rep.Kind {
		case bridge.MalformedEnvelope, bridge.UnhandledTag:
			if len(rep.Raw) == 0 {
				return
			}
			if err := j.DeadLetter(ctx, rep.Raw); err != nil {
				log.Printf("Journal.Sink deadletter error %s", err)
			}
		}
	}
}
