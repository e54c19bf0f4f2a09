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

package hostio

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gangwayio/gangway/bridge"
)

func TestHTTPPoll(t *testing.T) {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		mu     sync.Mutex
		posts  []string
		served bool
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			mu.Lock()
			defer mu.Unlock()
			if served {
				fmt.Fprint(w, "[]")
				return
			}
			served = true
			fmt.Fprint(w, `[{"tag":"Ping","data":"hi"},{"tag":"Nope","data":1}]`)
		case "POST":
			bs, _ := ioutil.ReadAll(r.Body)
			mu.Lock()
			posts = append(posts, string(bs))
			mu.Unlock()
		}
	}))
	defer ts.Close()

	b := bridge.New()
	if err := b.Register("Foo", "Ping", func(data json.RawMessage) (interface{}, error) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	}); err != nil {
		t.Fatal(err)
	}

	msgs := make(chan *bridge.Message, 16)
	if err := b.OnMessage("Foo", func(msg *bridge.Message) {
		msgs <- msg
	}); err != nil {
		t.Fatal(err)
	}

	reports := make(chan *bridge.Report, 16)
	b.OnError(func(rep *bridge.Report) {
		reports <- rep
	})

	c := NewHTTPPoll(ts.URL, 10*time.Millisecond)

	go Run(ctx, b, c)

	select {
	case msg := <-msgs:
		if s, is := msg.Value.(string); !is || s != "hi" {
			t.Fatalf("message value %#v", msg.Value)
		}
	case <-ctx.Done():
		t.Fatal("no message")
	}

	select {
	case rep := <-reports:
		if rep.Kind != bridge.UnhandledTag || rep.Tag != "Nope" {
			t.Fatalf("report %#v", rep)
		}
	case <-ctx.Done():
		t.Fatal("no report")
	}

	if err := b.Send("Out", 42); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(posts)
		mu.Unlock()
		if 0 < n {
			break
		}
		if deadline.Before(time.Now()) {
			t.Fatal("nothing POSTed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	post := posts[0]
	mu.Unlock()
	e := struct {
		Tag  string          `json:"tag"`
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal([]byte(post), &e); err != nil {
		t.Fatal(err)
	}
	if e.Tag != "Out" || string(e.Data) != "42" {
		t.Fatalf("posted %s", post)
	}
}
