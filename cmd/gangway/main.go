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

// Package main runs a single bridge coupled to a host runtime.
//
// By default the host talks over stdin and stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gangwayio/gangway/bridge"
	"github.com/gangwayio/gangway/hostio"
	"github.com/gangwayio/gangway/journal"
	"github.com/gangwayio/gangway/timers"
)

func main() {

	var (
		coupling    = flag.String("io", "std", `IO protocol: "std", "mq", "ws", or "http"`)
		configFile  = flag.String("c", "", "Optional configuration (YAML) filename")
		journalFile = flag.String("journal", "", "Optional journal (bolt) filename")

		wait    = flag.Duration("wait", time.Second, "Wait this long before shutting down couplings")
		verbose = flag.Bool("v", false, "Verbose")
		help    = flag.Bool("h", false, "Get usage")
	)

	flag.Parse()

	if *help {
		flag.PrintDefaults()

		{
			fmt.Fprintf(os.Stderr, "\n-io std (default):\n\n")
			_, fs := NewStdCoupling(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io mq:\n\n")
			_, fs := NewMQTTCoupling(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io ws:\n\n")
			_, fs := NewWebSocketCoupling(nil)
			fs.PrintDefaults()
		}

		{
			fmt.Fprintf(os.Stderr, "\n-io http:\n\n")
			_, fs := NewHTTPCoupling(nil)
			fs.PrintDefaults()
		}

		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cio hostio.Couplings
	switch *coupling {
	case "std":
		c, _ := NewStdCoupling(flag.Args())
		cio = c
	case "mq", "mqtt":
		c, _ := NewMQTTCoupling(flag.Args())
		cio = c
	case "ws":
		c, _ := NewWebSocketCoupling(flag.Args())
		cio = c
	case "http":
		c, _ := NewHTTPCoupling(flag.Args())
		cio = c
	default:
		panic(fmt.Errorf("unknown io: '%s'", *coupling))
	}

	b := bridge.New()
	b.Verbose = *verbose

	var conf *Config
	if *configFile != "" {
		var err error
		if conf, err = ReadConfig(*configFile); err != nil {
			panic(err)
		}
	}

	if *journalFile == "" && conf != nil {
		*journalFile = conf.Journal
	}

	if *journalFile != "" {
		j, err := journal.NewJournal(*journalFile)
		if err != nil {
			panic(err)
		}
		if err = j.Open(ctx); err != nil {
			panic(err)
		}
		defer j.Close()
		b.OnError(j.Sink())
	}

	ts := timers.NewTimers(func(ctx context.Context, tag string, data interface{}) {
		if err := b.Send(tag, data); err != nil {
			E(err, "Send", tag)
		}
	})
	defer ts.StopAll()

	if conf != nil {
		if err := conf.Apply(ctx, b, ts); err != nil {
			panic(err)
		}
	}

	go func() {
		if std, is := cio.(*hostio.Stdio); is {
			<-std.InputEOF // ToDo!
			log.Printf("input EOF (waiting %v)", *wait)
			time.Sleep(*wait)
			cancel()
		}
	}()

	if err := hostio.Run(ctx, b, cio); err != nil {
		log.Printf("error from Run: %v", err)
	}
}

func E(err error, args ...interface{}) error {
	log.Printf("error %s: %v", err, args)
	return err
}
