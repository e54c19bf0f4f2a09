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
	"flag"
	"time"

	"github.com/gangwayio/gangway/hostio"
)

func NewHTTPCoupling(args []string) (*hostio.HTTPPoll, *flag.FlagSet) {
	var (
		fs = flag.NewFlagSet("http", flag.ExitOnError)

		url      = fs.String("url", "http://localhost:8080/msgs", "Host endpoint for polling and POSTs")
		interval = fs.Duration("interval", time.Second, "Polling period")
		timeout  = fs.Duration("timeout", 10*time.Second, "Per-request timeout")
	)

	if args == nil {
		return nil, fs
	}
	fs.Parse(args)

	c := hostio.NewHTTPPoll(*url, *interval)
	c.Timeout = *timeout

	return c, fs
}
