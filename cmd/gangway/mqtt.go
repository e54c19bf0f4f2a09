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

func NewMQTTCoupling(args []string) (*hostio.MQTT, *flag.FlagSet) {
	var (
		// Follow mosquitto_sub command line args.

		fs = flag.NewFlagSet("mq", flag.ExitOnError)

		broker    = fs.String("h", "tcp://localhost", "Broker hostname")
		clientId  = fs.String("i", "", "Client id")
		port      = fs.Int("p", 1883, "Broker port")
		keepAlive = fs.Int("k", 10, "Keep-alive in seconds")
		userName  = fs.String("u", "", "Username")
		password  = fs.String("P", "", "Password")
		reconnect = fs.Bool("reconnect", false, "Automatically attempt to reconnect")
		clean     = fs.Bool("c", true, "Clean session")
		quiesce   = fs.Int("quiesce", 100, "Disconnection quiescence (in milliseconds)")

		subTopics = fs.String("t", "", "subscription topic(s)")

		wrapWithTopic        = fs.Bool("wrap-with-topic", false, "wrap non-envelopes in an envelope tagged with the topic")
		topicPrefix          = fs.String("topic-prefix", "", "Prefix for per-tag outbound topics")
		defaultOutboundTopic = fs.String("def-outbound-topic", "misc", "Default out-bound message topic")
		inTimeout            = fs.Duration("in-timeout", time.Second, "timeout for in-bound queuing")
	)

	if args == nil {
		return nil, fs
	}

	fs.Parse(args)

	opts := &hostio.MQTTOpts{
		Broker:    *broker,
		Port:      *port,
		ClientId:  *clientId,
		KeepAlive: *keepAlive,
		UserName:  *userName,
		Password:  *password,
		Reconnect: *reconnect,
		Clean:     *clean,
	}

	c := hostio.NewMQTT(opts)
	c.Quiesce = uint(*quiesce)
	c.SubTopics = *subTopics
	c.WrapWithTopic = *wrapWithTopic
	c.TopicPrefix = *topicPrefix
	c.DefaultOutboundTopic = *defaultOutboundTopic
	c.InTimeout = *inTimeout

	return c, fs
}
