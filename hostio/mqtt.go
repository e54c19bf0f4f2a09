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
	"log"
	"strings"
	"time"

	"github.com/gangwayio/gangway/envelope"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT is a Couplings for a host runtime on the other side of an MQTT
// broker.
//
// Inbound: payloads that parse as envelopes pass through untouched;
// other payloads can optionally be wrapped in an envelope whose tag
// is the message topic (WrapWithTopic), so a plain host can still
// talk to a bridge.  Outbound: an envelope is published to
// TopicPrefix + its tag (or to DefaultOutboundTopic if TopicPrefix is
// empty).
type MQTT struct {
	Client mqtt.Client

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	// SubTopics is a comma-separated list of subscription topics,
	// each optionally of the form TOPIC:QOS.
	SubTopics string

	// WrapWithTopic wraps non-envelope payloads in an envelope
	// tagged with the message topic.
	WrapWithTopic bool

	// TopicPrefix, when not empty, makes the outbound topic
	// TopicPrefix + envelope tag.
	TopicPrefix string

	// DefaultOutboundTopic is used when TopicPrefix is empty.
	DefaultOutboundTopic string

	// InTimeout bounds how long an incoming message will wait to
	// be queued before it's dropped.
	InTimeout time.Duration

	incoming chan []byte
	outbound chan *envelope.Envelope
	done     chan bool
}

// MQTTOpts are the broker session parameters.
//
// The field names follow mosquitto_sub command-line args where those
// exist.
type MQTTOpts struct {
	Broker    string
	Port      int
	ClientId  string
	KeepAlive int
	UserName  string
	Password  string
	Reconnect bool
	Clean     bool
}

// NewMQTT makes an MQTT Couplings talking to the given broker.
func NewMQTT(opts *MQTTOpts) *MQTT {
	copts := mqtt.NewClientOptions()
	copts.AddBroker(fmt.Sprintf("%s:%d", opts.Broker, opts.Port))
	copts.SetClientID(opts.ClientId)
	copts.SetKeepAlive(time.Second * time.Duration(opts.KeepAlive))
	copts.Username = opts.UserName
	copts.Password = opts.Password
	copts.AutoReconnect = opts.Reconnect
	copts.CleanSession = opts.Clean

	copts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost")
	}

	c := &MQTT{
		Quiesce:              100,
		InTimeout:            time.Second,
		DefaultOutboundTopic: "misc",

		incoming: make(chan []byte),
		outbound: make(chan *envelope.Envelope),
		done:     make(chan bool),
	}

	copts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		c.inHandler(context.Background(), client, msg)
	}

	c.Client = mqtt.NewClient(copts)

	return c
}

// inHandler is a Paho publish handler, which handles messages sent to
// us from the MQTT broker due to our subscriptions.
func (c *MQTT) inHandler(ctx context.Context, client mqtt.Client, msg mqtt.Message) {
	var (
		payload = msg.Payload()
		topic   = msg.Topic()
		raw     = payload
	)

	if _, err := envelope.Decode(payload); err != nil && c.WrapWithTopic {
		var data json.RawMessage
		if json.Valid(payload) {
			data = json.RawMessage(payload)
		} else {
			js, err := json.Marshal(string(payload))
			if err != nil {
				log.Printf("Couldn't wrap payload from %s: %s", topic, err)
				return
			}
			data = js
		}
		e := &envelope.Envelope{
			Tag:  topic,
			Data: data,
		}
		js, err := e.Bytes()
		if err != nil {
			log.Printf("Couldn't wrap payload from %s: %s", topic, err)
			return
		}
		raw = js
	}

	to := time.NewTimer(c.InTimeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
		log.Printf("Couplings dropping incoming due to ctx.Done()")
	case c.incoming <- raw:
	case <-to.C:
		log.Printf("Couplings dropping incoming due to stall")
	}
}

// Start creates the MQTT session.
func (c *MQTT) Start(ctx context.Context) error {
	log.Printf("Attempting to connect to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("Connected to broker")

	for _, topic := range strings.Split(c.SubTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		log.Printf("Subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	go c.outLoop(ctx)

	return nil
}

// IO just returns the channels.
func (c *MQTT) IO(ctx context.Context) (chan []byte, chan *envelope.Envelope, chan bool, error) {
	return c.incoming, c.outbound, c.done, nil
}

// outLoop publishes out-bound envelopes to the MQTT broker.
func (c *MQTT) outLoop(ctx context.Context) {
LOOP:
	for {
		select {
		case <-ctx.Done():
			break LOOP
		case e := <-c.outbound:
			if e == nil {
				break LOOP
			}
			topic, qos := parseTopic(c.DefaultOutboundTopic)
			if c.TopicPrefix != "" {
				topic = c.TopicPrefix + e.Tag
			}
			js, err := e.Bytes()
			if err != nil {
				log.Printf("Failed to marshal envelope %s", e.Tag)
				continue
			}
			token := c.Client.Publish(topic, qos, false, js)
			token.Wait()
			if err := token.Error(); err != nil {
				log.Printf("Publish error: %s", err)
			}
		}
	}
}

// Stop terminates the MQTT session.
func (c *MQTT) Stop(ctx context.Context) error {
	log.Printf("Disconnecting")
	c.Client.Disconnect(c.Quiesce)
	close(c.done)
	return nil
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	var topic string
	var qos byte
	if _, err := fmt.Sscanf(strings.Replace(s, ":", " ", 1), "%s %d", &topic, &qos); err != nil {
		return s, 0
	}
	return topic, qos
}
