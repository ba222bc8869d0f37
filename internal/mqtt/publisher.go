// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mqtt publishes FanBoy readings to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Thermoquad/fanboy/pkg/fanboy"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds connect and publish waits.
const DefaultTimeout = 5 * time.Second

// Message is the JSON payload published for each reading.
type Message struct {
	Time time.Time `json:"time"`
	fanboy.Reading
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The URL path is used as topic prefix and the client-id query parameter
// as client ID.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("missing broker host in %q", serverURL)
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(DefaultTimeout)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}

	clientID := u.Query().Get("client-id")
	if clientID == "" {
		clientID = "fanboy"
	}
	opts.SetClientID(clientID)

	return opts, topicPrefix, nil
}

// Publisher implements fanboy.Sink.
type Publisher struct {
	client  paho.Client
	topic   string
	timeout time.Duration
}

// New creates a publisher for brokerURL. The URL path is joined with topic
// as a topic prefix. The client is not connected yet.
func New(brokerURL, topic string) (*Publisher, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info().Str("broker", brokerURL).Msg("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})
	return NewWithClient(paho.NewClient(opts), path.Join(prefix, topic)), nil
}

// NewWithClient wraps an existing client publishing to topic.
func NewWithClient(client paho.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic, timeout: DefaultTimeout}
}

// Topic returns the full topic readings are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// Connect connects the client.
func (p *Publisher) Connect() error {
	return p.wait(p.client.Connect(), "connect")
}

// Update publishes r as a retained message.
func (p *Publisher) Update(r fanboy.Reading, at time.Time) error {
	payload, err := json.Marshal(Message{Time: at.UTC(), Reading: r})
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	return p.wait(p.client.Publish(p.topic, 0, true, payload), "publish")
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func (p *Publisher) wait(token paho.Token, op string) error {
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt %s: timeout after %s", op, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s: %w", op, err)
	}
	return nil
}
