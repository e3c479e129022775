package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/matcher"
	"github.com/nextdhcp/nextpan/core/replacer"
	"github.com/nextdhcp/nextpan/plugin"
)

type (
	// publisher publishes a single message. It is implemented by a
	// connected MQTT client
	publisher interface {
		Publish(topic string, qos byte, payload string) error
		Close()
	}

	mqttConnConfig struct {
		broker       []string
		user         string
		password     string
		clientID     string
		cleanSession bool
		qos          int

		l sync.Mutex
		c publisher
	}

	mqttConfig struct {
		*matcher.Matcher

		conn    *mqttConnConfig
		name    string // optional name for the mqtt config
		topic   string
		payload string
	}

	mqttPlugin struct {
		configs []*mqttConfig
		next    plugin.Handler
		l       log.Logger
		wg      sync.WaitGroup
	}

	pahoClient struct {
		mqtt.Client
	}
)

// connect opens a new MQTT connection. Replaced in tests
var connect = func(conn *mqttConnConfig, l log.Logger) (publisher, error) {
	return conn.open(l)
}

// Name returns "mqtt" and implements plugin.Handler
func (m *mqttPlugin) Name() string {
	return "mqtt"
}

// ServeWPAN forwards the indication and publishes any MQTT messages configured.
// It implements plugin.Handler
func (m *mqttPlugin) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	// disassociations are answered with ErrNoResponse but are still
	// worth publishing
	err := m.next.ServeWPAN(ctx, req, resp)
	if err != nil && !errors.Is(err, coordinator.ErrNoResponse) {
		return err
	}

	l := log.With(ctx, m.l)
	rep := replacer.NewReplacer(ctx, req, resp)

	for _, cfg := range m.configs {
		match, err := cfg.Match(ctx, req, resp)
		if err != nil {
			l.Errorf("matching failed for MQTT plugin with name %q: %s", cfg.name, err.Error())
			continue
		}

		if !match {
			continue
		}

		// templates are rendered now, the response may be gone once
		// the message is published
		topic := rep.Replace(cfg.topic)
		payload := rep.Replace(cfg.payload)

		m.wg.Add(1)
		go func(cfg *mqttConfig) {
			defer m.wg.Done()

			cli, qos, err := m.getClient(cfg)
			if err != nil {
				l.Errorf("failed to get MQTT connection for %q: %s", cfg.name, err.Error())
				return
			}

			if err := cli.Publish(topic, byte(qos), payload); err != nil {
				l.Errorf("failed to publish MQTT message for %q: %s", cfg.name, err.Error())
				return
			}

			l.Debugf("published MQTT message to topic %s", topic)
		}(cfg)
	}

	return err
}

func (m *mqttPlugin) getClient(cfg *mqttConfig) (publisher, int, error) {
	// check if we should use a different configuration
	if cfg.name != "" && cfg.conn == nil {
		for _, c := range m.configs {
			if c.name == cfg.name && c.conn != nil {
				return m.getClient(c)
			}
		}
		return nil, 0, fmt.Errorf("MQTT configuration with name %q not found", cfg.name)
	}

	cfg.conn.l.Lock()
	defer cfg.conn.l.Unlock()

	if cfg.conn.c == nil {
		c, err := connect(cfg.conn, m.l)
		if err != nil {
			return nil, 0, err
		}
		cfg.conn.c = c
	}

	return cfg.conn.c, cfg.conn.qos, nil
}

// Close waits for pending messages and disconnects all clients
func (m *mqttPlugin) Close() error {
	m.wg.Wait()

	for _, cfg := range m.configs {
		if cfg.conn == nil {
			continue
		}

		cfg.conn.l.Lock()
		if cfg.conn.c != nil {
			cfg.conn.c.Close()
			cfg.conn.c = nil
		}
		cfg.conn.l.Unlock()
	}

	return nil
}

func (conn *mqttConnConfig) open(l log.Logger) (publisher, error) {
	opts := mqtt.NewClientOptions()

	for _, b := range conn.broker {
		opts.AddBroker(b)
	}

	if conn.user != "" {
		opts.SetUsername(conn.user)
	}

	if conn.password != "" {
		opts.SetPassword(conn.password)
	}

	if conn.cleanSession {
		opts.SetCleanSession(true)
	}

	if conn.clientID != "" {
		opts.SetClientID(conn.clientID)
	}

	opts.SetAutoReconnect(true)

	cli := mqtt.NewClient(opts)

	var servers []string
	for _, s := range opts.Servers {
		servers = append(servers, s.String())
	}

	l.Debugf("connecting to MQTT brokers at %s", strings.Join(servers, ", "))
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	l.Infof("connected to MQTT brokers at %s", strings.Join(servers, ", "))

	return &pahoClient{cli}, nil
}

// Publish implements publisher
func (p *pahoClient) Publish(topic string, qos byte, payload string) error {
	if token := p.Client.Publish(topic, qos, false, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close implements publisher
func (p *pahoClient) Close() {
	p.Client.Disconnect(uint((250 * time.Millisecond).Milliseconds()))
}
