package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stuartleeks/home-dash/weather-dash/dashboard"
	"go.uber.org/zap"
)

// Publisher is the part of an MQTT client the notifier needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTT publishes notices as JSON so other home displays can show them.
type MQTT struct {
	publisher Publisher
	topic     string
	logger    *zap.SugaredLogger
}

func NewMQTT(publisher Publisher, topic string, logger *zap.SugaredLogger) *MQTT {
	return &MQTT{publisher: publisher, topic: topic, logger: logger}
}

func (m *MQTT) Notify(_ context.Context, n dashboard.Notice) {
	payload, err := json.Marshal(n)
	if err != nil {
		m.logger.Errorw("failed to encode notice", "error", err)
		return
	}
	if err := m.publisher.Publish(m.topic, payload); err != nil {
		m.logger.Errorw("failed to publish notice", "error", err, "topic", m.topic)
	}
}

type mqttPublisher struct {
	cli     mqtt.Client
	timeout time.Duration
}

// ConnectMQTT connects to brokerURL (mqtt://, tcp://, ssl://, tls://, ws:// or wss://).
func ConnectMQTT(brokerURL string, logger *zap.SugaredLogger) (Publisher, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parsing MQTT broker url: %w", err)
	}
	opts := mqtt.NewClientOptions()
	server := u.Host
	switch u.Scheme {
	case "mqtt", "tcp":
		server = "tcp://" + server
	case "ssl", "tls":
		server = "ssl://" + server
		opts.SetTLSConfig(&tls.Config{ServerName: u.Hostname()})
	case "ws", "wss":
		server = u.Scheme + "://" + server + u.Path
	default:
		return nil, fmt.Errorf("unsupported MQTT scheme %q", u.Scheme)
	}
	opts.AddBroker(server)
	opts.SetClientID("weather-dash-" + time.Now().Format("150405.000"))
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) { logger.Infow("mqtt connected", "broker", u.Host) }
	opts.OnConnectionLost = func(_ mqtt.Client, err error) { logger.Errorw("mqtt connection lost", "error", err) }
	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}

	cli := mqtt.NewClient(opts)
	if t := cli.Connect(); t.Wait() && t.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", t.Error())
	}
	return &mqttPublisher{cli: cli, timeout: 5 * time.Second}, nil
}

func (p *mqttPublisher) Publish(topic string, payload []byte) error {
	t := p.cli.Publish(topic, 0, false, payload)
	if !t.WaitTimeout(p.timeout) {
		return fmt.Errorf("publishing to %s timed out", topic)
	}
	return t.Error()
}
