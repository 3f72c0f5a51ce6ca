package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const mqttTimeout = 10 * time.Second

// publisher is the part of mqtt.Client the notifier uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes notifications as JSON to a broker topic.
type MQTT struct {
	client publisher
	topic  string
	qos    byte
	now    func() time.Time
}

type mqttMessage struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Time    time.Time `json:"time"`
}

// NewMQTT connects to broker (e.g. "tcp://localhost:1883").
func NewMQTT(broker, clientID, topic string) (*MQTT, error) {
	if topic == "" {
		return nil, fmt.Errorf("mqtt notifier needs a topic")
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(mqttTimeout)
	opts.SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return &MQTT{client: client, topic: topic, qos: 1, now: time.Now}, nil
}

// Send publishes the notification and waits for the broker to acknowledge.
func (m *MQTT) Send(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(mqttMessage{Subject: subject, Body: body, Time: m.now().UTC()})
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, m.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", m.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", m.topic, ctx.Err())
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if c, ok := m.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
