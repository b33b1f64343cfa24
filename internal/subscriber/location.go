// Package subscriber ingests location fixes published over MQTT.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic matches OwnTracks' owntracks/<user>/<device> layout
const DefaultTopic = "owntracks/+/+"

const typeLocation = "location"

type sampleRecorder interface {
	RecordSample(ctx context.Context, lat, lon float64, ts time.Time) error
}

// locationMessage is the subset of the OwnTracks location payload we use
type locationMessage struct {
	Type      string   `json:"_type"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Timestamp int64    `json:"tst"`
	Accuracy  float64  `json:"acc,omitempty"`
}

type LocationSubscriber struct {
	client   mqtt.Client
	recorder sampleRecorder
	topic    string
	qos      byte
	logger   *slog.Logger
	ctx      context.Context
}

func NewLocationSubscriber(client mqtt.Client, recorder sampleRecorder, topic string, qos byte, logger *slog.Logger) *LocationSubscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationSubscriber{
		client:   client,
		recorder: recorder,
		topic:    topic,
		qos:      qos,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Start subscribes to the configured topic. ctx is handed to every recorded sample.
func (s *LocationSubscriber) Start(ctx context.Context) error {
	s.ctx = ctx
	token := s.client.Subscribe(s.topic, s.qos, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	s.logger.Info("mqtt subscribed", "topic", s.topic)
	return nil
}

func (s *LocationSubscriber) Stop() {
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.logger.Warn("invalid location message", "topic", msg.Topic(), "error", err)
		return
	}

	// OwnTracks also publishes transition, waypoint and lwt messages
	if raw.Type != typeLocation {
		s.logger.Debug("ignoring mqtt message", "topic", msg.Topic(), "type", raw.Type)
		return
	}

	if err := validateLocationMessage(&raw); err != nil {
		s.logger.Warn("location message rejected", "topic", msg.Topic(), "error", err)
		return
	}

	ts := time.Unix(raw.Timestamp, 0).UTC()
	if err := s.recorder.RecordSample(s.ctx, *raw.Latitude, *raw.Longitude, ts); err != nil {
		s.logger.Error("record sample failed", "topic", msg.Topic(), "error", err)
	}
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.Latitude == nil || msg.Longitude == nil {
		return fmt.Errorf("lat/lon: required")
	}
	if *msg.Latitude < -90 || *msg.Latitude > 90 {
		return fmt.Errorf("lat: must be between -90 and 90")
	}
	if *msg.Longitude < -180 || *msg.Longitude > 180 {
		return fmt.Errorf("lon: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("tst: must be positive")
	}
	return nil
}
