// FilePath: internal/mqtt/mqtt.ingest.go
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bartech/facilityhub/internal/config"
	"github.com/bartech/facilityhub/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	nuts "github.com/vaudience/go-nuts"
)

// Submitter is the slice of the hub service the adapter needs.
type Submitter interface {
	SubmitReading(ctx context.Context, submission *models.ReadingSubmission) (*models.Reading, error)
}

// Ingest bridges broker-connected devices onto the same submission path the
// HTTP endpoint uses. Topic layout: facilities/<facilityID>/readings; the
// topic segment wins over any facility id in the payload.
type Ingest struct {
	client mqtt.Client
	cfg    config.MQTTConfig
	svc    Submitter
}

// NewIngest connects to the broker and returns the adapter.
func NewIngest(cfg config.MQTTConfig, svc Submitter) (*Ingest, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	nuts.L.Infof("[MQTTIngest] Connected to %s", cfg.Broker)
	return &Ingest{client: client, cfg: cfg, svc: svc}, nil
}

// Start subscribes to the readings topic. Handler failures are logged and
// never interrupt the subscription.
func (i *Ingest) Start() error {
	token := i.client.Subscribe(i.cfg.Topic, byte(i.cfg.QoS), func(_ mqtt.Client, msg mqtt.Message) {
		if err := i.handleMessage(msg.Topic(), msg.Payload()); err != nil {
			nuts.L.Warnf("[MQTTIngest] Rejected message on %s: %v", msg.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", i.cfg.Topic, token.Error())
	}

	nuts.L.Infof("[MQTTIngest] Subscribed to %s", i.cfg.Topic)
	return nil
}

func (i *Ingest) handleMessage(topic string, payload []byte) error {
	var submission models.ReadingSubmission
	if err := json.Unmarshal(payload, &submission); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	if facilityID := facilityFromTopic(topic); facilityID != "" {
		submission.FacilityID = facilityID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := i.svc.SubmitReading(ctx, &submission)
	return err
}

// Close disconnects from the broker.
func (i *Ingest) Close() {
	i.client.Unsubscribe(i.cfg.Topic)
	i.client.Disconnect(250)
}

func facilityFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "facilities" && parts[2] == "readings" {
		return parts[1]
	}
	return ""
}
