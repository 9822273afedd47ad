package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes audit events keyed by provider so one provider's events stay ordered.
type KafkaSink struct {
	w messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		w: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.Hash{},
		}),
	}
}

type kafkaPayload struct {
	ProviderID string `json:"provider_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	Entity     string `json:"entity"`
	EntityID   string `json:"entity_id"`
	Metadata   any    `json:"metadata,omitempty"`
	At         string `json:"at"`
}

func (k *KafkaSink) Write(ctx context.Context, ev Event) error {
	body, err := json.Marshal(kafkaPayload{
		ProviderID: ev.ProviderID,
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Metadata:   ev.Metadata,
		At:         ev.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ProviderID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(ev.Action)},
		},
	})
}

func (k *KafkaSink) Close() error {
	return k.w.Close()
}
