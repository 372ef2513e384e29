package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of the franz-go client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaLiveUpdates produces JSON updates keyed by credit request id, so all
// updates for one request land on the same partition in order.
type KafkaLiveUpdates struct {
	producer Producer
	topic    string
}

func NewKafkaLiveUpdates(producer Producer, topic string) *KafkaLiveUpdates {
	return &KafkaLiveUpdates{producer: producer, topic: topic}
}

func (p *KafkaLiveUpdates) Publish(ctx context.Context, update LiveUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode live update: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(update.CreditRequestID.String()),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "status_code", Value: []byte(update.StatusCode)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce to %s: %w", p.topic, err)
	}
	return nil
}
