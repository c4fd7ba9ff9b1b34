package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/models"
	awspkg "github.com/openstall/marketplace/pkg/aws"
)

// Producer writes settled-order events to Kafka, keyed by user so one
// buyer's events stay ordered.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer}
}

func (p *Producer) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Fanout publishes to Kafka and, best-effort, to an SNS topic for consumers
// outside the Kafka estate (email notifier). SNS failures are logged only.
type Fanout struct {
	Producer *Producer
	SNS      awspkg.SNSPublisher
	TopicArn string
	Log      *zap.Logger
}

func (f *Fanout) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	var kafkaErr error
	if f.Producer != nil {
		kafkaErr = f.Producer.PublishOrderEvent(ctx, event)
	}

	if f.SNS != nil && f.TopicArn != "" {
		data, err := json.Marshal(event)
		if err == nil {
			if err := f.SNS.Publish(ctx, f.TopicArn, data); err != nil && f.Log != nil {
				f.Log.Warn("sns publish failed", zap.String("order_id", event.OrderID), zap.Error(err))
			}
		}
	}

	return kafkaErr
}
