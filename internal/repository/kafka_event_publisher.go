package repository

import (
	"context"

	"FinTune/internal/domain/models"
	pkgkafka "FinTune/pkg/kafka"
)

// KafkaEventPublisher emits tuning lifecycle events. Messages are keyed by
// symbol so per-instrument ordering holds within a partition.
type KafkaEventPublisher struct {
	producer       *pkgkafka.Producer
	progressTopic  string
	exceptionTopic string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, progressTopic, exceptionTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer:       producer,
		progressTopic:  progressTopic,
		exceptionTopic: exceptionTopic,
	}
}

func (p *KafkaEventPublisher) PublishProgress(ctx context.Context, prog models.TuningProgress) error {
	return p.producer.Publish(ctx, p.progressTopic, []byte(prog.Symbol), prog)
}

func (p *KafkaEventPublisher) PublishException(ctx context.Context, e models.ExceptionEntry) error {
	return p.producer.Publish(ctx, p.exceptionTopic, []byte(e.Symbol), e)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
