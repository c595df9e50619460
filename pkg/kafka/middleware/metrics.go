package kafka_middleware

import (
	"context"
	"time"

	"carbroker/pkg/kafka"
)

// PublishRecorder receives one observation per publish attempt.
type PublishRecorder interface {
	MessagePublished(topic, eventType string, err error, elapsed time.Duration)
}

func MetricsProducerMiddleware(recorder PublishRecorder) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		recorder.MessagePublished(msg.Topic, msg.GetEventType(), err, time.Since(start))
		return err
	}
}
