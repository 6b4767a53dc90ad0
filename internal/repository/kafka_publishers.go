package repository

import (
	"context"
	"time"

	"VitaPull/internal/domain/models"
	domrepo "VitaPull/internal/domain/repository"
	pkgkafka "VitaPull/pkg/kafka"
)

// KafkaRecordPublisher implements RecordPublisher on the sync topic.
// Messages are keyed by day so re-syncs of one day land on one partition.
type KafkaRecordPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRecordPublisher(producer *pkgkafka.Producer, topic string) domrepo.RecordPublisher {
	return &KafkaRecordPublisher{producer: producer, topic: topic}
}

func recordPayload(r *models.DailyRecord) map[string]interface{} {
	return map[string]interface{}{
		"day":       r.Day.Format("2006-01-02"),
		"metrics":   r.Metrics,
		"synced_at": time.Now().Unix(),
	}
}

func (p *KafkaRecordPublisher) PublishRecord(ctx context.Context, r *models.DailyRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Day.Format("2006-01-02")), recordPayload(r))
}

func (p *KafkaRecordPublisher) PublishRecordBatch(ctx context.Context, rs []*models.DailyRecord) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Day.Format("2006-01-02")),
			Value: recordPayload(r),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaAlertPublisher implements AlertPublisher on the alerts topic.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func alertPayload(f *models.AnomalyFlag) map[string]interface{} {
	return map[string]interface{}{
		"day":    f.Day.Format("2006-01-02"),
		"metric": f.Metric,
		"value":  f.Value,
		"low":    f.Low,
		"high":   f.High,
	}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, f *models.AnomalyFlag) error {
	return p.producer.Publish(ctx, p.topic, []byte(f.Metric), alertPayload(f))
}

func (p *KafkaAlertPublisher) PublishAlertBatch(ctx context.Context, fs []models.AnomalyFlag) error {
	if len(fs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(fs))
	for i := range fs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(fs[i].Metric),
			Value: alertPayload(&fs[i]),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaAlertPublisher) Close() error {
	// producer shared with the record publisher, closed there
	return nil
}
