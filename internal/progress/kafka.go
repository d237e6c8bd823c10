// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/pkg/types"
)

// DefaultKafkaTopic receives progress events when no topic is configured.
const DefaultKafkaTopic = "article-progress"

// Message is the JSON payload published for each event.
type Message struct {
	RunID  string              `json:"run_id"`
	Topic  string              `json:"topic"`
	Event  types.ProgressEvent `json:"event"`
	SentAt time.Time           `json:"sent_at"`
}

// KafkaPublisher publishes progress events to a Kafka topic. Publishing
// failures are logged and never interrupt a run.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher connects a synchronous producer to brokers.
func NewKafkaPublisher(cfg types.KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return NewKafkaPublisherFromProducer(producer, cfg.Topic, logger), nil
}

// ProducerConfig is the sarama configuration used for the producer.
func ProducerConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.Version = sarama.V3_6_0_0
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Retry.Max = 3
	c.Producer.Return.Successes = true
	return c
}

// NewKafkaPublisherFromProducer wraps an existing producer.
func NewKafkaPublisherFromProducer(p sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{producer: p, topic: topic, logger: logger}
}

// ForRun returns an observer that publishes the events of one run, keyed
// by runID so a run's events stay ordered within a partition.
func (k *KafkaPublisher) ForRun(runID, articleTopic string) Observer {
	return ObserverFunc(func(e types.ProgressEvent) {
		k.publish(Message{RunID: runID, Topic: articleTopic, Event: e, SentAt: time.Now().UTC()})
	})
}

func (k *KafkaPublisher) publish(m Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		k.logger.Warn("encoding progress message", zap.Error(err))
		return
	}
	partition, offset, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(m.RunID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		k.logger.Warn("publishing progress event",
			zap.String("run_id", m.RunID),
			zap.String("phase", string(m.Event.Phase)),
			zap.Error(err))
		return
	}
	k.logger.Debug("published progress event",
		zap.String("run_id", m.RunID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
}

// Close shuts down the producer.
func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
