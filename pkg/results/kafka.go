package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

const (
	kafkaFlushTimeoutMs   = 1000 * 5
	kafkaAdminTimeout     = 10 * time.Second
	kafkaDefaultPartition = 1
)

type KafkaOptions struct {
	BootstrapServers string
	Topic            string

	// CreateTopic creates the topic when it does not exist yet.
	CreateTopic bool
	Partitions  int
}

type topicAdmin interface {
	CreateTopics(ctx context.Context, topics []kafka.TopicSpecification, options ...kafka.CreateTopicsAdminOption) ([]kafka.TopicResult, error)
}

type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaSink publishes one message per datapoint, keyed by the series key.
type KafkaSink struct {
	producer kafkaProducer
	topic    string
}

// NewKafkaSink creates a kafka producer and logs its delivery reports until ctx is done.
func NewKafkaSink(ctx context.Context, opts KafkaOptions) (*KafkaSink, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": opts.BootstrapServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	// Handling the delivery reports prevents the producer flush
	// from reporting the sent messages as not sent.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-producer.Events():
				if !ok {
					return
				}
				switch event := e.(type) {
				case *kafka.Message:
					if event.TopicPartition.Error != nil {
						log.Errorf("failed to deliver datapoint: %v", event.TopicPartition.Error)
					} else {
						log.Debugf("delivered datapoint to topic %s [%d] at offset %v", *event.TopicPartition.Topic, event.TopicPartition.Partition, event.TopicPartition.Offset)
					}
				case kafka.Error:
					log.Errorf("kafka error: %v", event)
				}
			}
		}
	}()

	if opts.CreateTopic {
		admin, err := kafka.NewAdminClientFromProducer(producer)
		if err != nil {
			producer.Close()
			return nil, fmt.Errorf("failed to create kafka admin client: %w", err)
		}
		err = ensureTopic(ctx, admin, opts.Topic, opts.Partitions)
		admin.Close()
		if err != nil {
			producer.Close()
			return nil, err
		}
	}

	return newKafkaSink(producer, opts.Topic), nil
}

// ensureTopic creates topic unless it already exists.
func ensureTopic(ctx context.Context, admin topicAdmin, topic string, partitions int) error {
	if partitions <= 0 {
		partitions = kafkaDefaultPartition
	}
	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}}, kafka.SetAdminOperationTimeout(kafkaAdminTimeout))
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError:
			log.Infof("created topic %s with %d partitions", result.Topic, partitions)
		case kafka.ErrTopicAlreadyExists:
			log.Debugf("topic %s already exists", result.Topic)
		default:
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
	}
	return nil
}

func newKafkaSink(producer kafkaProducer, topic string) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
	}
}

func (k *KafkaSink) Name() string {
	return "kafka"
}

func (k *KafkaSink) Publish(_ context.Context, datapoints []Datapoint) error {
	errs := make([]error, 0)
	for _, dp := range datapoints {
		value, err := json.Marshal(dp)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to encode datapoint %s: %w", dp.Key(), err))
			continue
		}
		if err := k.producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
			Key:            []byte(dp.Key()),
			Value:          value,
		}, nil); err != nil {
			errs = append(errs, fmt.Errorf("failed to enqueue datapoint %s: %w", dp.Key(), err))
		}
	}
	return errors.Join(errs...)
}

func (k *KafkaSink) Close() error {
	unsent := k.producer.Flush(kafkaFlushTimeoutMs)
	k.producer.Close()
	if unsent > 0 {
		return fmt.Errorf("failed to flush unsent datapoints: %d", unsent)
	}
	return nil
}
