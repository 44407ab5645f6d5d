package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
)

// Producer wraps a sarama AsyncProducer and drains its error channel into the log.
type Producer struct {
	producer sarama.AsyncProducer
	logger   *zap.Logger
	prefix   string
	done     chan struct{}
	drained  chan struct{}
}

// NewProducer connects an async producer to the configured brokers.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_5_0_0
	saramaConfig.ClientID = "focusmate-auth"

	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	saramaConfig.Producer.Flush.Messages = 100
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true

	saramaConfig.Metadata.Retry.Max = 3
	saramaConfig.Metadata.Retry.Backoff = 250 * time.Millisecond

	async, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := newProducer(async, cfg.TopicPrefix, logger)

	logger.Info("kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)

	return p, nil
}

func newProducer(async sarama.AsyncProducer, prefix string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{
		producer: async,
		logger:   logger,
		prefix:   strings.TrimSuffix(prefix, "."),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}
	go p.handleErrors()
	return p
}

func (p *Producer) handleErrors() {
	defer close(p.drained)
	for {
		select {
		case perr, ok := <-p.producer.Errors():
			if !ok {
				return
			}
			if perr == nil {
				continue
			}
			topic := ""
			if perr.Msg != nil {
				topic = perr.Msg.Topic
			}
			p.logger.Error("kafka delivery failed", zap.String("topic", topic), zap.Error(perr.Err))
		case <-p.done:
			return
		}
	}
}

// Input exposes the producer's input channel.
func (p *Producer) Input() chan<- *sarama.ProducerMessage {
	return p.producer.Input()
}

// Close flushes pending messages and stops the error drain.
func (p *Producer) Close() error {
	p.logger.Info("closing kafka producer")
	close(p.done)
	<-p.drained

	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

// TopicName prefixes eventType with the configured topic prefix.
func (p *Producer) TopicName(eventType string) string {
	if p.prefix == "" || strings.HasPrefix(eventType, p.prefix+".") {
		return eventType
	}
	return p.prefix + "." + eventType
}
