package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"rover-link/internal/config"
	"rover-link/internal/infra/mq"
)

// RabbitMQProducer publishes telemetry records to a topic exchange. The
// connection is lazy: the rover must come up and start driving even when the
// broker is unreachable, so dial failures only schedule a background
// reconnect and publishes fail soft until it succeeds.
type RabbitMQProducer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	cfg        config.RabbitMQConfig
	logger     *zap.Logger
	mu         sync.Mutex
	isClosed   bool
	reconnectC chan struct{}
}

var _ mq.Producer = (*RabbitMQProducer)(nil)

func NewRabbitMQProducer(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitMQProducer, error) {
	p := &RabbitMQProducer{
		cfg:        cfg,
		logger:     logger,
		reconnectC: make(chan struct{}, 1),
	}

	go func() {
		p.logger.Info("Attempting initial RabbitMQ connection", zap.String("url", cfg.URL))
		if err := p.connect(); err != nil {
			p.logger.Warn("Initial RabbitMQ connection failed (will retry in background)", zap.Error(err))
			p.signalReconnect()
		}
	}()
	go p.handleReconnect()

	return p, nil
}

func (p *RabbitMQProducer) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	connURL := p.cfg.URL
	if p.cfg.VirtualHost != "" {
		vhost := strings.TrimPrefix(p.cfg.VirtualHost, "/")
		connURL = strings.TrimSuffix(connURL, "/") + "/" + vhost
	}

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	if p.cfg.QueueName != "" {
		if _, err := ch.QueueDeclare(
			p.cfg.QueueName,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("declare queue: %w", err)
		}
		if err := ch.QueueBind(p.cfg.QueueName, p.cfg.RoutingKey, p.cfg.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("bind queue: %w", err)
		}
	}

	p.conn = conn
	p.ch = ch
	p.isClosed = false

	go func() {
		<-conn.NotifyClose(make(chan *amqp.Error))
		p.signalReconnect()
	}()

	p.logger.Info("Connected to RabbitMQ", zap.String("exchange", p.cfg.Exchange))
	return nil
}

func (p *RabbitMQProducer) signalReconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isClosed {
		select {
		case p.reconnectC <- struct{}{}:
		default:
		}
	}
}

func (p *RabbitMQProducer) handleReconnect() {
	for range p.reconnectC {
		p.logger.Warn("RabbitMQ connection lost, reconnecting")
		for {
			if err := p.connect(); err != nil {
				p.logger.Error("RabbitMQ reconnect failed", zap.Error(err))
				time.Sleep(5 * time.Second)
				continue
			}
			break
		}
	}
}

func (p *RabbitMQProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	p.mu.Lock()
	if p.isClosed {
		p.mu.Unlock()
		return fmt.Errorf("producer is closed")
	}
	if p.ch == nil || p.ch.IsClosed() {
		p.mu.Unlock()
		p.signalReconnect()
		return fmt.Errorf("RabbitMQ not connected")
	}
	ch := p.ch
	p.mu.Unlock()

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry record: %w", err)
	}

	routingKey := p.cfg.RoutingKey
	if key != "" {
		routingKey = key
	}

	if err := ch.PublishWithContext(ctx,
		p.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		}); err != nil {
		return fmt.Errorf("failed to publish telemetry: %w", err)
	}

	return nil
}

func (p *RabbitMQProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isClosed = true
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
