package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/kotosiro/kotosiro/common"
)

// ConfigUpdatesExchange is the durable fanout exchange carrying configuration
// update notifications to every connected runner.
const ConfigUpdatesExchange = "kotosiro.updates.config"

// ConfigUpdate tells runners that the configuration of a project or a job
// changed. Exactly one of the two variants is set.
//
// The wire form is externally tagged JSON: {"Project":"<uuid>"} or
// {"Job":"<uuid>"}.
type ConfigUpdate struct {
	project *uuid.UUID
	job     *uuid.UUID
}

// ProjectConfigUpdate builds the notification for a changed project.
func ProjectConfigUpdate(id uuid.UUID) ConfigUpdate {
	return ConfigUpdate{project: &id}
}

// JobConfigUpdate builds the notification for a changed job.
func JobConfigUpdate(id uuid.UUID) ConfigUpdate {
	return ConfigUpdate{job: &id}
}

// Project returns the project id when this is a project update.
func (u ConfigUpdate) Project() (uuid.UUID, bool) {
	if u.project == nil {
		return uuid.Nil, false
	}
	return *u.project, true
}

// Job returns the job id when this is a job update.
func (u ConfigUpdate) Job() (uuid.UUID, bool) {
	if u.job == nil {
		return uuid.Nil, false
	}
	return *u.job, true
}

func (u ConfigUpdate) MarshalJSON() ([]byte, error) {
	switch {
	case u.project != nil:
		return json.Marshal(map[string]uuid.UUID{"Project": *u.project})
	case u.job != nil:
		return json.Marshal(map[string]uuid.UUID{"Job": *u.job})
	default:
		return nil, fmt.Errorf("config update has no variant set")
	}
}

func (u *ConfigUpdate) UnmarshalJSON(data []byte) error {
	var tagged map[string]uuid.UUID
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("malformed config update: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("config update must carry exactly one variant, got %d", len(tagged))
	}
	for tag, id := range tagged {
		id := id
		switch tag {
		case "Project":
			u.project, u.job = &id, nil
		case "Job":
			u.project, u.job = nil, &id
		default:
			return fmt.Errorf("unknown config update variant %q", tag)
		}
	}
	return nil
}

// ConfigPublisher fans configuration updates out to the runners. Publishing
// is best-effort; the caller decides whether a failure matters.
type ConfigPublisher struct {
	conn    AMQPConnection
	channel AMQPChannel
}

// NewConfigPublisher dials the broker and declares the durable fanout
// exchange for configuration updates.
func NewConfigPublisher(dialer AMQPDialer, url string) (*ConfigPublisher, error) {
	common.Logger.Info("connecting to message broker")
	conn, err := dialer.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(ConfigUpdatesExchange, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", ConfigUpdatesExchange, err)
	}
	common.Logger.Info("connected to message broker")
	return &ConfigPublisher{conn: conn, channel: channel}, nil
}

// Publish sends one configuration update to the fanout exchange.
func (p *ConfigPublisher) Publish(update ConfigUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode config update: %w", err)
	}
	if err := p.channel.Publish(ConfigUpdatesExchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("failed to publish config update: %w", err)
	}
	return nil
}

// Close releases the channel and the connection.
func (p *ConfigPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// ConfigConsumer receives configuration updates on a runner. Each consumer
// gets its own server-named exclusive queue bound to the fanout exchange, so
// every runner sees every update.
type ConfigConsumer struct {
	conn       AMQPConnection
	channel    AMQPChannel
	deliveries <-chan amqp.Delivery
}

// NewConfigConsumer dials the broker and binds a fresh exclusive queue to the
// configuration update exchange.
func NewConfigConsumer(dialer AMQPDialer, url string) (*ConfigConsumer, error) {
	common.Logger.Info("connecting to message broker")
	conn, err := dialer.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(ConfigUpdatesExchange, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", ConfigUpdatesExchange, err)
	}
	queue, err := channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := channel.QueueBind(queue.Name, "", ConfigUpdatesExchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue %q: %w", queue.Name, err)
	}
	deliveries, err := channel.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to consume from queue %q: %w", queue.Name, err)
	}
	common.Logger.Info("connected to message broker")
	return &ConfigConsumer{conn: conn, channel: channel, deliveries: deliveries}, nil
}

// Listen decodes deliveries and hands them to handle until the context is
// cancelled or the broker closes the stream. Malformed payloads are logged
// and skipped.
func (c *ConfigConsumer) Listen(ctx context.Context, handle func(ConfigUpdate)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-c.deliveries:
			if !ok {
				return fmt.Errorf("config update stream closed")
			}
			var update ConfigUpdate
			if err := json.Unmarshal(delivery.Body, &update); err != nil {
				common.Logger.WithField("error", err).Warn("skipping malformed config update")
				continue
			}
			handle(update)
		}
	}
}

// Close releases the channel and the connection.
func (c *ConfigConsumer) Close() error {
	if err := c.channel.Close(); err != nil {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}
