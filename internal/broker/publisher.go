package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TierPublisher re-publishes message bodies into retry tier queues.
type TierPublisher struct {
	ch       *amqp.Channel
	topology Topology
}

// NewTierPublisher creates a TierPublisher on the given channel.
func NewTierPublisher(ch *amqp.Channel, topology Topology) *TierPublisher {
	return &TierPublisher{ch: ch, topology: topology}
}

// PublishToTier parks the original message body in the given tier queue
// with the retry counter stamped into the headers. Publishing goes through
// the default exchange so the routing key addresses the queue directly.
func (p *TierPublisher) PublishToTier(ctx context.Context, tier int, body []byte, retryCount int) error {
	queue := p.topology.TierQueue(tier)
	err := p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{RetryCountHeader: int32(retryCount)},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing to tier queue %q: %w", queue, err)
	}
	return nil
}
