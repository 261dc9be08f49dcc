package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the broker constructs the engine declares and uses.
type Topology struct {
	// UpstreamExchange is the fanout exchange the event producers publish to.
	UpstreamExchange string
	// RequeueExchange is the direct exchange tier queues dead-letter into.
	RequeueExchange string
	// MainQueue is the durable queue the consumer reads.
	MainQueue string
	// TierPrefix prefixes the tier queue names; tier 2 becomes
	// "<prefix>.2" and so on.
	TierPrefix string
}

// DefaultTopology returns the standard naming scheme bound to the given
// upstream exchange.
func DefaultTopology(upstreamExchange string) Topology {
	return Topology{
		UpstreamExchange: upstreamExchange,
		RequeueExchange:  "herald.requeue",
		MainQueue:        "herald.deliveries",
		TierPrefix:       "herald.retry.tier",
	}
}

// TierQueue returns the name of the given 1-based tier queue.
func (t Topology) TierQueue(tier int) string {
	return fmt.Sprintf("%s.%d", t.TierPrefix, tier)
}

// Declare sets up the complete topology on the channel. Every declaration
// is idempotent, so this runs safely on every restart. The main queue is
// created before any tier queue points a dead-letter route at it.
func (t Topology) Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(t.UpstreamExchange, amqp.ExchangeFanout,
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring upstream exchange %q: %w", t.UpstreamExchange, err)
	}
	if err := ch.ExchangeDeclare(t.RequeueExchange, amqp.ExchangeDirect,
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring requeue exchange %q: %w", t.RequeueExchange, err)
	}

	if _, err := ch.QueueDeclare(t.MainQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring main queue %q: %w", t.MainQueue, err)
	}
	if err := ch.QueueBind(t.MainQueue, "", t.UpstreamExchange, false, nil); err != nil {
		return fmt.Errorf("binding main queue to upstream exchange: %w", err)
	}
	if err := ch.QueueBind(t.MainQueue, t.MainQueue, t.RequeueExchange, false, nil); err != nil {
		return fmt.Errorf("binding main queue to requeue exchange: %w", err)
	}

	for tier := 1; tier <= TierCount(); tier++ {
		name := t.TierQueue(tier)
		args := amqp.Table{
			"x-message-ttl":             RetryDelay(tier).Milliseconds(),
			"x-dead-letter-exchange":    t.RequeueExchange,
			"x-dead-letter-routing-key": t.MainQueue,
		}
		if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
			return fmt.Errorf("declaring tier queue %q: %w", name, err)
		}
	}
	return nil
}
