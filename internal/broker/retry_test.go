package broker_test

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/herald-sh/herald/internal/broker"
)

func TestRetryDelay_Schedule(t *testing.T) {
	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		30 * time.Second,
		60 * time.Second,
		300 * time.Second,
	}
	for n := 1; n <= 5; n++ {
		assert.Equal(t, want[n-1], broker.RetryDelay(n), "tier %d", n)
	}
}

func TestRetryDelay_Clamped(t *testing.T) {
	// Past the last tier: clamp to the final delay.
	assert.Equal(t, 300*time.Second, broker.RetryDelay(6))
	assert.Equal(t, 300*time.Second, broker.RetryDelay(100))

	// At or below zero: clamp to the first tier.
	assert.Equal(t, 5*time.Second, broker.RetryDelay(0))
	assert.Equal(t, 5*time.Second, broker.RetryDelay(-3))
}

func TestTierForRetryCount(t *testing.T) {
	tests := []struct {
		retryCount int
		wantTier   int
		wantOK     bool
	}{
		{0, 1, true},
		{1, 2, true},
		{2, 3, true},
		{3, 4, true},
		{4, 5, true},
		{5, 5, true},
		{7, 5, true},
		{9, 5, true},
		{10, 0, false},
		{11, 0, false},
	}
	for _, tt := range tests {
		tier, ok := broker.TierForRetryCount(tt.retryCount)
		assert.Equal(t, tt.wantOK, ok, "retryCount=%d", tt.retryCount)
		assert.Equal(t, tt.wantTier, tier, "retryCount=%d", tt.retryCount)
	}
}

func TestMaxAttemptsReached(t *testing.T) {
	assert.False(t, broker.MaxAttemptsReached(9))
	assert.True(t, broker.MaxAttemptsReached(10))
	assert.True(t, broker.MaxAttemptsReached(11))
}

func TestReadRetryCount(t *testing.T) {
	assert.Equal(t, 0, broker.ReadRetryCount(nil))
	assert.Equal(t, 0, broker.ReadRetryCount(amqp.Table{}))
	assert.Equal(t, 3, broker.ReadRetryCount(amqp.Table{broker.RetryCountHeader: int32(3)}))
	assert.Equal(t, 4, broker.ReadRetryCount(amqp.Table{broker.RetryCountHeader: int64(4)}))
	assert.Equal(t, 5, broker.ReadRetryCount(amqp.Table{broker.RetryCountHeader: 5}))
	// Unparseable values default to zero.
	assert.Equal(t, 0, broker.ReadRetryCount(amqp.Table{broker.RetryCountHeader: "nine"}))
}

func TestTopology_TierQueueNaming(t *testing.T) {
	top := broker.DefaultTopology("auth.events")
	assert.Equal(t, "herald.retry.tier.1", top.TierQueue(1))
	assert.Equal(t, "herald.retry.tier.5", top.TierQueue(5))
	assert.Equal(t, "herald.deliveries", top.MainQueue)
	assert.Equal(t, "herald.requeue", top.RequeueExchange)
}
