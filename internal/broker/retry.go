// Package broker owns everything AMQP: the connection, the tiered
// dead-letter retry topology, the tier publisher, and the retry math the
// consumer keys off. Delay is implemented with broker-native per-queue TTL
// plus dead-letter re-routing, so scheduled retries survive process
// restarts without any in-process timer.
package broker

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MaxDeliveryAttempts caps the total number of attempts (initial consume
// plus retries) before a message is logged and dropped.
const MaxDeliveryAttempts = 10

// RetryCountHeader is the message header carrying the retry counter. It is
// incremented on each re-publish and read to pick the tier.
const RetryCountHeader = "x-retry-count"

// tierDelays is the escalating backoff schedule; tier N has TTL
// tierDelays[N-1]. The last tier absorbs all overflow.
var tierDelays = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
	300 * time.Second,
}

// TierCount returns the number of retry tiers.
func TierCount() int { return len(tierDelays) }

// RetryDelay returns tier n's delay, clamping n to the valid range: values
// below 1 map to the first tier, values past the last tier to the final one.
func RetryDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > len(tierDelays) {
		n = len(tierDelays)
	}
	return tierDelays[n-1]
}

// TierForRetryCount maps the retry-count header value to the 1-based tier
// the message should be parked in next. The second return is false when the
// count is at or past the attempt cap and no tier applies.
func TierForRetryCount(retryCount int) (int, bool) {
	if retryCount >= MaxDeliveryAttempts {
		return 0, false
	}
	tier := retryCount + 1
	if tier > len(tierDelays) {
		tier = len(tierDelays)
	}
	return tier, true
}

// MaxAttemptsReached reports whether the given attempt number has hit the cap.
func MaxAttemptsReached(attempt int) bool {
	return attempt >= MaxDeliveryAttempts
}

// ReadRetryCount extracts the retry counter from message headers,
// defaulting to 0. AMQP clients deliver numeric headers with varying
// integer widths, so all of them are accepted.
func ReadRetryCount(headers amqp.Table) int {
	v, ok := headers[RetryCountHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
