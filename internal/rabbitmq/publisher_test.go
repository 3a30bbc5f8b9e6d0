package rabbitmq

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func publishErrorCount(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "gateway_amqp_publish_errors_total" {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestPublishFailureIncrementsErrorCounter(t *testing.T) {
	publisher := &amqpPublisher{exchange: "gateway_events"}
	before := publishErrorCount(t)

	// Channels are not JSON-serializable, so Publish fails before touching
	// the broker connection.
	err := publisher.Publish(context.Background(), "gateway_events.errors", make(chan int))

	require.Error(t, err)
	require.Equal(t, before+1, publishErrorCount(t))
}

func TestNoopPublisherDoesNotCountErrors(t *testing.T) {
	publisher := NewPublisher("", "gateway_events")
	before := publishErrorCount(t)

	err := publisher.Publish(context.Background(), "gateway_events.errors", map[string]string{"reason": "x"})

	require.NoError(t, err)
	require.Equal(t, before, publishErrorCount(t))
	require.Equal(t, "noop", PublisherMode(publisher))
}
