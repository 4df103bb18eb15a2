package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/bookmark-search/internal/infrastructure/resilience"
)

// classifyNATSError extends the transport classifier with NATS connection states.
func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionReconnecting) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ClassifyTransportError(err)
}
