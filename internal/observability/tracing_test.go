package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingEnabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), true)
	require.NoError(t, err)
	defer ShutdownTracing(context.Background(), shutdown)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-span")
	span.End()
}

func TestShutdownTracingNil(t *testing.T) {
	ShutdownTracing(context.Background(), nil)
}
