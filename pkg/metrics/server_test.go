package metrics

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logg := logger.New(logger.Options{ServiceName: "metrics-test", Output: io.Discard})

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", "", prometheus.NewRegistry(), logg) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
