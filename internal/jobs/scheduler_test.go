package jobs_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"modelhaus/api/internal/jobs"
	"modelhaus/api/internal/staging"
	"modelhaus/api/internal/uploadflow"
)

func TestSchedulerStopReturnsAfterCronHalts(t *testing.T) {
	flows := uploadflow.NewRegistry(staging.Policy{MaxFiles: 10}, nil, zerolog.Nop())
	scheduler := jobs.NewScheduler(nil, flows, time.Hour, zerolog.Nop())
	require.NoError(t, scheduler.Start())

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	// Stop blocks until the cron loop is down, not for the full window.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stop never returned")
	}
}
