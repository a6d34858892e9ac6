package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule_SweepLoop(t *testing.T) {
	m := NewModule()
	m.sweepInterval = 10 * time.Millisecond
	m.idleTimeout = 30 * time.Minute

	code := m.store.CreatePrivateRoom("a", "alice")
	m.store.rooms[code].LastActivity = time.Now().Add(-time.Hour)
	m.store.EnsurePublicRoom()

	require.NoError(t, m.Start(context.Background()))
	defer func() { require.NoError(t, m.Stop(context.Background())) }()

	require.Eventually(t, func() bool {
		_, ok := m.store.GetRoom(code)
		return !ok
	}, time.Second, 5*time.Millisecond, "idle private room should be swept")

	_, ok := m.store.GetRoom("PUBLIC")
	assert.True(t, ok, "sweep must not touch the public room")
}

func TestModule_StopDrainsSweep(t *testing.T) {
	m := NewModule()
	m.sweepInterval = 5 * time.Millisecond

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	select {
	case <-m.sweepDone:
	default:
		t.Fatal("Stop() must wait for the sweep goroutine to exit")
	}
}

func TestDurationEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset uses default", value: "", want: time.Minute},
		{name: "valid duration", value: "90s", want: 90 * time.Second},
		{name: "garbage uses default", value: "soon", want: time.Minute},
		{name: "non-positive uses default", value: "-5m", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_SWEEP_DURATION", tt.value)
			}
			got := durationEnv("TEST_SWEEP_DURATION", time.Minute)
			assert.Equal(t, tt.want, got)
		})
	}
}
