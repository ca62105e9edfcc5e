package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup_OrdersDependencies(t *testing.T) {
	s := newTestStartup(1)
	var started, stopped []string
	add := func(name string, requires ...string) {
		s.AddDependency(&Dependency{
			Name:     name,
			Requires: requires,
			OnStart:  func(context.Context) error { started = append(started, name); return nil },
			OnStop:   func(context.Context) error { stopped = append(stopped, name); return nil },
		})
	}
	add("api", "database", "redis")
	add("redis")
	add("database")

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"database", "redis", "api"}, started)
	assert.Equal(t, StartupStatusStarted, s.Status("api"))

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"api", "redis", "database"}, stopped)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	s := newTestStartup(3)
	calls := 0
	s.AddDependency(&Dependency{
		Name: "database",
		OnStart: func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_GivesUp(t *testing.T) {
	s := newTestStartup(2)
	s.AddDependency(&Dependency{
		Name:    "kafka",
		OnStart: func(context.Context) error { return errors.New("no brokers") },
	})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers")
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
}

func TestStartup_UnknownAndCyclicDependencies(t *testing.T) {
	s := newTestStartup(1)
	s.AddDependency(&Dependency{Name: "api", Requires: []string{"missing"}})
	assert.ErrorContains(t, s.Start(context.Background()), "unknown startup dependency")

	s = newTestStartup(1)
	s.AddDependency(&Dependency{Name: "a", Requires: []string{"b"}})
	s.AddDependency(&Dependency{Name: "b", Requires: []string{"a"}})
	assert.ErrorContains(t, s.Start(context.Background()), "cycle")
}
