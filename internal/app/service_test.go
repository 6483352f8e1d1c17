package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Int32
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Add(1)
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	boom := errors.New("listen failed")
	failing := &fakeService{name: "http", startErr: boom}
	blocking := &fakeService{name: "worker", block: true}

	err := NewRunner(failing, blocking).Run(context.Background(), time.Second, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), failing.stopped.Load())
	assert.Equal(t, int32(1), blocking.stopped.Load())
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	svc := &fakeService{name: "http", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, NewRunner(svc).Run(ctx, time.Second, nil))
	assert.Equal(t, int32(1), svc.stopped.Load())
}

func TestRunnerRequiresServices(t *testing.T) {
	assert.Error(t, NewRunner().Run(context.Background(), time.Second, nil))
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{
		"":       ModeAll,
		"all":    ModeAll,
		" API ":  ModeAPI,
		"worker": ModeWorker,
	}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("cron")
	assert.Error(t, err)
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	_, _, err := BuildRunner(nil, ModeAPI)
	assert.Error(t, err)
}

type panicService struct{ fakeService }

func (s *panicService) Start(context.Context) error { panic("boom") }

func TestRunnerRecoversPanickingService(t *testing.T) {
	svc := &panicService{fakeService: fakeService{name: "worker"}}
	err := NewRunner(svc).Run(context.Background(), time.Second, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, int32(1), svc.stopped.Load())
}
