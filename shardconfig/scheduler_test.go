package shardconfig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSchedulerRunsRefreshOnSchedule(t *testing.T) {
	calls := make(chan struct{}, 8)
	refresh := func(ctx context.Context) (*Root, error) {
		root, err := Load([]byte(sampleYAML))
		calls <- struct{}{}
		return root, err
	}

	s := NewScheduler(zaptest.NewLogger(t), refresh)
	require.NoError(t, s.AddSchedule("@every 50ms"))
	s.Start()
	defer s.Stop()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled refresh never ran")
	}

	require.Eventually(t, func() bool {
		return s.Current() != nil
	}, time.Second, 10*time.Millisecond)

	_, ok := s.Current().ShardSetByName("widgets")
	require.True(t, ok)
}

func TestSchedulerSurfacesRefreshErrorsWithoutPanicking(t *testing.T) {
	refresh := func(ctx context.Context) (*Root, error) {
		return nil, ErrUnknownShardSet("boom")
	}

	s := NewScheduler(zaptest.NewLogger(t), refresh)
	require.NoError(t, s.AddSchedule("@every 30ms"))
	s.Start()
	defer s.Stop()

	// cron rounds sub-second @every intervals up to one second, so wait long
	// enough for at least one failing refresh to run.
	time.Sleep(1500 * time.Millisecond)
	require.Nil(t, s.Current())
}
