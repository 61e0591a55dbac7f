package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shardkit/shardkit/apperrors"
)

func TestBreakerPolicyRetriesTransientFailures(t *testing.T) {
	p := NewBreakerPolicy(BreakerConfig{
		Name:            "test",
		MinRequests:     100, // keep the breaker from tripping mid-test
		FailureRate:     1,
		MaxElapsedRetry: 5 * time.Second,
	}, nil)

	attempts := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestBreakerPolicyDoesNotRetryPermanentErrors(t *testing.T) {
	p := NewBreakerPolicy(BreakerConfig{
		Name:            "test",
		MinRequests:     100,
		FailureRate:     1,
		MaxElapsedRetry: time.Second,
	}, nil)

	attempts := 0
	appErr := apperrors.New(apperrors.KindInvalidMapping, "bad config")
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return appErr
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestBreakerPolicyStateReportsOpenAfterTripping(t *testing.T) {
	p := NewBreakerPolicy(BreakerConfig{
		Name:        "test",
		MinRequests: 1,
		FailureRate: 0.5,
	}, nil)
	require.Equal(t, "closed", p.State())

	_ = p.Execute(context.Background(), func(ctx context.Context) error {
		return apperrors.New(apperrors.KindInvalidMapping, "always fails")
	})

	require.Equal(t, "open", p.State())
}

func TestNoopPolicyRunsOnce(t *testing.T) {
	calls := 0
	err := NoopPolicy{}.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
