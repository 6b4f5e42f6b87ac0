package services

import (
	"context"
	"testing"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOTPSweeper_RemovesExpired(t *testing.T) {
	store := repository.NewMemoryStore().Store()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.OTPs.Create(ctx, &models.OTPChallenge{Email: "old@gov.in", CodeHash: "x", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.OTPs.Create(ctx, &models.OTPChallenge{Email: "new@gov.in", CodeHash: "y", ExpiresAt: now.Add(time.Minute)}))

	sweeper := NewOTPSweeper(store.OTPs, zap.NewNop().Sugar())
	sweeper.now = func() time.Time { return now }
	sweeper.sweep(ctx)

	_, err := store.OTPs.Latest(ctx, "old@gov.in")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.OTPs.Latest(ctx, "new@gov.in")
	assert.NoError(t, err)
}

func TestOTPSweeper_StopsOnCancel(t *testing.T) {
	store := repository.NewMemoryStore().Store()
	sweeper := NewOTPSweeper(store.OTPs, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
