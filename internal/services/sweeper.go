package services

import (
	"context"
	"time"

	"github.com/aawaaz/civic-portal/internal/repository"
	"go.uber.org/zap"
)

// OTPSweeper periodically deletes expired OTP challenges. Verification
// checks expiry itself, so this is housekeeping only.
type OTPSweeper struct {
	otps   repository.OTPRepository
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewOTPSweeper creates a new background sweeper
func NewOTPSweeper(otps repository.OTPRepository, logger *zap.SugaredLogger) *OTPSweeper {
	return &OTPSweeper{otps: otps, logger: logger, now: time.Now}
}

// Start runs the sweep loop until ctx is cancelled
func (w *OTPSweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("OTP sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OTPSweeper) sweep(ctx context.Context) {
	n, err := w.otps.DeleteExpired(ctx, w.now())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Errorw("OTP sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.logger.Infow("Expired OTPs removed", "count", n)
	}
}
