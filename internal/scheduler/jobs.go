package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Sweeper is the reminder trigger the daily job fires.
type Sweeper interface {
	RunSweepNow(ctx context.Context) (int, error)
}

// DailyJob sweeps and then runs refresh, if any. The refresh runs even when
// the sweep failed; both errors are reported.
func DailyJob(sw Sweeper, refresh JobFunc) JobFunc {
	return func(ctx context.Context) error {
		_, sweepErr := sw.RunSweepNow(ctx)
		if refresh == nil {
			return sweepErr
		}
		if err := refresh(ctx); err != nil {
			return errors.Join(sweepErr, fmt.Errorf("%s: %w", config.ErrFeedRefresh, err))
		}
		return sweepErr
	}
}
