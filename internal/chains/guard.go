package chains

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/helixpay/custody-engine/internal/domain"
)

// Guard wraps every provider RPC call with a per-provider rate limit and a
// hard timeout. A timed-out call surfaces as domain.ErrProviderTimeout, which
// jobs treat as recoverable for that unit of work.
type Guard struct {
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGuard creates a guard allowing rps requests per second with the given
// burst, applying timeout to each call. rps <= 0 disables rate limiting.
func NewGuard(rps float64, burst int, timeout time.Duration) *Guard {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Guard{limiter: limiter, timeout: timeout}
}

// Do rate-limits, bounds and runs one provider call.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := fn(cctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return err
}
