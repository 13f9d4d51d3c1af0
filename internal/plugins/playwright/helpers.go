package playwright

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// timeoutOption converts the context deadline into a playwright timeout in
// milliseconds. Playwright treats 0 as "no timeout", so an expired deadline
// still yields 1ms.
func timeoutOption(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	return playwright.Float(remainingMillis(time.Until(deadline)))
}

func remainingMillis(remaining time.Duration) float64 {
	ms := float64(remaining.Milliseconds())
	if ms < 1 {
		return 1
	}
	return ms
}
