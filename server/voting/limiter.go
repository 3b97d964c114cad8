package voting

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

func newLimiter(every time.Duration, burst int) *limiter {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &limiter{
		limit:  limit,
		burst:  max(burst, 1),
		voters: make(map[string]*rate.Limiter),
	}
}

// limiter throttles ballots per anonymous voter token.
type limiter struct {
	limit  rate.Limit
	burst  int
	mu     sync.Mutex
	voters map[string]*rate.Limiter
}

func (l *limiter) allow(voter string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.voters[voter]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.voters[voter] = lim
	}
	return lim.Allow()
}
