package fetch

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Politeness applies the per-task delay every worker sleeps after finishing an identifier,
// whatever the outcome: base + rand[0,1)*base.
type Politeness struct {
	base time.Duration
	log  *logrus.Entry
}

// NewPoliteness creates a Politeness with the given base delay
func NewPoliteness(base time.Duration, log *logrus.Entry) *Politeness {
	return &Politeness{base: base, log: log}
}

// Next returns the next sleep duration without sleeping
func (p *Politeness) Next() time.Duration {
	if p.base <= 0 {
		return 0
	}
	return p.base + time.Duration(rand.Float64()*float64(p.base))
}

// Wait sleeps for the next politeness delay, returning early if ctx is cancelled.
// Returns the duration actually requested.
func (p *Politeness) Wait(ctx context.Context) time.Duration {
	d := p.Next()
	if d <= 0 {
		return 0
	}
	p.log.WithField("sleep", d).Trace("Politeness sleep")

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return d
}

// RequestLimiter caps the request rate across all workers. A nil limiter or a
// non-positive rate means unlimited.
type RequestLimiter struct {
	limiter *rate.Limiter
}

// NewRequestLimiter creates a limiter allowing rps requests per second with a burst of one
func NewRequestLimiter(rps float64) *RequestLimiter {
	if rps <= 0 {
		return &RequestLimiter{}
	}
	return &RequestLimiter{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until a request slot is available or ctx is done
func (l *RequestLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Enabled reports whether a rate is being enforced
func (l *RequestLimiter) Enabled() bool {
	return l != nil && l.limiter != nil
}
