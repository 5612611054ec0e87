// Package watch regenerates the usage report on an interval for live mode.
// Failures back off between generations; a single generation never retries
// internally, so a rendered report is always one consistent query.
package watch

import (
	"context"
	"math/rand"
	"time"

	"slurm_usage/internal/usage"
)

type State string

const (
	StateCurrent    State = "current"
	StateRetrying   State = "retrying"
	StateRecovering State = "recovering"
)

type Update struct {
	Report      *usage.Report
	State       State
	LastError   string
	LastSuccess time.Time
	NextRetry   time.Time
}

// Generator produces one complete report.
type Generator interface {
	Generate(ctx context.Context) (usage.Report, error)
}

type GeneratorFunc func(ctx context.Context) (usage.Report, error)

func (f GeneratorFunc) Generate(ctx context.Context) (usage.Report, error) {
	return f(ctx)
}

type Loop struct {
	Generator        Generator
	Refresh          time.Duration
	BaseBackoff      time.Duration
	MaxBackoff       time.Duration
	FailureThreshold int
	Rand             *rand.Rand
}

func NewLoop(gen Generator, refresh time.Duration) *Loop {
	return &Loop{
		Generator:        gen,
		Refresh:          refresh,
		BaseBackoff:      1 * time.Second,
		MaxBackoff:       30 * time.Second,
		FailureThreshold: 3,
	}
}

func (l *Loop) Run(ctx context.Context, updates chan<- Update) {
	defer close(updates)

	if l.Rand == nil {
		l.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	failures := 0
	var lastSuccess time.Time

	for {
		report, err := l.Generator.Generate(ctx)
		if err == nil {
			failures = 0
			lastSuccess = report.GeneratedAt
			if !send(ctx, updates, Update{
				Report:      &report,
				State:       StateCurrent,
				LastSuccess: lastSuccess,
			}) {
				return
			}
			if !wait(ctx, l.Refresh) {
				return
			}
			continue
		}

		failures++
		state := StateRetrying
		if failures >= l.FailureThreshold {
			state = StateRecovering
		}
		delay := l.backoffDelay(failures)

		if !send(ctx, updates, Update{
			State:       state,
			LastError:   err.Error(),
			LastSuccess: lastSuccess,
			NextRetry:   time.Now().Add(delay),
		}) {
			return
		}
		if !wait(ctx, delay) {
			return
		}
	}
}

func (l *Loop) backoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	delay := l.BaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= l.MaxBackoff {
			delay = l.MaxBackoff
			break
		}
	}

	jitterFactor := 0.8 + (l.Rand.Float64() * 0.4)
	jittered := time.Duration(float64(delay) * jitterFactor)
	if jittered < l.BaseBackoff {
		jittered = l.BaseBackoff
	}
	if jittered > l.MaxBackoff {
		jittered = l.MaxBackoff
	}
	return jittered
}

func send(ctx context.Context, updates chan<- Update, update Update) bool {
	select {
	case <-ctx.Done():
		return false
	case updates <- update:
		return true
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
