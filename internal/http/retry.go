package http

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/keboola/developer-portal-client-go/internal/constants"
)

// RandomSource supplies the jitter of the throttle rule.
type RandomSource interface {
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 {
	return rand.Int63n(n) //nolint:gosec // jitter, not security sensitive
}

// Rule is one retry policy. Attempt counts the retries this rule has already
// granted for the current logical request, plus one.
type Rule struct {
	Name        string
	ShouldRetry func(attempt int, resp *http.Response, err error) bool
	Delay       func(attempt int) time.Duration
}

// ThrottleRule retries every HTTP 503 without limit after a uniformly random
// pause between minWait and maxWait.
func ThrottleRule(minWait, maxWait time.Duration, rnd RandomSource) Rule {
	if rnd == nil {
		rnd = globalRand{}
	}

	if maxWait < minWait {
		maxWait = minWait
	}

	return Rule{
		Name: "throttle",
		ShouldRetry: func(_ int, resp *http.Response, _ error) bool {
			return resp != nil && resp.StatusCode == http.StatusServiceUnavailable
		},
		Delay: func(int) time.Duration {
			return minWait + time.Duration(rnd.Int64N(int64(maxWait-minWait)+1))
		},
	}
}

// TransientRule retries server errors and transport failures at most
// maxRetries times, waiting unit, 2*unit, 4*unit and so on.
func TransientRule(maxRetries int, unit time.Duration) Rule {
	return Rule{
		Name: "transient",
		ShouldRetry: func(attempt int, resp *http.Response, err error) bool {
			if attempt > maxRetries {
				return false
			}

			if resp == nil {
				return err != nil
			}

			return resp.StatusCode > 499
		},
		Delay: func(attempt int) time.Duration {
			return unit * time.Duration(1<<(attempt-1))
		},
	}
}

// Chain evaluates its rules in order. The first rule that wants to retry
// decides the delay, and only its attempt counter advances.
type Chain struct {
	rules []Rule
}

// NewChain creates a chain, outermost rule first.
func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: rules}
}

// DefaultChain is the production policy: a slow random retry for HTTP 503
// wrapped around exponential backoff for other server errors.
func DefaultChain() *Chain {
	return NewChain(
		ThrottleRule(constants.ThrottleWaitMin, constants.ThrottleWaitMax, nil),
		TransientRule(constants.TransientRetryMax, constants.TransientRetryUnit),
	)
}

// Rules returns the rule names, outermost first.
func (c *Chain) Rules() []string {
	names := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		names = append(names, rule.Name)
	}

	return names
}

// retryState is the chain bookkeeping of one logical request.
type retryState struct {
	chain  *Chain
	counts []int
	delay  time.Duration
	fired  string
}

func (c *Chain) newState() *retryState {
	return &retryState{
		chain:  c,
		counts: make([]int, len(c.rules)),
	}
}

// checkRetry implements retryablehttp.CheckRetry. A transport error that no
// rule retries is returned as is so the caller sees the original failure.
func (s *retryState) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	for i, rule := range s.chain.rules {
		attempt := s.counts[i] + 1
		if rule.ShouldRetry(attempt, resp, err) {
			s.counts[i] = attempt
			s.delay = rule.Delay(attempt)
			s.fired = rule.Name

			return true, nil
		}
	}

	return false, err
}

// backoff implements retryablehttp.Backoff with the delay chosen by checkRetry.
func (s *retryState) backoff(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return s.delay
}
