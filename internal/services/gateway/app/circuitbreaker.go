package app

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// BreakerSettings configura il circuit breaker verso l'estimator.
// Stati: Closed -> (failures consecutivi) -> Open -> (dopo OpenFor) -> HalfOpen
type BreakerSettings struct {
	Failures int
	OpenFor  time.Duration
	Interval time.Duration
}

func newBreaker(name string, s BreakerSettings, log *logrus.Entry, onChange func(gobreaker.State)) *gobreaker.CircuitBreaker {
	if s.Failures < 1 {
		s.Failures = 1
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: s.Interval,
		Timeout:  s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(s.Failures)
		},
		IsSuccessful: upstreamHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("breaker state change")
			if onChange != nil {
				onChange(to)
			}
		},
	})
}

// upstreamHealthy tells the breaker which errors are the caller's fault:
// a rejected input says nothing about the estimator's health.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.Canceled:
		return true
	}
	return false
}

// breakerOpen reports whether err comes from the breaker rejecting the call.
func breakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
