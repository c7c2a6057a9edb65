package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopyrpc"
)

// Upstream incapsula le chiamate gRPC all'estimator con Circuit Breaker e retry
type Upstream struct {
	client  canopyrpc.CanopyServiceClient
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	retries uint64
}

// NewUpstream wraps client. Each call is bounded by timeout and retried up to
// retries times while the estimator is unavailable.
func NewUpstream(client canopyrpc.CanopyServiceClient, breaker *gobreaker.CircuitBreaker, timeout time.Duration, retries int) *Upstream {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Upstream{client: client, breaker: breaker, timeout: timeout, retries: uint64(retries)}
}

// State is the breaker state, for /healthz.
func (u *Upstream) State() gobreaker.State { return u.breaker.State() }

func (u *Upstream) Fapar(ctx context.Context, req canopyrpc.FaparRequest) (canopy.Interception, error) {
	out, err := u.call(ctx, req.Struct(), u.client.ComputeFapar)
	if err != nil {
		return canopy.Interception{}, err
	}
	r, err := canopyrpc.DecodeInterception(out)
	if err != nil {
		return r, fmt.Errorf("estimator reply: %w", err)
	}
	return r, nil
}

func (u *Upstream) Transpiration(ctx context.Context, req canopyrpc.TranspirationRequest) (canopy.Transpiration, error) {
	out, err := u.call(ctx, req.Struct(), u.client.ComputeTranspiration)
	if err != nil {
		return canopy.Transpiration{}, err
	}
	t, err := canopyrpc.DecodeTranspiration(out)
	if err != nil {
		return t, fmt.Errorf("estimator reply: %w", err)
	}
	return t, nil
}

type rpc func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

func (u *Upstream) call(ctx context.Context, in *structpb.Struct, fn rpc) (*structpb.Struct, error) {
	res, err := u.breaker.Execute(func() (interface{}, error) {
		var out *structpb.Struct
		op := func() error {
			cctx, cancel := context.WithTimeout(ctx, u.timeout)
			defer cancel()
			var err error
			out, err = fn(cctx, in)
			if err != nil && status.Code(err) != codes.Unavailable {
				return backoff.Permanent(err)
			}
			return err
		}
		b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), u.retries), ctx)
		if err := backoff.Retry(op, b); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*structpb.Struct), nil
}
