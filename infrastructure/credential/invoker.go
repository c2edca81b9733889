package credential

import (
	"context"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"

	"golang.org/x/time/rate"
)

// Class is the outcome of classifying a failed remote call.
type Class int

const (
	// ClassFatal aborts the invocation.
	ClassFatal Class = iota
	// ClassTransient also aborts; retrying transport faults belongs to the HTTP client.
	ClassTransient
	// ClassQuota rotates to the next credential and retries.
	ClassQuota
)

func (c Class) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Classifier maps a provider error to a Class. Provider specific.
type Classifier func(error) Class

// Invoker runs remote operations under the retry-over-credentials policy.
type Invoker struct {
	pool     *Pool
	classify Classifier
	limiter  *rate.Limiter
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLimiter gates every attempt on l, capping the request rate across all callers.
func WithLimiter(l *rate.Limiter) Option {
	return func(i *Invoker) { i.limiter = l }
}

// NewInvoker builds an invoker over pool. A nil classify treats every error as fatal.
func NewInvoker(pool *Pool, classify Classifier, opts ...Option) *Invoker {
	if classify == nil {
		classify = func(error) Class { return ClassFatal }
	}
	inv := &Invoker{pool: pool, classify: classify}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Pool returns the credential pool the invoker rotates.
func (i *Invoker) Pool() *Pool {
	return i.pool
}

// Do calls op at most maxAttempts times, bounded by the pool size so each
// credential is tried at most once. A non-positive maxAttempts means the pool size.
// Quota failures rotate and retry; any other failure is returned as is.
// When every attempt hit quota the result is a *model.ExhaustedError.
func (i *Invoker) Do(ctx context.Context, maxAttempts int, op func(context.Context, model.Credential) error) error {
	size := i.pool.Size()
	if size == 0 {
		return model.ErrEmptyPool
	}
	attempts := maxAttempts
	if attempts <= 0 || attempts > size {
		attempts = size
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i.limiter != nil {
			if err := i.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		cred, idx, err := i.pool.Acquire()
		if err != nil {
			return err
		}

		err = op(ctx, cred)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		last = err

		class := i.classify(err)
		if class != ClassQuota {
			return err
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": attempts,
			"credential":  idx,
			"error":       err.Error(),
		}).Warn("Quota exceeded, rotating credential")
		i.pool.RotateFrom(idx)
	}
	return &model.ExhaustedError{Attempts: attempts, Last: last}
}

// Invoke is Do for operations that return a value.
func Invoke[T any](ctx context.Context, inv *Invoker, maxAttempts int, op func(context.Context, model.Credential) (T, error)) (T, error) {
	var result T
	err := inv.Do(ctx, maxAttempts, func(ctx context.Context, cred model.Credential) error {
		v, err := op(ctx, cred)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
