package scheduled

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bwmarrin/snowflake"
)

type Request struct {
	Route CompiledRoute
	// Body is encoded as JSON by the requester; nil means no body.
	Body any
}

type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Requester executes platform API requests. Authentication, retries and
// rate limiting are its concern. Any returned error means the request had
// no effect.
type Requester interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

type RequesterFunc func(ctx context.Context, req Request) (Response, error)

func (f RequesterFunc) Execute(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// SnapshotSource resolves the latest known state of an event.
type SnapshotSource interface {
	SnapshotOf(id snowflake.ID) (Snapshot, bool)
}

func execute(ctx context.Context, r Requester, req Request) (Response, error) {
	if r == nil {
		return Response{}, ErrNoRequester
	}
	resp, err := r.Execute(ctx, req)
	if err != nil {
		return Response{}, &TransportError{Route: req.Route, Err: err}
	}
	return resp, nil
}

type options struct {
	logger  *slog.Logger
	emitter *Emitter
	source  SnapshotSource
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEmitter hands every applied change to e.
func WithEmitter(e *Emitter) Option {
	return func(o *options) { o.emitter = e }
}

// WithSnapshotSource makes a Manager refresh its baseline from src before
// validating.
func WithSnapshotSource(src SnapshotSource) Option {
	return func(o *options) { o.source = src }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = resolveLogger(o.logger)
	return o
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
