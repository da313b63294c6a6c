// Package report forwards unexpected errors to Sentry. A Reporter without a
// DSN is a no-op, so callers never need to check whether reporting is on.
package report

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/Clark-Hu/moviedb/internal/errs"
)

// FlushTime bounds how long Flush waits for buffered events.
var FlushTime = 2 * time.Second

// Option adjusts the Sentry client options before the client is built.
type Option func(*sentry.ClientOptions)

// WithBeforeSend installs a hook that sees every event before transport.
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) {
		o.BeforeSend = fn
	}
}

// Reporter sends errors to a dedicated Sentry hub.
type Reporter struct {
	hub *sentry.Hub
}

// Init builds a Reporter. An empty dsn or the "local" environment yields a
// disabled Reporter.
func Init(dsn, env string, opts ...Option) (*Reporter, error) {
	if dsn == "" || env == "local" {
		return &Reporter{}, nil
	}
	clientOpts := sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		AttachStacktrace: true,
	}
	for _, opt := range opts {
		opt(&clientOpts)
	}
	client, err := sentry.NewClient(clientOpts)
	if err != nil {
		return nil, errs.Wrap(errs.EINVALID, err, "Invalid SENTRY_DSN.")
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Enabled reports whether events are sent anywhere.
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// Capture reports err. Application errors with a user-facing code other than
// EINTERNAL are expected outcomes and are skipped.
func (r *Reporter) Capture(err error, tags map[string]string) {
	if !r.Enabled() || err == nil {
		return
	}
	var appErr *errs.Error
	if errors.As(err, &appErr) && appErr.Code != errs.EINTERNAL {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("code", errs.ErrorCode(err))
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		r.hub.CaptureException(err)
	})
}

// Flush waits up to FlushTime for queued events.
func (r *Reporter) Flush() bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(FlushTime)
}

// Middleware recovers panics in HTTP handlers, reports them and re-panics.
func (r *Reporter) Middleware(next http.Handler) http.Handler {
	if !r.Enabled() {
		return next
	}
	handler := sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(next)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := sentry.SetHubOnContext(req.Context(), r.hub.Clone())
		handler.ServeHTTP(w, req.WithContext(ctx))
	})
}
