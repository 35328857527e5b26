// Package tracing reports HTTP transactions to New Relic.
package tracing

import (
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/diewo77/festakit/internal/config"
)

// Tracer wraps the New Relic application. The zero value is disabled.
type Tracer struct {
	app *newrelic.Application
}

// NewTracer returns a disabled tracer when no license key is configured.
func NewTracer(cfg config.TracingConfig) (*Tracer, error) {
	if cfg.LicenseKey == "" {
		log.Info().Msg("New Relic license key not provided, tracing disabled")
		return &Tracer{}, nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(cfg.DistribTracing),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}
	return &Tracer{app: app}, nil
}

// Enabled reports whether transactions are recorded.
func (t *Tracer) Enabled() bool {
	return t != nil && t.app != nil
}

// Middleware starts one web transaction per request, named by the matched
// route pattern when available.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if !t.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txn := t.app.StartTransaction(r.Method + " " + r.URL.Path)
		defer txn.End()
		txn.SetWebRequestHTTP(r)
		w = txn.SetWebResponse(w)
		r = newrelic.RequestWithTransactionContext(r, txn)
		next.ServeHTTP(w, r)
		if r.Pattern != "" {
			txn.SetName(r.Pattern)
		}
	})
}

// NoticeError records err on the transaction carried by r, if any.
func NoticeError(r *http.Request, err error) {
	if err == nil {
		return
	}
	if txn := newrelic.FromContext(r.Context()); txn != nil {
		txn.NoticeError(err)
	}
}

// Shutdown flushes pending data.
func (t *Tracer) Shutdown() {
	if !t.Enabled() {
		return
	}
	t.app.Shutdown(10 * time.Second)
}
