package ipfilter

import (
	"context"
	"io"
	"net/http"
)

type decisionContextKey struct{}

// ContextWithDecision returns a copy of ctx carrying d.
func ContextWithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision stored by Middleware for the
// current request.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

// Middleware wraps next with the filter. Permitted requests continue with
// the decision available through DecisionFromContext. Denied requests get
// the configured deny status and message (401 "Unauthorized" by default).
//
// A filter without rules returns next unchanged.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	if !f.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.serve(w, r, next)
	})
}

func (f *Filter) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	d := f.EvaluateRequest(r)
	if !d.Permitted() {
		writeDenied(w, f.config.denyStatus, f.config.denyMessage)
		return
	}

	if f.Enabled() {
		r = r.WithContext(ContextWithDecision(r.Context(), d))
	}
	next.ServeHTTP(w, r)
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}
