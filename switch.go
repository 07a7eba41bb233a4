package ipfilter

import (
	"errors"
	"net/http"
	"sync/atomic"
)

// Switch holds the active Filter and replaces it atomically. Evaluations
// load the current Filter once, so an in-flight request sees either the old
// or the new rule set in full.
type Switch struct {
	current atomic.Pointer[Filter]
}

// NewSwitch returns a Switch serving f. It panics if f is nil.
func NewSwitch(f *Filter) *Switch {
	if f == nil {
		panic("ipfilter: NewSwitch called with nil filter")
	}

	s := &Switch{}
	s.current.Store(f)
	return s
}

// Load returns the active Filter.
func (s *Switch) Load() *Filter {
	return s.current.Load()
}

// Store makes f the active Filter and returns the one it replaced.
func (s *Switch) Store(f *Filter) (*Filter, error) {
	if f == nil {
		return nil, errors.New("filter cannot be nil")
	}
	return s.current.Swap(f), nil
}

// EvaluateRequest decides r with the active Filter.
func (s *Switch) EvaluateRequest(r *http.Request) Decision {
	return s.Load().EvaluateRequest(r)
}

// Middleware is like Filter.Middleware but consults the active Filter on
// every request.
func (s *Switch) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Load().serve(w, r, next)
	})
}
