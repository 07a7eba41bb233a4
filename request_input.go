package ipfilter

import (
	"context"
	"net/http"
)

// HeaderValues provides access to request header values by name.
//
// Implementations should return one slice entry per received header line.
// Repeated lines are joined in wire order before the client address is
// selected.
//
// Header names are requested in canonical MIME format (for example
// "X-Forwarded-For").
//
// net/http's http.Header satisfies this interface directly.
type HeaderValues interface {
	Values(name string) []string
}

// HeaderValuesFunc adapts a function to the HeaderValues interface.
type HeaderValuesFunc func(name string) []string

// Values implements HeaderValues.
func (f HeaderValuesFunc) Values(name string) []string {
	if f == nil {
		return nil
	}

	return f(name)
}

// RequestInput provides framework-agnostic request data for evaluation.
//
// Context defaults to context.Background() when nil. Path is only used to
// annotate log records.
type RequestInput struct {
	Context    context.Context
	RemoteAddr string
	Path       string
	Headers    HeaderValues
}

func requestInputContext(input RequestInput) context.Context {
	if input.Context == nil {
		return context.Background()
	}

	return input.Context
}

func inputHeaderValues(headers HeaderValues, key string) []string {
	if key == "" || headers == nil {
		return nil
	}

	switch h := headers.(type) {
	case http.Header:
		return h.Values(key)
	case *http.Header:
		if h == nil {
			return nil
		}
		return h.Values(key)
	case HeaderValuesFunc:
		return h.Values(key)
	}

	if isNilInterface(headers) {
		return nil
	}

	return headers.Values(key)
}

func requestInputFromHTTP(r *http.Request) RequestInput {
	if r == nil {
		return RequestInput{}
	}

	input := RequestInput{
		Context:    r.Context(),
		RemoteAddr: r.RemoteAddr,
		Headers:    r.Header,
	}
	if r.URL != nil {
		input.Path = r.URL.Path
	}

	return input
}
