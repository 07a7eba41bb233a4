// Package prometheus provides a Prometheus adapter for
// github.com/abczzz13/ipfilter.
//
// The package exposes ipfilter options that install a Prometheus-backed
// Metrics implementation on a filter, using either the default registerer
// or a caller-provided registerer.
package prometheus
