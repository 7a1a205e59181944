// Package monitoring exposes Prometheus metrics for the session multiplexer,
// the memory client and the control API.
//
// Metrics live in their own registry so tests can build as many collectors
// as they like. All Record/Inc methods accept a nil *Metrics and do nothing,
// which lets components treat metrics as optional.
package monitoring
