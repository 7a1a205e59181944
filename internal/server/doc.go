// Package server is the optional local control API.
//
// It listens on a loopback address and exposes read-only views of the
// running application:
//
//	GET /health                    liveness and active session count
//	GET /metrics                   Prometheus exposition
//	GET /api/stats                 metrics snapshot as JSON
//	GET /api/sessions              active persona ids and session details
//	GET /api/sessions/:id/output   recent raw output of one session
//	GET /api/personas              configured personas
//
// The API is disabled unless [control] enabled = true.
package server
