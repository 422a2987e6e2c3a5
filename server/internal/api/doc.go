// Package api implements the relay's asset endpoint.
//
// New returns an http.Handler that serves:
//
//	GET <asset path>            - the companion client script, read on every request
//	GET /healthz                - {"status":"ok","clients":N}
//	GET /metrics                - Prometheus text exposition of relay counters
//	GET /api/v1/diagnostics     - the most recent warnings and errors
//
// Non-GET methods return 405. JSON types are defined in types.go. No external
// HTTP framework is used.
package api
