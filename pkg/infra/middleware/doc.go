// Package middleware provides the gin middleware chain of the HTTP server.
//
// The chain order is fixed: Recovery, RequestID, Tracing, Logger, Metrics.
package middleware
