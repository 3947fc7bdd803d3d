// Package http exposes the operational endpoints of the bot process.
//
// The router serves:
//   - GET /healthz: pings the database through the connection pool. Responds
//     200 with {"status":"ok","pool":{...}} or 503 with {"status":"unavailable",
//     "error_kind","message"} when no connection could be used.
//   - GET /metrics: Prometheus exposition of the registered collectors,
//     including the pool gauges.
//
// Every request is logged with a request id, method, path and duration.
package http
