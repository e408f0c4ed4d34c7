// Package dispatch provides publication.Dispatcher implementations.
//
// LogDispatcher writes every publication to a slog.Logger. BreakerDispatcher
// queues publications and delivers them to a Transport from a worker pool,
// with one circuit breaker per subscriber proxy. Delivery is best effort:
// a full queue, an open breaker, an expired publication or a transport
// error drops the publication.
package dispatch
