package log

// Logger receives engine trace events.
// Pass nil or NoopLogger to disable tracing.
type Logger interface {
	// Log records an event. Implementations must be thread-safe and should
	// not block; the engine calls Log while holding its scheduling lock.
	Log(event Event)
}

// NoopLogger discards all events. It is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
