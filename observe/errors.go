package observe

import "errors"

// Errors returned by Config.Validate. They are wrapped with the offending
// value, so match them with errors.Is.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
)

// ErrNilObserver is returned when instruments are requested from a nil Observer.
var ErrNilObserver = errors.New("observe: observer is nil")
