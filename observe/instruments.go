package observe

// Instruments bundles the telemetry handed to request-path components such as
// the cache engine and the HTTP middleware.
type Instruments struct {
	Tracer  Tracer
	Metrics Metrics
	Logger  Logger
}

// NewInstruments builds Instruments from an Observer.
func NewInstruments(obs Observer) (Instruments, error) {
	if obs == nil {
		return Instruments{}, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return Instruments{}, err
	}

	return Instruments{
		Tracer:  NewTracer(obs.Tracer()),
		Metrics: metrics,
		Logger:  obs.Logger(),
	}, nil
}

// NopInstruments returns Instruments that record nothing.
func NopInstruments() Instruments {
	return Instruments{Tracer: NopTracer(), Metrics: NopMetrics(), Logger: NopLogger()}
}
