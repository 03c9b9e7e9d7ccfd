// Package observe carries the driver's diagnostics: structured logs for
// rejected payloads and prometheus metrics for the gas route.
package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Gas request outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeDecodeError     = "decode_error"
	OutcomeEstimationError = "estimation_error"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	gasRequests *prometheus.CounterVec
	invalidDTOs *prometheus.CounterVec
	gasDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gasRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "driver_gas_requests_total",
			Help: "Gas estimation requests by outcome.",
		}, []string{"outcome"}),
		invalidDTOs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "driver_invalid_dto_total",
			Help: "Rejected wire payloads by the part that failed to decode.",
		}, []string{"what"}),
		gasDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "driver_gas_estimate_duration_seconds",
			Help:    "Time spent in the gas estimator.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) GasRequest(outcome string) {
	if m == nil {
		return
	}
	m.gasRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) InvalidDTO(what string) {
	if m == nil {
		return
	}
	m.invalidDTOs.WithLabelValues(what).Inc()
}

func (m *Metrics) GasEstimated(d time.Duration) {
	if m == nil {
		return
	}
	m.gasDuration.Observe(d.Seconds())
}

// InvalidDTO records why a wire payload was rejected. The caller returns a
// coarse error; the detail only goes to logs and metrics.
func InvalidDTO(logger *zap.Logger, metrics *Metrics, err error, what string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Warn("invalid dto", zap.String("what", what), zap.Error(err))
	metrics.InvalidDTO(what)
}
