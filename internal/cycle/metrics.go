package cycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ev_finder_cycles_total",
		Help: "Total de ciclos de orquestração executados",
	})
	cycleStepErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ev_finder_cycle_step_errors_total",
		Help: "Falhas por etapa do ciclo",
	}, []string{"step"})
	mappingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ev_finder_mappings_created_total",
		Help: "Mappings reference/retail criados pelo matcher",
	})
	closingCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ev_finder_closing_lines_captured_total",
		Help: "Closing lines congeladas",
	})
	valueAlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ev_finder_value_alerts_total",
		Help: "Alertas de EV positivo publicados",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ev_finder_cycle_duration_seconds",
		Help:    "Duração do ciclo completo",
		Buckets: prometheus.DefBuckets,
	})
)
