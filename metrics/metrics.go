// Package metrics holds the Prometheus instruments of the compensation server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registry *prometheus.Registry

	Beneficiaries       prometheus.Gauge
	Compensations       prometheus.Gauge
	NetPayableTotal     prometheus.Gauge
	Mutations           *prometheus.CounterVec
	ValidationFailures  *prometheus.CounterVec
	BatchesProduced     prometheus.Counter
	BatchFailures       *prometheus.CounterVec
	BatchRecordsSkipped *prometheus.CounterVec
	Restores            *prometheus.CounterVec
	Autosaves           *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry, so that tests
// and several servers in one process never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Beneficiaries: f.NewGauge(prometheus.GaugeOpts{
			Name: "compensation_beneficiaries",
			Help: "Number of registered beneficiaries",
		}),
		Compensations: f.NewGauge(prometheus.GaugeOpts{
			Name: "compensation_records",
			Help: "Number of compensation records in the ledger",
		}),
		NetPayableTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "compensation_net_payable_dinars",
			Help: "Sum of the net payable of every joined record",
		}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compensation_mutations_total",
			Help: "Accepted state mutations by operation",
		}, []string{"operation"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compensation_validation_failures_total",
			Help: "Rejected registry mutations by error kind",
		}, []string{"kind"}),
		BatchesProduced: f.NewCounter(prometheus.CounterOpts{
			Name: "compensation_payment_batches_total",
			Help: "Payment batches produced",
		}),
		BatchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compensation_payment_batch_failures_total",
			Help: "Payment batch productions that failed, by reason",
		}, []string{"reason"}),
		BatchRecordsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compensation_payment_records_skipped_total",
			Help: "Records excluded from payment batches, by reason",
		}, []string{"reason"}),
		Restores: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compensation_restores_total",
			Help: "Backup restores by outcome",
		}, []string{"outcome"}),
		Autosaves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compensation_autosaves_total",
			Help: "Persistence writes by outcome",
		}, []string{"outcome"}),
	}
}

// Observe refreshes the state gauges.
func (m *Metrics) Observe(beneficiaries, compensations int, netPayable float64) {
	m.Beneficiaries.Set(float64(beneficiaries))
	m.Compensations.Set(float64(compensations))
	m.NetPayableTotal.Set(netPayable)
}

// IncrementMutation counts an accepted mutation.
func (m *Metrics) IncrementMutation(operation string) {
	m.Mutations.WithLabelValues(operation).Inc()
}
