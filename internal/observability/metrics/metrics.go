// Package metrics exposes application-level counters over a dedicated
// prometheus registry, served on /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	registry *prometheus.Registry

	invoicesGenerated  prometheus.Counter
	generationFailures prometheus.Counter
	paymentsRecorded   prometheus.Counter
	paymentsVoided     prometheus.Counter
	overdueMarked      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shulefees_invoices_generated_total",
			Help: "Guardian invoices generated successfully.",
		}),
		generationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shulefees_invoice_generation_failures_total",
			Help: "Invoice generations that aborted with an error.",
		}),
		paymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shulefees_payments_recorded_total",
			Help: "Payments recorded against invoices.",
		}),
		paymentsVoided: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shulefees_payments_voided_total",
			Help: "Payments voided after recording.",
		}),
		overdueMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shulefees_invoices_marked_overdue_total",
			Help: "Invoices flipped to overdue by the sweep.",
		}),
	}
	m.registry.MustRegister(
		m.invoicesGenerated,
		m.generationFailures,
		m.paymentsRecorded,
		m.paymentsVoided,
		m.overdueMarked,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordInvoiceGenerated() {
	if m == nil {
		return
	}
	m.invoicesGenerated.Inc()
}

func (m *Metrics) RecordInvoiceGenerationFailure() {
	if m == nil {
		return
	}
	m.generationFailures.Inc()
}

func (m *Metrics) RecordPayment() {
	if m == nil {
		return
	}
	m.paymentsRecorded.Inc()
}

func (m *Metrics) RecordPaymentVoided() {
	if m == nil {
		return
	}
	m.paymentsVoided.Inc()
}

// RecordOverdue adds the number of invoices one sweep marked overdue.
func (m *Metrics) RecordOverdue(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.overdueMarked.Add(float64(count))
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
