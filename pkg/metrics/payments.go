package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics counts payroll lifecycle events so operators can watch
// payout and reversal volume without querying the database.
type PaymentMetrics struct {
	payments  *prometheus.CounterVec
	reversals *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewPaymentMetrics registers the payroll metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_payments_total",
		Help: "Salary payment lifecycle events by resulting status.",
	}, []string{"status"})
	reversals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_reversal_requests_total",
		Help: "Reversal approval outcomes.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payroll_state_conflicts_total",
		Help: "Mutations rejected because the payment already left the expected state.",
	})
	reg.MustRegister(payments, reversals, conflicts)
	return &PaymentMetrics{
		payments:  payments,
		reversals: reversals,
		conflicts: conflicts,
	}
}

// IncPayment records a payment transition into the given status.
func (p *PaymentMetrics) IncPayment(status string) {
	if p == nil || p.payments == nil {
		return
	}
	p.payments.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncReversal records a reversal request outcome (approved, rejected, direct).
func (p *PaymentMetrics) IncReversal(outcome string) {
	if p == nil || p.reversals == nil {
		return
	}
	p.reversals.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStateConflict records a lost state race.
func (p *PaymentMetrics) IncStateConflict() {
	if p == nil || p.conflicts == nil {
		return
	}
	p.conflicts.Inc()
}
