package metrics

import "github.com/prometheus/client_golang/prometheus"

// LibraryMetrics counts borrowing and payment lifecycle transitions.
type LibraryMetrics struct {
	borrowingsCreated  prometheus.Counter
	borrowingsReturned *prometheus.CounterVec
	paymentsRequested  *prometheus.CounterVec
	paymentsConfirmed  *prometheus.CounterVec
}

// NewLibraryMetrics registers the lifecycle counters on the provided registerer.
func NewLibraryMetrics(reg prometheus.Registerer) *LibraryMetrics {
	if reg == nil {
		return &LibraryMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "library_borrowings_created_total",
		Help: "Borrowings created.",
	})
	returned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_borrowings_returned_total",
		Help: "Borrowings returned, split by overdue.",
	}, []string{"overdue"})
	requested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_payments_requested_total",
		Help: "Checkout sessions opened per payment type.",
	}, []string{"type"})
	confirmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_payments_confirmed_total",
		Help: "Payments confirmed as paid per payment type.",
	}, []string{"type"})
	reg.MustRegister(created, returned, requested, confirmed)
	return &LibraryMetrics{
		borrowingsCreated:  created,
		borrowingsReturned: returned,
		paymentsRequested:  requested,
		paymentsConfirmed:  confirmed,
	}
}

func (m *LibraryMetrics) IncBorrowingCreated() {
	if m == nil || m.borrowingsCreated == nil {
		return
	}
	m.borrowingsCreated.Inc()
}

func (m *LibraryMetrics) IncBorrowingReturned(overdue bool) {
	if m == nil || m.borrowingsReturned == nil {
		return
	}
	label := "false"
	if overdue {
		label = "true"
	}
	m.borrowingsReturned.WithLabelValues(label).Inc()
}

func (m *LibraryMetrics) IncPaymentRequested(paymentType string) {
	if m == nil || m.paymentsRequested == nil {
		return
	}
	m.paymentsRequested.WithLabelValues(normalizeLabel(paymentType)).Inc()
}

func (m *LibraryMetrics) IncPaymentConfirmed(paymentType string) {
	if m == nil || m.paymentsConfirmed == nil {
		return
	}
	m.paymentsConfirmed.WithLabelValues(normalizeLabel(paymentType)).Inc()
}
