package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts what the booking core does. A nil receiver records nothing.
type BookingMetrics struct {
	claims          *prometheus.CounterVec
	paymentOutcomes *prometheus.CounterVec
	sweepCorrected  *prometheus.CounterVec
	slotsGenerated  prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "booking",
			Name:      "claims_total",
			Help:      "Slot claims by result",
		}, []string{"result"}),
		paymentOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "booking",
			Name:      "payment_outcomes_total",
			Help:      "Payment outcome events applied",
		}, []string{"outcome", "result"}),
		sweepCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "housekeeping",
			Name:      "corrections_total",
			Help:      "Rows changed by housekeeping sweeps",
		}, []string{"sweep"}),
		slotsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "availability",
			Name:      "slots_generated_total",
			Help:      "Slots created from templates",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.claims, m.paymentOutcomes, m.sweepCorrected, m.slotsGenerated)
	return m
}

func (m *BookingMetrics) ObserveClaim(result string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObservePaymentOutcome(outcome, result string) {
	if m == nil {
		return
	}
	m.paymentOutcomes.WithLabelValues(outcome, result).Inc()
}

func (m *BookingMetrics) ObserveSweep(sweep string, corrected int) {
	if m == nil || corrected <= 0 {
		return
	}
	m.sweepCorrected.WithLabelValues(sweep).Add(float64(corrected))
}

func (m *BookingMetrics) ObserveSlotsGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsGenerated.Add(float64(n))
}
