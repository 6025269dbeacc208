package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the engine collectors.
	Registry = prometheus.NewRegistry()

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchbooking",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Reminder notifications dispatched, by threshold.",
		},
		[]string{"threshold"},
	)

	rewardsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pitchbooking",
			Subsystem: "loyalty",
			Name:      "rewards_issued_total",
			Help:      "Free-booking tickets issued.",
		},
	)

	bookingsSettled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pitchbooking",
			Subsystem: "loyalty",
			Name:      "bookings_settled_total",
			Help:      "Played bookings marked as loyalty-applied.",
		},
	)

	storeWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchbooking",
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Failed store writes, by component.",
		},
		[]string{"component"},
	)

	inboxRollbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitchbooking",
			Subsystem: "inbox",
			Name:      "rollbacks_total",
			Help:      "Optimistic inbox updates compensated after a failed write.",
		},
		[]string{"operation"},
	)
)

func init() {
	Registry.MustRegister(remindersSent, rewardsIssued, bookingsSettled, storeWriteFailures, inboxRollbacks)
}

func RecordReminder(threshold string) {
	remindersSent.WithLabelValues(threshold).Inc()
}

func RecordReward() {
	rewardsIssued.Inc()
}

func RecordSettled(n int) {
	bookingsSettled.Add(float64(n))
}

func RecordWriteFailure(component string) {
	storeWriteFailures.WithLabelValues(component).Inc()
}

func RecordRollback(operation string) {
	inboxRollbacks.WithLabelValues(operation).Inc()
}
