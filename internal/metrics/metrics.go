package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks list, roster and check-in activity. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ListsCreated     *prometheus.CounterVec
	ItemsReordered   *prometheus.CounterVec
	RosterRejections prometheus.Counter
	Checkins         *prometheus.CounterVec
	ConstraintRaces  *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ListsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_lists_created_total",
			Help: "Total number of lists created, by kind and owner kind",
		}, []string{"kind", "owner"}),
		ItemsReordered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_items_reordered_total",
			Help: "Total number of item sort indexes rewritten by reorder requests",
		}, []string{"kind"}),
		RosterRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "hearth_roster_foreign_member_rejections_total",
			Help: "Roster writes rejected because a user was outside the owning household",
		}),
		Checkins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_checkins_total",
			Help: "Check-in requests by result (created, existing, recovered)",
		}, []string{"result"}),
		ConstraintRaces: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_constraint_races_total",
			Help: "Uniqueness races lost to a concurrent writer, by constraint",
		}, []string{"constraint"}),
		MutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hearth_mutation_duration_seconds",
			Help:    "Duration of kernel mutations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
	}
}

func (m *Metrics) IncListCreated(kind, owner string) {
	if m == nil {
		return
	}
	m.ListsCreated.WithLabelValues(kind, owner).Inc()
}

func (m *Metrics) AddReordered(kind string, n int64) {
	if m == nil {
		return
	}
	m.ItemsReordered.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncRosterRejection() {
	if m == nil {
		return
	}
	m.RosterRejections.Inc()
}

func (m *Metrics) IncCheckin(result string) {
	if m == nil {
		return
	}
	m.Checkins.WithLabelValues(result).Inc()
}

func (m *Metrics) IncConstraintRace(constraint string) {
	if m == nil {
		return
	}
	m.ConstraintRaces.WithLabelValues(constraint).Inc()
}

// ObserveMutation records the duration of op. Call with time.Now() at the
// start of the operation.
func (m *Metrics) ObserveMutation(op string, start time.Time) {
	if m == nil {
		return
	}
	m.MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
