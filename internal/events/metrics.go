package events

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records migration and assertion outcomes as prometheus metrics
type Metrics struct {
	migrations        *prometheus.CounterVec
	migrationDuration *prometheus.HistogramVec
	assertions        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		migrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "migrations_total",
				Help:      "Total number of migrations performed",
			},
			[]string{"resource", "kind", "status"},
		),
		migrationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "migration_duration_seconds",
				Help:      "Migration duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource", "kind"},
		),
		assertions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assertions_total",
				Help:      "Total number of assertions evaluated",
			},
			[]string{"resource", "result"},
		),
	}

	for _, c := range []prometheus.Collector{m.migrations, m.migrationDuration, m.assertions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Emit(e Event) {
	resource := e.ResourceName
	if resource == "" && e.ResourceID != uuid.Nil {
		resource = e.ResourceID.String()
	}

	switch e.Type {
	case MigrationComplete:
		status := "success"
		if e.Err != nil {
			status = "failed"
		}
		m.migrations.WithLabelValues(resource, e.MigrationKind, status).Inc()
		m.migrationDuration.WithLabelValues(resource, e.MigrationKind).Observe(e.Duration.Seconds())
	case AssertionComplete:
		result := "fault"
		if e.Result != nil {
			result = strconv.FormatBool(*e.Result)
		}
		m.assertions.WithLabelValues(resource, result).Inc()
	}
}

func stateText(id uuid.UUID) string {
	if id == uuid.Nil {
		return "non-existent"
	}
	return id.String()
}
