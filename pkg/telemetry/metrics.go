package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const unknownLabel = "unknown"

// MetricsSink counts breadcrumbs in notifykit_test_send_total, labelled by
// the stage and outcome found in Breadcrumb.Data.
type MetricsSink struct {
	total *prometheus.CounterVec
}

// NewMetricsSink registers the counter on reg, or the default registerer when
// reg is nil. A counter already registered under the same name is reused.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifykit",
		Name:      "test_send_total",
		Help:      "Test send pipeline events by stage and outcome.",
	}, []string{KeyStage, KeyOutcome})

	if err := reg.Register(total); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register test send metrics: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register test send metrics: %w", err)
		}
		total = existing
	}

	return &MetricsSink{total: total}, nil
}

func (s *MetricsSink) Record(_ context.Context, b Breadcrumb) {
	s.total.WithLabelValues(label(b.Data, KeyStage), label(b.Data, KeyOutcome)).Inc()
}

func label(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok {
		return unknownLabel
	}
	s := fmt.Sprint(v)
	if s == "" {
		return unknownLabel
	}
	return s
}
