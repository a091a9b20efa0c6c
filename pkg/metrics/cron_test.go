package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	finished := time.Unix(1_780_000_000, 0)

	m.ObserveRun("stale-registers", 250*time.Millisecond, finished, nil)
	m.ObserveRun("stale-registers", time.Second, finished.Add(time.Minute), errors.New("db down"))
	m.ObserveRun("", time.Millisecond, finished, nil)
	m.IncSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := family(t, mfs, "tillpoint_cron_job_runs_total")
	require.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "stale-registers", "outcome": "success"}))
	require.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "stale-registers", "outcome": "failure"}))
	require.Equal(t, 1.0, counterWith(runs, map[string]string{"job": "unknown", "outcome": "success"}))

	last := family(t, mfs, "tillpoint_cron_job_last_success_timestamp_seconds")
	for _, metric := range last.GetMetric() {
		if hasLabels(metric, map[string]string{"job": "stale-registers"}) {
			require.Equal(t, float64(finished.Unix()), metric.GetGauge().GetValue(), "failed run must not advance last success")
		}
	}

	duration := family(t, mfs, "tillpoint_cron_job_duration_seconds")
	for _, metric := range duration.GetMetric() {
		if hasLabels(metric, map[string]string{"job": "stale-registers"}) {
			require.EqualValues(t, 2, metric.GetHistogram().GetSampleCount())
		}
	}

	skipped := family(t, mfs, "tillpoint_cron_cycles_skipped_total")
	require.Equal(t, 1.0, skipped.GetMetric()[0].GetCounter().GetValue())
}

func TestNilCronJobMetricsIsNoop(t *testing.T) {
	var m *CronJobMetrics
	require.Nil(t, NewCronJobMetrics(nil))
	require.NotPanics(t, func() {
		m.ObserveRun("job", time.Second, time.Now(), nil)
		m.IncSkipped()
	})
}

func family(t *testing.T, mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %q not gathered", name)
	return nil
}

func counterWith(mf *dto.MetricFamily, labels map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		if hasLabels(metric, labels) {
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
