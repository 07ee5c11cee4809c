package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

func TestMetricsCountOutcomes(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	m.observeAdd(models.ResultAdded, 100*time.Millisecond)
	m.observeAdd(models.ResultAdded, 200*time.Millisecond)
	m.observeAdd(models.ResultFailed, 50*time.Millisecond)
	m.jobStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeImports))
	m.jobFinished(models.ImportStatusCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.participants.WithLabelValues(models.ResultAdded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.participants.WithLabelValues(models.ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues(models.ImportStatusCompleted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeImports))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeAdd(models.ResultAdded, time.Second)
		m.jobStarted()
		m.jobFinished(models.ImportStatusCancelled)
		m.sessionTransition(models.SessionReady)
		m.groupsListed("ok")
	})
}
