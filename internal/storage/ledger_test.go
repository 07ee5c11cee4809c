package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *CSVLedger {
	t.Helper()
	l := NewCSVLedger(filepath.Join(t.TempDir(), "import_results.csv"))
	l.now = func() time.Time {
		return time.Date(2026, time.October, 19, 10, 35, 7, 0, time.UTC)
	}
	return l
}

func TestCSVLedgerResetWritesHeader(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Reset())

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "Phone,Status,Timestamp_IST\n", string(raw))
}

func TestCSVLedgerAppendOneRowPerCall(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Reset())
	require.NoError(t, l.Append("919876543210", "added"))
	require.NoError(t, l.Append("919876543211", "failed"))

	records, err := l.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, LedgerHeader, records[0])
	assert.Equal(t, []string{"919876543210", "added", "19/10/2026, 4:05:07 pm"}, records[1])
	assert.Equal(t, "failed", records[2][1])

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"19/10/2026, 4:05:07 pm"`), "timestamp is quoted")
}

func TestCSVLedgerResetTruncatesPreviousJob(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Reset())
	require.NoError(t, l.Append("919876543210", "added"))
	require.NoError(t, l.Reset())

	records, err := l.Records()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCSVLedgerAppendWithoutResetCreatesFile(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.Append("919876543210", "added"))

	records, err := l.Records()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCSVLedgerResetFailsOnBadPath(t *testing.T) {
	t.Parallel()

	l := NewCSVLedger(filepath.Join(t.TempDir(), "missing", "dir", "results.csv"))
	assert.Error(t, l.Reset())
}
