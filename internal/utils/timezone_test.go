package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLayoutsInIST(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.October, 5, 10, 35, 7, 0, time.UTC)
	local := at.In(IST())

	assert.Equal(t, "5/10/2026, 4:05:07 pm", local.Format(LedgerTimestampLayout))
	assert.Equal(t, "04:05 pm", local.Format(CompletionTimeLayout))
}

func TestNewJobIDUnique(t *testing.T) {
	t.Parallel()

	a, b := NewJobID(), NewJobID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
