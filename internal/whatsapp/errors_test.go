package whatsapp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		fatal     bool
		transient bool
	}{
		{name: "detached frame", err: errors.New("Protocol error: Attempted to use detached Frame"), fatal: true, transient: true},
		{name: "target closed", err: errors.New("Target closed."), fatal: true, transient: true},
		{name: "already running", err: errors.New("The browser is already running for this profile"), fatal: false, transient: true},
		{name: "sqlite locked", err: errors.New("upgrade store: database is locked"), fatal: false, transient: true},
		{name: "unrelated", err: errors.New("403 forbidden"), fatal: false, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.err)
			assert.Equal(t, tt.fatal, IsSessionFatal(got))
			assert.Equal(t, tt.transient, IsTransient(got))
			assert.Equal(t, tt.err.Error(), got.Error())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Classify(nil))
	assert.NoError(t, Mark(nil, ErrSessionLost))
}

func TestMarkSurvivesWrapping(t *testing.T) {
	t.Parallel()

	base := Mark(errors.New("socket gone"), ErrSessionLost)
	wrapped := fmt.Errorf("list groups: %w", base)

	assert.True(t, IsSessionFatal(wrapped))
	assert.Same(t, base, Mark(base, ErrSessionLost))
}
