package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunClean(t *testing.T) {
	var out, summary bytes.Buffer
	err := runClean(strings.NewReader("9876543210, 09876543211\n9876543210;abc"), &out, &summary)
	require.NoError(t, err)

	assert.Equal(t, "919876543210\n919876543211\n", out.String())
	assert.Equal(t, "2 unique valid numbers\n", summary.String())
}

func TestRunCleanRejectsGarbage(t *testing.T) {
	var out, summary bytes.Buffer
	err := runClean(strings.NewReader("abc, 123"), &out, &summary)
	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestCleanCommandReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")
	require.NoError(t, os.WriteFile(path, []byte("+91 98765-43210\n"), 0o644))

	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"clean", path})

	require.NoError(t, root.Execute())
	assert.Equal(t, "919876543210\n", out.String())
}
