package output_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenchsniper/trenchsniperd/internal/output"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// whatever it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stdout, fn)
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	return capture(t, &os.Stderr, fn)
}

func capture(t *testing.T, target **os.File, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := *target
	*target = w
	defer func() { *target = orig }()

	fn()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestSessionStarted_ActivityWindow(t *testing.T) {
	out := captureStdout(t, func() {
		output.SessionStarted("sess-1", true)
	})
	assert.Contains(t, out, "sess-1")
	assert.Contains(t, out, "stop automatically")
}

func TestSessionStarted_ManualStop(t *testing.T) {
	out := captureStdout(t, func() {
		output.SessionStarted("sess-2", false)
	})
	assert.Contains(t, out, "sess-2")
	assert.Contains(t, out, "Ctrl+C")
}

func TestSessionStopping(t *testing.T) {
	out := captureStdout(t, func() {
		output.SessionStopping("sess-3", "activity duration elapsed")
	})
	assert.Contains(t, out, "sess-3")
	assert.Contains(t, out, "activity duration elapsed")
}

func TestSellOnStopWarning(t *testing.T) {
	out := captureStderr(t, func() {
		output.SellOnStopWarning("sess-4")
	})
	assert.Contains(t, out, "sess-4")
	assert.Contains(t, out, "selling held tokens")
}
