package zipview

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithTimeout_OpWins(t *testing.T) {
	v, err := RunWithTimeout(func() (int, error) {
		return 42, nil
	}, 1*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRunWithTimeout_OpErrorPropagates(t *testing.T) {
	opErr := errors.New("op failed")
	_, err := RunWithTimeout(func() (int, error) {
		return 0, opErr
	}, 1*time.Second)

	// the operation's own failure is never turned into a timeout.
	assert.ErrorIs(t, err, opErr)
	var te *TimeoutError
	assert.False(t, errors.As(err, &te))
}

func TestRunWithTimeout_TimerWins(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := RunWithTimeout(func() (string, error) {
		<-release
		return "too late", nil
	}, 20*time.Millisecond)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 20*time.Millisecond, te.Timeout)
}

func TestRunWithTimeout_LateOutcomeDiscarded(t *testing.T) {
	done := make(chan struct{})

	_, err := RunWithTimeout(func() (string, error) {
		defer close(done)
		time.Sleep(50 * time.Millisecond)
		return "late", nil
	}, 5*time.Millisecond)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)

	// the operation still runs to its natural conclusion; its outcome is
	// simply discarded rather than blocking the goroutine forever.
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("operation goroutine did not finish")
	}
}
