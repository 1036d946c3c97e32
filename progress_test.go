package zipview

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectFractions(fractions *[]float64) ProgressFunc {
	return func(action, item string, fraction float64) {
		*fractions = append(*fractions, fraction)
	}
}

func assertProgressShape(t *testing.T, fractions []float64) {
	t.Helper()

	require.NotEmpty(t, fractions)
	assert.Equal(t, 0.0, fractions[0], "first report must be 0")
	assert.Equal(t, 1.0, fractions[len(fractions)-1], "last report must be exactly 1")
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1], "fractions must be non-decreasing")
	}
}

func TestRunWithProgress_WorkFasterThanEstimate(t *testing.T) {
	var fractions []float64

	err := RunWithProgress("unpack", "a.txt", collectFractions(&fractions), 10*time.Second, func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	require.NoError(t, err)
	assertProgressShape(t, fractions)
	// the synthetic curve never got anywhere near done before the real
	// operation overrode it.
	for _, f := range fractions[:len(fractions)-1] {
		assert.Less(t, f, 1.0)
	}
}

func TestRunWithProgress_WorkSlowerThanEstimate(t *testing.T) {
	var fractions []float64

	err := RunWithProgress("unpack", "b.txt", collectFractions(&fractions), 10*time.Millisecond, func() error {
		time.Sleep(60 * time.Millisecond)
		return nil
	}, func(opts *ProgressOptions) {
		opts.FrameInterval = 2 * time.Millisecond
	})

	require.NoError(t, err)
	assertProgressShape(t, fractions)
}

func TestRunWithProgress_WorkErrorPropagates(t *testing.T) {
	workErr := errors.New("work failed")
	var fractions []float64

	err := RunWithProgress("unpack", "c.txt", collectFractions(&fractions), time.Second, func() error {
		return workErr
	})

	assert.ErrorIs(t, err, workErr)
	// 100% is still the final callback even on failure.
	assertProgressShape(t, fractions)
}
