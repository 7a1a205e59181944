package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerLifecycle(t *testing.T) {
	now := time.Unix(1000, 0)
	b := newBreaker(3, time.Minute)
	b.now = func() time.Time { return now }

	for range 2 {
		assert.NoError(t, b.allow())
		b.record(false)
	}
	assert.Equal(t, BreakerClosed, b.State())

	assert.NoError(t, b.allow())
	b.record(false)
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.allow(), ErrCircuitOpen)

	now = now.Add(time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.NoError(t, b.allow())
	assert.ErrorIs(t, b.allow(), ErrCircuitOpen, "only one probe at a time")

	b.record(true)
	assert.Equal(t, BreakerClosed, b.State())
	assert.NoError(t, b.allow())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	b := newBreaker(1, time.Second)
	b.now = func() time.Time { return now }

	b.record(false)
	assert.Equal(t, BreakerOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.NoError(t, b.allow())
	b.record(false)
	assert.Equal(t, BreakerOpen, b.State())
}

func TestBreakerReleasedProbe(t *testing.T) {
	now := time.Unix(1000, 0)
	b := newBreaker(1, time.Second)
	b.now = func() time.Time { return now }

	b.record(false)
	now = now.Add(2 * time.Second)
	require.NoError(t, b.allow())
	assert.ErrorIs(t, b.allow(), ErrCircuitOpen, "one probe at a time")

	b.release()
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.NoError(t, b.allow())
}

func TestSuccessResetsFailures(t *testing.T) {
	b := newBreaker(2, time.Second)
	b.record(false)
	b.record(true)
	b.record(false)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
	assert.Equal(t, "open", BreakerOpen.String())
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "Question", TypeQuestion.Label())
	assert.Equal(t, "Request", TypeRequest.Label())
	assert.Equal(t, "Information", Type("").Label())
}

func TestFlattenNormalizesType(t *testing.T) {
	assert.Equal(t, TypeQuestion, RawMemory{Type: "Question"}.Flatten().Type)
	assert.Equal(t, TypeInformation, RawMemory{Type: "bogus"}.Flatten().Type)
}
