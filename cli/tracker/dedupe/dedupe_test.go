package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		distance float64
		radius   float64
		expected float64
	}{
		{"deep inside the radius", 23, 75, 1000, 21.275},
		{"mid radius", 3, 200, 1000, 2.4},
		{"near the perimeter", 3, 900, 1000, 0.3},
		{"on the perimeter", 10, 1000, 1000, 0},
		{"past the perimeter clamps to zero", 10, 1200, 1000, 0},
		{"zero count", 0, 10, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.count, tt.distance, tt.radius), 1e-9)
		})
	}
}

func TestScoreMonotone(t *testing.T) {
	// Shrinking distance or rising count never lowers the score.
	assert.GreaterOrEqual(t, Score(5, 100, 1000), Score(5, 500, 1000))
	assert.GreaterOrEqual(t, Score(9, 500, 1000), Score(5, 500, 1000))
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected types.Severity
	}{
		{21.275, types.SeverityHigh},
		{5.01, types.SeverityHigh},
		{5.0, types.SeverityHigh}, // tie rounds toward the higher severity
		{4.99, types.SeverityMedium},
		{2.4, types.SeverityMedium},
		{2.0, types.SeverityMedium},
		{1.99, types.SeverityLow},
		{0.3, types.SeverityLow},
		{0, types.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score=%v", tt.score), func(t *testing.T) {
			assert.Equal(t, tt.expected, SeverityFor(tt.score))
		})
	}
}

func TestAdmitWithinWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	g := NewGuard(60 * time.Second).WithClock(func() time.Time { return now })

	assert.True(t, g.Admit("T1", "Z1"))

	now = now.Add(30 * time.Second)
	assert.False(t, g.Admit("T1", "Z1"))

	// 70s after the first emit the window has elapsed.
	now = now.Add(40 * time.Second)
	assert.True(t, g.Admit("T1", "Z1"))
}

func TestAdmitIndependentKeys(t *testing.T) {
	now := time.Unix(1000, 0)
	g := NewGuard(60 * time.Second).WithClock(func() time.Time { return now })

	assert.True(t, g.Admit("T1", "Z1"))
	assert.True(t, g.Admit("T1", "Z2"))
	assert.True(t, g.Admit("T2", "Z1"))
	assert.False(t, g.Admit("T1", "Z1"))
}

func TestAdmitConcurrentSingleWinner(t *testing.T) {
	g := NewGuard(time.Minute)

	const n = 32
	admitted := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- g.Admit("T1", "Z1")
		}()
	}
	wg.Wait()
	close(admitted)

	wins := 0
	for ok := range admitted {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestReleaseReopensWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	g := NewGuard(60 * time.Second).WithClock(func() time.Time { return now })

	assert.True(t, g.Admit("T1", "Z1"))
	assert.False(t, g.Admit("T1", "Z1"))

	g.Release("T1", "Z1")
	assert.True(t, g.Admit("T1", "Z1"))

	// Releasing an unknown pair is harmless.
	g.Release("T9", "Z9")
}

func TestSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	g := NewGuard(60 * time.Second).WithClock(func() time.Time { return now })

	g.Admit("T1", "Z1")
	g.Admit("T2", "Z2")
	assert.Equal(t, 2, g.Len())

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, g.Sweep())
	assert.Equal(t, 0, g.Len())

	// Evicted pairs may alert again immediately.
	assert.True(t, g.Admit("T1", "Z1"))
}
