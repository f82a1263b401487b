package fixes

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlightlabs/arspatial/model"
)

func fixAt(lat, lon, accuracy float64, at time.Time) model.Fix {
	return model.Fix{
		Coordinate: model.GeodeticCoordinate{
			Latitude:  lat,
			Longitude: lon,
		},
		HorizontalAccuracy: accuracy,
		Timestamp:          at,
	}
}

func TestHistoryFirstFixAlwaysAccepted(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()

	// Even a wildly inaccurate first fix establishes reliability.
	require.True(t, h.Append(fixAt(47.6, -122.3, 5000, t0)))

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, 5000.0, latest.HorizontalAccuracy)
	assert.Equal(t, 1, h.Len())
}

func TestHistoryRejectsInaccurateFollowUp(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()

	require.True(t, h.Append(fixAt(47.6, -122.3, 10, t0)))

	// Worse than the 20 m default and no improvement on the best seen.
	assert.False(t, h.Append(fixAt(47.6, -122.3, 35, t0.Add(time.Second))))
	assert.Equal(t, 1, h.Len())

	// Unknown accuracy after reliability is established is rejected too.
	assert.False(t, h.Append(fixAt(47.6, -122.3, 0, t0.Add(2*time.Second))))
	assert.Equal(t, 1, h.Len())
}

func TestHistoryAcceptsImprovingAccuracy(t *testing.T) {
	h := NewHistory(Config{MaxHorizontalAccuracyM: 5})
	t0 := time.Now()

	require.True(t, h.Append(fixAt(47.6, -122.3, 50, t0)))

	// 30 m is over the 5 m threshold but better than anything seen so far.
	assert.True(t, h.Append(fixAt(47.6, -122.3, 30, t0.Add(time.Second))))
	assert.True(t, h.Append(fixAt(47.6, -122.3, 12, t0.Add(2*time.Second))))

	// 30 m again: neither under the threshold nor an improvement on 12 m.
	assert.False(t, h.Append(fixAt(47.6, -122.3, 30, t0.Add(3*time.Second))))
	assert.Equal(t, 3, h.Len())
}

func TestHistoryRejectsDisplacementOutlier(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()

	require.True(t, h.Append(fixAt(47.6, -122.3, 10, t0)))

	// Roughly 0.01 degrees of latitude is ~1.1 km, far over the 200 m
	// default, and the accuracy did not improve.
	assert.False(t, h.Append(fixAt(47.61, -122.3, 10, t0.Add(time.Second))))

	// The same jump with better accuracy is trusted: the receiver is more
	// confident about the new position than the old one.
	assert.True(t, h.Append(fixAt(47.61, -122.3, 4, t0.Add(2*time.Second))))
	assert.Equal(t, 2, h.Len())
}

func TestHistoryDropsOldestAtCapacity(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()

	for i := 0; i < HistoryCap+10; i++ {
		require.True(t, h.Append(fixAt(47.6, -122.3, 10, t0.Add(time.Duration(i)*time.Second))))
	}

	assert.Equal(t, HistoryCap, h.Len())

	snap := h.Snapshot()
	require.Len(t, snap, HistoryCap)
	// The ten oldest fixes were evicted.
	assert.Equal(t, t0.Add(10*time.Second), snap[0].Timestamp)
	assert.Equal(t, t0.Add(time.Duration(HistoryCap+9)*time.Second), snap[HistoryCap-1].Timestamp)
}

func TestHistorySubscribeAndUnsubscribe(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()

	var events []Event
	unsubscribe := h.Subscribe(func(e Event) { events = append(events, e) })

	h.Append(fixAt(47.6, -122.3, 10, t0))
	h.Append(fixAt(47.6, -122.3, 500, t0.Add(time.Second)))

	require.Len(t, events, 2)
	assert.Equal(t, EventFixAccepted, events[0].Type)
	assert.Equal(t, EventFixRejected, events[1].Type)
	assert.Equal(t, 500.0, events[1].Fix.HorizontalAccuracy)

	unsubscribe()
	h.Append(fixAt(47.6, -122.3, 10, t0.Add(2*time.Second)))
	assert.Len(t, events, 2)
}

func TestHistorySubscriberMayReadBack(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()

	// Notification happens outside the lock, so reading back from the
	// callback must not deadlock.
	var seen int
	h.Subscribe(func(Event) { seen = h.Len() })

	h.Append(fixAt(47.6, -122.3, 10, t0))
	assert.Equal(t, 1, seen)
}

func TestHistoryConcurrentAppends(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()
	require.True(t, h.Append(fixAt(47.6, -122.3, 10, t0)))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Append(fixAt(47.6, -122.3, 10, t0.Add(time.Duration(g*50+i)*time.Millisecond)))
				h.Latest()
				h.Snapshot()
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, HistoryCap, h.Len())
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}.ApplyDefaults()
	assert.Equal(t, 20.0, cfg.MaxHorizontalAccuracyM)
	assert.Equal(t, 200.0, cfg.MaxJumpM)

	custom := Config{MaxHorizontalAccuracyM: 5, MaxJumpM: 50}.ApplyDefaults()
	assert.Equal(t, 5.0, custom.MaxHorizontalAccuracyM)
	assert.Equal(t, 50.0, custom.MaxJumpM)
}
