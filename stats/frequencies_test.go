package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrequencyRecordAndAvg(t *testing.T) {
	var f Frequency
	require.Equal(t, uint64(0), f.Avg())

	f.Record(10)
	f.Record(20)
	require.Equal(t, uint64(30), f.Sum())
	require.Equal(t, uint64(2), f.Count())
	require.Equal(t, uint64(15), f.Avg())
}

func TestWheelFrequenciesOutliers(t *testing.T) {
	var w WheelFrequencies
	for _, g := range []Granularity{Seconds, Minutes, Hours, Days, Weeks} {
		w.Add(g, 10)
	}
	// years wheel's average access size far above its siblings'
	w.Add(Years, 10000)

	outliers := w.Outliers()
	require.NotEmpty(t, outliers)

	found := false
	for _, o := range outliers {
		if o.Granularity == Years {
			found = true
		}
	}
	require.True(t, found)
}
