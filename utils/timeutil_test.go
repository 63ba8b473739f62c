package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestWindowCount(t *testing.T) {
	assert.Equal(t, 180, WindowCount(day(t, "20091001"), day(t, "20091030")))
	assert.Equal(t, 6, WindowCount(day(t, "20091001"), day(t, "20091001")))
	assert.Equal(t, 0, WindowCount(day(t, "20091002"), day(t, "20091001")))
}

func TestWindowRange(t *testing.T) {
	first := day(t, "20091001")
	for _, tc := range []struct {
		w     int
		start time.Time
	}{
		{0, time.Date(2009, 10, 1, 4, 0, 0, 0, time.UTC)},
		{1, time.Date(2009, 10, 1, 6, 0, 0, 0, time.UTC)},
		{5, time.Date(2009, 10, 1, 22, 0, 0, 0, time.UTC)},
		{6, time.Date(2009, 10, 2, 4, 0, 0, 0, time.UTC)},
		{179, time.Date(2009, 10, 30, 22, 0, 0, 0, time.UTC)},
	} {
		r := WindowRange(first, tc.w)
		assert.Equal(t, tc.start, r.Start, "window %d", tc.w)
		assert.Equal(t, WindowLength, r.Duration(), "window %d", tc.w)
	}
}

func TestWindowRangeCrossesMonth(t *testing.T) {
	r := WindowRange(day(t, "20091030"), 12)
	assert.Equal(t, time.Date(2009, 11, 1, 4, 0, 0, 0, time.UTC), r.Start)
}

func TestTimeRangeContains(t *testing.T) {
	r := WindowRange(day(t, "20091001"), 0)
	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End.Add(-time.Second)))
	assert.False(t, r.Contains(r.End))
}

func TestParseDayRejectsOtherFormats(t *testing.T) {
	_, err := ParseDay("2009-10-01")
	assert.Error(t, err)
}
