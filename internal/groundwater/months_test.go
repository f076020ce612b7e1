package groundwater

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthStarts_FullWindow(t *testing.T) {
	a := DefaultAnalysis()
	starts := MonthStarts(a.Window.Start, a.Window.End)

	require.Len(t, starts, 132)
	assert.Equal(t, date(2013, 1, 1), starts[0])
	assert.Equal(t, date(2023, 12, 1), starts[131])
	for i := 1; i < len(starts); i++ {
		assert.True(t, starts[i].After(starts[i-1]), "month %d not after %d", i, i-1)
	}
}

func TestMonthDifference(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"same day", date(2013, 1, 1), date(2013, 1, 1), 0},
		{"end before start", date(2014, 1, 1), date(2013, 1, 1), 0},
		{"one month", date(2013, 1, 1), date(2013, 2, 1), 1},
		{"rounds up", date(2013, 1, 1), date(2013, 1, 20), 1},
		{"rounds down", date(2013, 1, 1), date(2013, 1, 10), 0},
		{"mid month start", date(2013, 1, 15), date(2013, 3, 14), 2},
		{"eleven years", date(2013, 1, 1), date(2024, 1, 1), 132},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthDifference(tt.start, tt.end))
			assert.Len(t, MonthStarts(tt.start, tt.end), tt.want)
		})
	}
}
