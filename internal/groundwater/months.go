package groundwater

import (
	"math"
	"time"
)

// MonthDifference returns the number of months between start and end, rounded
// to the nearest whole month. Partial months count as the fraction of the days
// of the month they fall in.
func MonthDifference(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	whole := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	anchor := start.AddDate(0, whole, 0)
	if anchor.After(end) {
		whole--
		anchor = start.AddDate(0, whole, 0)
	}
	next := start.AddDate(0, whole+1, 0)
	frac := float64(end.Sub(anchor)) / float64(next.Sub(anchor))
	return int(math.Round(float64(whole) + frac))
}

// MonthStarts returns start advanced by 0, 1, ... n-1 months where n is
// MonthDifference(start, end).
func MonthStarts(start, end time.Time) []time.Time {
	n := MonthDifference(start, end)
	starts := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		starts = append(starts, start.AddDate(0, i, 0))
	}
	return starts
}
