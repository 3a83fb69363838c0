package analytics

import "time"

// MonthsAgo counts calendar months between t and now in UTC. The current month is 0.
func MonthsAgo(t, now time.Time) int {
	t = t.UTC()
	now = now.UTC()
	return (now.Year()-t.Year())*12 + int(now.Month()) - int(t.Month())
}

// MonthStart returns the first instant of the month that lies `back` months before now.
func MonthStart(now time.Time, back int) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()-time.Month(back), 1, 0, 0, 0, 0, time.UTC)
}

// bucketIndex places t in a window of n monthly buckets ending with the
// current month. It reports false outside the window.
func bucketIndex(t, now time.Time, n int) (int, bool) {
	ago := MonthsAgo(t, now)
	if ago < 0 || ago >= n {
		return 0, false
	}
	return n - 1 - ago, true
}
