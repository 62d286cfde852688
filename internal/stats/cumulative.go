package stats

import (
	"sort"
	"time"
)

// TruncateToBucket floors t to its bucket boundary. The minute of the hour is
// floored to a multiple of width and seconds are dropped, so widths of an hour
// or more collapse to the start of the hour.
func TruncateToBucket(t time.Time, width int) time.Time {
	t = t.UTC()
	minute := t.Minute()
	if width > 0 {
		minute = minute / width * width
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, time.UTC)
}

// cumulative holds running totals keyed by bucket, with the keys kept sorted
// for at-or-before lookups.
type cumulative struct {
	keys   []time.Time
	totals map[time.Time]int
}

// CumulativeByBucket returns, for every bucket that received events, the
// number of events up to and including that bucket.
func CumulativeByBucket(timestamps []time.Time, width int) map[time.Time]int {
	return newCumulative(timestamps, width).totals
}

func newCumulative(timestamps []time.Time, width int) cumulative {
	sorted := make([]time.Time, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	c := cumulative{totals: make(map[time.Time]int)}
	running := 0
	for _, ts := range sorted {
		key := TruncateToBucket(ts, width)
		if _, ok := c.totals[key]; !ok {
			c.keys = append(c.keys, key)
		}
		running++
		c.totals[key] = running
	}
	return c
}

// at returns the running total of the latest bucket at or before t.
func (c cumulative) at(t time.Time) int {
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].After(t) })
	if i == 0 {
		return 0
	}
	return c.totals[c.keys[i-1]]
}

// BuildSeries walks the bucket grid from start to end and reports, for each
// grid point, the cumulative sold and used counts carried forward from the
// closest bucket at or before it. The last point is always end itself.
func BuildSeries(sold, used []time.Time, width int, start, end time.Time, loc *time.Location) []StatPoint {
	if width <= 0 {
		width = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	soldTotals := newCumulative(sold, width)
	usedTotals := newCumulative(used, width)

	step := time.Duration(width) * time.Minute
	points := make([]StatPoint, 0)
	var prev time.Time

	appendPoint := func(key time.Time) {
		p := StatPoint{
			BucketKey:      key,
			Label:          formatLabel(key, prev, loc),
			SoldCumulative: soldTotals.at(key),
			UsedCumulative: usedTotals.at(key),
		}
		if n := len(points); n > 0 {
			// totals never move backwards, even when end lands inside an
			// earlier bucket than the last grid key
			p.SoldCumulative = max(p.SoldCumulative, points[n-1].SoldCumulative)
			p.UsedCumulative = max(p.UsedCumulative, points[n-1].UsedCumulative)
		}
		points = append(points, p)
		prev = key
	}

	for current := start; !current.After(end); current = current.Add(step) {
		if !current.Before(end) {
			appendPoint(end)
			break
		}
		appendPoint(TruncateToBucket(current, width))
	}

	if len(points) == 0 || !points[len(points)-1].BucketKey.Equal(end) {
		appendPoint(end)
	}
	return points
}

// Series computes the chart series for the given sold and used timestamps as
// of now. With no sales the series is empty.
func Series(sold, used []time.Time, now time.Time, loc *time.Location) []StatPoint {
	if len(sold) == 0 {
		return []StatPoint{}
	}
	start := sold[0]
	for _, ts := range sold[1:] {
		if ts.Before(start) {
			start = ts
		}
	}
	return BuildSeries(sold, used, SelectTimeFrame(start, now), start, now, loc)
}

// formatLabel renders a point as "15:04", prefixed by "02/01, " when the
// calendar day changed since the previous point.
func formatLabel(t, prev time.Time, loc *time.Location) string {
	local := t.In(loc)
	if prev.IsZero() {
		return local.Format("02/01, 15:04")
	}
	p := prev.In(loc)
	if p.Day() != local.Day() || p.Month() != local.Month() {
		return local.Format("02/01, 15:04")
	}
	return local.Format("15:04")
}
