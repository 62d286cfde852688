package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-ticket-stats/internal/stats"
)

func TestTimeFrameForHours(t *testing.T) {
	cases := []struct {
		hours float64
		want  int
	}{
		{0, 1},
		{0.49, 1},
		{0.5, 5},
		{0.99, 5},
		{1, 15},
		{2.5, 15},
		{3, 30},
		{9.9, 30},
		{10, 60},
		{50, 60},
		{72, 300},
		{167, 300},
		{168, 1440},
		{719, 1440},
		{720, 10080},
		{5000, 10080},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, stats.TimeFrameForHours(c.hours), "hours=%v", c.hours)
	}
}

func TestSelectTimeFrame(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 60, stats.SelectTimeFrame(start, start.Add(50*time.Hour)))
	assert.Equal(t, 1, stats.SelectTimeFrame(start, start))

	// reversed bounds use the absolute span
	assert.Equal(t, 60, stats.SelectTimeFrame(start.Add(50*time.Hour), start))
}
