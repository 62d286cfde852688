package stats

import "time"

// timeFrames maps an elapsed-hours upper bound to a bucket width in minutes.
var timeFrames = []struct {
	below   float64
	minutes int
}{
	{0.5, 1},
	{1, 5},
	{3, 15},
	{10, 30},
	{72, 60},
	{168, 300},
	{720, 1440},
}

// WeekMinutes is the widest bucket, used for campaigns longer than a month.
const WeekMinutes = 10080

// SelectTimeFrame picks a bucket width in minutes for the span between
// start and end so that a chart stays readable. The span is taken as
// absolute when start is after end.
func SelectTimeFrame(start, end time.Time) int {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	return TimeFrameForHours(elapsed.Hours())
}

// TimeFrameForHours applies the bucket lookup to an elapsed span in hours.
func TimeFrameForHours(hours float64) int {
	for _, tf := range timeFrames {
		if hours < tf.below {
			return tf.minutes
		}
	}
	return WeekMinutes
}
