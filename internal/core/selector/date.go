package selector

import (
	"fmt"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
)

// Granularity is the width of a date bucket
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

const day = 24 * time.Hour

// GranularityFor picks a bucket width from the span of a date range:
// up to a month by day, up to a quarter by week, up to three years by
// month, and by year beyond that.
func GranularityFor(r *profiler.DateRange) Granularity {
	if r == nil {
		return GranularityDay
	}
	switch span := r.Span(); {
	case span <= 31*day:
		return GranularityDay
	case span <= 92*day:
		return GranularityWeek
	case span <= 3*365*day:
		return GranularityMonth
	}
	return GranularityYear
}

// BucketStart truncates t to the start of its bucket. Weeks start on Monday.
func BucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case GranularityWeek:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start := t.AddDate(0, 0, -weekday+1)
		return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nextBucket advances a bucket start by one bucket
func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	case GranularityYear:
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 0, 1)
}

// BucketLabel renders a bucket start for axis labels
func BucketLabel(t time.Time, g Granularity) string {
	switch g {
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityMonth:
		return t.Format("2006-01")
	case GranularityYear:
		return t.Format("2006")
	}
	return t.Format("2006-01-02")
}

// BucketRange returns every bucket start from the bucket holding start to
// the bucket holding end, inclusive.
func BucketRange(start, end time.Time, g Granularity) []time.Time {
	var out []time.Time
	last := BucketStart(end, g)
	for current := BucketStart(start, g); !current.After(last); current = nextBucket(current, g) {
		out = append(out, current)
	}
	return out
}
