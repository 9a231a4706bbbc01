package grading

import (
	"time"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

// DayBucket groups the records of one calendar day.
type DayBucket struct {
	Date    time.Time
	Records []models.ParticipationRecord
}

// WeekBucket groups the records of one Monday-start week.
type WeekBucket struct {
	// Start is the Monday the week begins on.
	Start   time.Time
	Records []models.ParticipationRecord
}

// Day truncates a timestamp to its UTC calendar day. Participation dates
// carry no time-of-day semantics, so every comparison goes through this.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing t. Weeks start on
// Monday throughout the application; this is the only place the
// convention is encoded.
func WeekStart(t time.Time) time.Time {
	day := Day(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0 ... Sunday = 6
	return day.AddDate(0, 0, -offset)
}

// BucketByDay distributes records over every calendar day in the
// inclusive [from, to] range, in chronological order. Days without
// records are present with an empty slice so trend views show gaps
// instead of skipping them. Records outside the range are dropped. An
// inverted range yields no buckets.
func BucketByDay(records []models.ParticipationRecord, from, to time.Time) []DayBucket {
	start := Day(from)
	end := Day(to)
	if end.Before(start) {
		return nil
	}

	index := make(map[time.Time]int)
	days := int(end.Sub(start).Hours()/24) + 1
	buckets := make([]DayBucket, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		index[d] = len(buckets)
		buckets = append(buckets, DayBucket{Date: d})
	}

	for _, rec := range records {
		if i, ok := index[Day(rec.Date)]; ok {
			buckets[i].Records = append(buckets[i].Records, rec)
		}
	}
	return buckets
}

// BucketByWeek distributes records over the most recent weeks weeks,
// ending with the Monday-start week containing ref. Buckets are
// chronological and weeks without records are present but empty.
func BucketByWeek(records []models.ParticipationRecord, weeks int, ref time.Time) []WeekBucket {
	if weeks <= 0 {
		return nil
	}

	last := WeekStart(ref)
	index := make(map[time.Time]int, weeks)
	buckets := make([]WeekBucket, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		start := last.AddDate(0, 0, -7*i)
		index[start] = len(buckets)
		buckets = append(buckets, WeekBucket{Start: start})
	}

	for _, rec := range records {
		if i, ok := index[WeekStart(rec.Date)]; ok {
			buckets[i].Records = append(buckets[i].Records, rec)
		}
	}
	return buckets
}
