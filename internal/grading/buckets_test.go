package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayNormalisesTimeOfDay(t *testing.T) {
	noon := time.Date(2026, 3, 4, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, day(2026, 3, 4), Day(noon))
}

func TestWeekStartIsMonday(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := day(2026, 3, 2)
	for i := 0; i < 7; i++ {
		assert.Equal(t, monday, WeekStart(monday.AddDate(0, 0, i)), "offset %d", i)
	}
	assert.Equal(t, day(2026, 2, 23), WeekStart(day(2026, 3, 1)))
}

func TestBucketByDayCoversEveryDay(t *testing.T) {
	from := day(2026, 3, 1)
	to := day(2026, 3, 7)
	records := []models.ParticipationRecord{
		{ID: "first", Date: from, Grade: models.GradeA},
		{ID: "last", Date: to, Grade: models.GradeB},
	}

	buckets := BucketByDay(records, from, to)
	require.Len(t, buckets, 7)

	empty := 0
	for i, bucket := range buckets {
		assert.Equal(t, from.AddDate(0, 0, i), bucket.Date)
		if len(bucket.Records) == 0 {
			empty++
		}
	}
	assert.Equal(t, 5, empty)
	assert.Equal(t, "first", buckets[0].Records[0].ID)
	assert.Equal(t, "last", buckets[6].Records[0].ID)
}

func TestBucketByDayDropsOutOfRangeRecords(t *testing.T) {
	records := []models.ParticipationRecord{
		{ID: "outside", Date: day(2026, 2, 28), Grade: models.GradeA},
	}
	buckets := BucketByDay(records, day(2026, 3, 1), day(2026, 3, 3))
	require.Len(t, buckets, 3)
	for _, bucket := range buckets {
		assert.Empty(t, bucket.Records)
	}
}

func TestBucketByDayInvertedRange(t *testing.T) {
	assert.Nil(t, BucketByDay(nil, day(2026, 3, 7), day(2026, 3, 1)))
}

func TestBucketByDaySingleDay(t *testing.T) {
	d := day(2026, 3, 4)
	buckets := BucketByDay(nil, d, d)
	require.Len(t, buckets, 1)
	assert.Equal(t, d, buckets[0].Date)
}

func TestBucketByWeekChronologicalWithGaps(t *testing.T) {
	// Reference inside the week starting Monday 2026-03-02.
	ref := day(2026, 3, 4)
	records := []models.ParticipationRecord{
		{ID: "wk1", Date: day(2026, 2, 17), Grade: models.GradeA}, // week of Feb 16
		{ID: "wk4", Date: day(2026, 3, 6), Grade: models.GradeB},  // week of Mar 2
	}

	buckets := BucketByWeek(records, 4, ref)
	require.Len(t, buckets, 4)

	assert.Equal(t, day(2026, 2, 9), buckets[0].Start)
	assert.Equal(t, day(2026, 2, 16), buckets[1].Start)
	assert.Equal(t, day(2026, 2, 23), buckets[2].Start)
	assert.Equal(t, day(2026, 3, 2), buckets[3].Start)

	assert.Empty(t, buckets[0].Records)
	require.Len(t, buckets[1].Records, 1)
	assert.Equal(t, "wk1", buckets[1].Records[0].ID)
	assert.Empty(t, buckets[2].Records)
	require.Len(t, buckets[3].Records, 1)
	assert.Equal(t, "wk4", buckets[3].Records[0].ID)
}

func TestBucketByWeekZeroWeeks(t *testing.T) {
	assert.Nil(t, BucketByWeek(nil, 0, day(2026, 3, 4)))
}
