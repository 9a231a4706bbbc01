package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

func recordsWithGrades(grades ...models.Grade) []models.ParticipationRecord {
	records := make([]models.ParticipationRecord, len(grades))
	for i, g := range grades {
		records[i] = models.ParticipationRecord{
			ID:    string(rune('a' + i)),
			Date:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Grade: g,
		}
	}
	return records
}

func TestDistributionEmpty(t *testing.T) {
	dist := NewDistribution(nil)
	assert.Equal(t, Distribution{}, dist)
	assert.Equal(t, 0, dist.Total())
}

func TestDistributionCounts(t *testing.T) {
	dist := NewDistribution(recordsWithGrades(models.GradeA, models.GradeA, models.GradeB, models.GradeD))
	assert.Equal(t, Distribution{A: 2, B: 1, C: 0, D: 1}, dist)
	assert.Equal(t, 4, dist.Total())
}

func TestDistributionIgnoresUnknownGrades(t *testing.T) {
	records := recordsWithGrades(models.GradeA)
	records = append(records, models.ParticipationRecord{Grade: models.Grade("F")})
	dist := NewDistribution(records)
	assert.Equal(t, 1, dist.Total())
}

func TestWeightedAverageEmptyIsNil(t *testing.T) {
	assert.Nil(t, WeightedAverage(Distribution{}, DefaultWeights))
}

func TestWeightedAverageSingleA(t *testing.T) {
	avg := WeightedAverage(Distribution{A: 1}, DefaultWeights)
	require.NotNil(t, avg)
	assert.Equal(t, 4.0, *avg)
}

func TestWeightedAverageCustomWeights(t *testing.T) {
	weights := Weights{models.GradeA: 10, models.GradeB: 5, models.GradeC: 1, models.GradeD: 0}
	avg := WeightedAverage(Distribution{A: 1, B: 1}, weights)
	require.NotNil(t, avg)
	assert.Equal(t, 7.5, *avg)
}

func TestLetterFromAverageThresholds(t *testing.T) {
	cases := []struct {
		avg  float64
		want models.Grade
	}{
		{4.0, models.GradeA},
		{3.5, models.GradeA},
		{3.49, models.GradeB},
		{2.5, models.GradeB},
		{2.49, models.GradeC},
		{1.5, models.GradeC},
		{1.49, models.GradeD},
		{1.0, models.GradeD},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LetterFromAverage(tc.avg), "avg %.2f", tc.avg)
	}
}

func TestAttendanceRate(t *testing.T) {
	assert.Equal(t, 0.0, AttendanceRate(nil))
	assert.Equal(t, 0.0, AttendanceRate(recordsWithGrades(models.GradeD)))
	assert.Equal(t, 100.0, AttendanceRate(recordsWithGrades(models.GradeA)))
	// C counts as attended (late), D does not.
	assert.Equal(t, 50.0, AttendanceRate(recordsWithGrades(models.GradeC, models.GradeD)))
}

// records = [A,A,B,D]: distribution {A:2,B:1,C:0,D:1}, average 3.0, letter
// B, attendance 75%.
func TestAggregationScenario(t *testing.T) {
	records := recordsWithGrades(models.GradeA, models.GradeA, models.GradeB, models.GradeD)

	dist := NewDistribution(records)
	assert.Equal(t, Distribution{A: 2, B: 1, C: 0, D: 1}, dist)

	avg := WeightedAverage(dist, DefaultWeights)
	require.NotNil(t, avg)
	assert.Equal(t, 3.0, *avg)
	assert.Equal(t, models.GradeB, LetterFromAverage(*avg))

	assert.Equal(t, 75.0, AttendanceRate(records))
}

func TestTopGroupEmpty(t *testing.T) {
	_, ok := TopGroup(nil, func(models.ParticipationRecord) string { return "" }, DefaultWeights)
	assert.False(t, ok)
}

func TestTopGroupHighestAverageWins(t *testing.T) {
	records := []models.ParticipationRecord{
		{StudentID: "s1", Grade: models.GradeA},
		{StudentID: "s1", Grade: models.GradeA},
		{StudentID: "s2", Grade: models.GradeB},
		{StudentID: "s2", Grade: models.GradeC},
	}
	top, ok := TopGroup(records, func(r models.ParticipationRecord) string { return r.StudentID }, DefaultWeights)
	require.True(t, ok)
	assert.Equal(t, "s1", top.Key)
	assert.Equal(t, 2, top.Records)
	assert.Equal(t, 4.0, top.Average)
}

func TestTopGroupTieBrokenByRecordCount(t *testing.T) {
	records := []models.ParticipationRecord{
		{StudentID: "s1", Grade: models.GradeA},
		{StudentID: "s2", Grade: models.GradeA},
		{StudentID: "s2", Grade: models.GradeA},
	}
	top, ok := TopGroup(records, func(r models.ParticipationRecord) string { return r.StudentID }, DefaultWeights)
	require.True(t, ok)
	assert.Equal(t, "s2", top.Key)
}

func TestTopGroupTieBrokenLexicographically(t *testing.T) {
	records := []models.ParticipationRecord{
		{StudentID: "beta", Grade: models.GradeB},
		{StudentID: "alpha", Grade: models.GradeB},
	}
	top, ok := TopGroup(records, func(r models.ParticipationRecord) string { return r.StudentID }, DefaultWeights)
	require.True(t, ok)
	assert.Equal(t, "alpha", top.Key)
}

func TestAggregationDoesNotMutateInput(t *testing.T) {
	records := recordsWithGrades(models.GradeB, models.GradeD, models.GradeA)
	snapshot := make([]models.ParticipationRecord, len(records))
	copy(snapshot, records)

	NewDistribution(records)
	AttendanceRate(records)
	TopGroup(records, func(r models.ParticipationRecord) string { return r.StudentID }, DefaultWeights)
	BucketByDay(records, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, snapshot, records)
}
