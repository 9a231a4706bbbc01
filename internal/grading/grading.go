// Package grading is the single authoritative implementation of the
// participation aggregation maths used by dashboards, progress views and
// exports. Every function is pure and never mutates its input, so callers
// may share snapshots freely.
package grading

import (
	"sort"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

// Weights maps each grade letter to its numeric value for averaging. The
// mapping is institutional policy, not a property of the letters; it is
// injected everywhere so a policy change never touches aggregation code.
type Weights map[models.Grade]float64

// DefaultWeights is the policy in force: A=4, B=3, C=2, D=1.
var DefaultWeights = Weights{
	models.GradeA: 4,
	models.GradeB: 3,
	models.GradeC: 2,
	models.GradeD: 1,
}

// Letter thresholds for converting a weighted average back to a grade.
// Policy constants: avg >= 3.5 is an A, >= 2.5 a B, >= 1.5 a C, else D.
const (
	ThresholdA = 3.5
	ThresholdB = 2.5
	ThresholdC = 1.5
)

// attendedGrades defines which grades count as attendance. D means the
// student did not attend at all; this is a policy decision, not something
// read off the letters.
var attendedGrades = map[models.Grade]struct{}{
	models.GradeA: {},
	models.GradeB: {},
	models.GradeC: {},
}

// Distribution counts records per grade value.
type Distribution struct {
	A int `json:"A"`
	B int `json:"B"`
	C int `json:"C"`
	D int `json:"D"`
}

// Total returns the number of records counted.
func (d Distribution) Total() int {
	return d.A + d.B + d.C + d.D
}

// Count returns the tally for a single grade.
func (d Distribution) Count(g models.Grade) int {
	switch g {
	case models.GradeA:
		return d.A
	case models.GradeB:
		return d.B
	case models.GradeC:
		return d.C
	case models.GradeD:
		return d.D
	default:
		return 0
	}
}

// NewDistribution counts the grades in the given records. Records with an
// unknown grade value are ignored. Empty input yields all zeros.
func NewDistribution(records []models.ParticipationRecord) Distribution {
	var dist Distribution
	for _, rec := range records {
		switch rec.Grade {
		case models.GradeA:
			dist.A++
		case models.GradeB:
			dist.B++
		case models.GradeC:
			dist.C++
		case models.GradeD:
			dist.D++
		}
	}
	return dist
}

// WeightedAverage converts a distribution into a single number using the
// provided weights. It returns nil for an empty distribution so callers
// can distinguish "no data" from a real zero; it never produces NaN.
func WeightedAverage(dist Distribution, weights Weights) *float64 {
	total := dist.Total()
	if total == 0 {
		return nil
	}
	sum := weights[models.GradeA]*float64(dist.A) +
		weights[models.GradeB]*float64(dist.B) +
		weights[models.GradeC]*float64(dist.C) +
		weights[models.GradeD]*float64(dist.D)
	avg := sum / float64(total)
	return &avg
}

// LetterFromAverage maps a weighted average back onto the grade scale
// using the policy thresholds above.
func LetterFromAverage(avg float64) models.Grade {
	switch {
	case avg >= ThresholdA:
		return models.GradeA
	case avg >= ThresholdB:
		return models.GradeB
	case avg >= ThresholdC:
		return models.GradeC
	default:
		return models.GradeD
	}
}

// AttendanceRate returns the share of records counting as attendance, as
// a percentage in [0, 100]. Empty input yields 0.
func AttendanceRate(records []models.ParticipationRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	attended := 0
	for _, rec := range records {
		if _, ok := attendedGrades[rec.Grade]; ok {
			attended++
		}
	}
	return float64(attended) / float64(len(records)) * 100
}

// Group is an aggregate over records sharing a key, e.g. a class name.
type Group struct {
	Key     string
	Records int
	Average float64
}

// TopGroup partitions records by keyFn and returns the group with the
// highest weighted average. Ties go to the group with more records, then
// to the lexicographically smaller key, making the order total and the
// result deterministic. The boolean is false when records is empty.
func TopGroup(records []models.ParticipationRecord, keyFn func(models.ParticipationRecord) string, weights Weights) (Group, bool) {
	if len(records) == 0 {
		return Group{}, false
	}
	byKey := make(map[string][]models.ParticipationRecord)
	for _, rec := range records {
		key := keyFn(rec)
		byKey[key] = append(byKey[key], rec)
	}

	groups := make([]Group, 0, len(byKey))
	for key, recs := range byKey {
		avg := WeightedAverage(NewDistribution(recs), weights)
		if avg == nil {
			continue
		}
		groups = append(groups, Group{Key: key, Records: len(recs), Average: *avg})
	}
	if len(groups) == 0 {
		return Group{}, false
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Average != groups[j].Average {
			return groups[i].Average > groups[j].Average
		}
		if groups[i].Records != groups[j].Records {
			return groups[i].Records > groups[j].Records
		}
		return groups[i].Key < groups[j].Key
	})
	return groups[0], true
}
