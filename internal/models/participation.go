package models

import "time"

// Grade is the ordinal participation rating given by a teacher.
// A (did properly) > B (attended) > C (late) > D (unattended). The letters
// carry no numeric meaning of their own; averaging goes through an explicit
// weight mapping owned by the grading package.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Grades lists every grade value in rank order.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD}

// Valid reports whether the grade is a supported value.
func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD:
		return true
	default:
		return false
	}
}

// ParticipationRecord is a single graded activity entry for a student on
// a calendar day. Date carries no time-of-day semantics.
type ParticipationRecord struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	ActivityID string    `db:"activity_id" json:"activity_id"`
	Date       time.Time `db:"date" json:"date"`
	Grade      Grade     `db:"grade" json:"grade"`
	Remark     *string   `db:"remark" json:"remark,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ParticipationDetail extends a record with display metadata.
type ParticipationDetail struct {
	ParticipationRecord
	StudentName  string `db:"student_name" json:"student_name"`
	ClassName    string `db:"class_name" json:"class_name"`
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
	ActivityName string `db:"activity_name" json:"activity_name"`
}

// ParticipationFilter scopes participation listings.
type ParticipationFilter struct {
	StudentID  string
	TeacherID  string
	ActivityID string
	ClassName  string
	Grade      *Grade
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
