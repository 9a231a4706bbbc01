package models

import "time"

// Student represents a learner registered at the markaz. UserID links the
// roster entry to its login account when the student has one.
type Student struct {
	ID            string    `db:"id" json:"id"`
	NIS           string    `db:"nis" json:"nis"`
	FullName      string    `db:"full_name" json:"full_name"`
	Gender        string    `db:"gender" json:"gender"`
	ClassName     string    `db:"class_name" json:"class_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	Address       string    `db:"address" json:"address"`
	UserID        *string   `db:"user_id" json:"user_id,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassName string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
