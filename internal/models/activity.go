package models

import "time"

// Activity is a daily programme item students are graded on.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Category    string    `db:"category" json:"category"`
	TimeOfDay   string    `db:"time_of_day" json:"time_of_day"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ActivityFilter scopes activity listings.
type ActivityFilter struct {
	Search   string
	Category string
	Active   *bool
	Page     int
	PageSize int
}
