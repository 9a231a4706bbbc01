package models

import (
	"time"

	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

// AlertPriority ranks behavioural alerts for triage.
type AlertPriority string

const (
	AlertPriorityLow    AlertPriority = "low"
	AlertPriorityMedium AlertPriority = "medium"
	AlertPriorityHigh   AlertPriority = "high"
	AlertPriorityUrgent AlertPriority = "urgent"
)

// Valid reports whether the priority is a supported value.
func (p AlertPriority) Valid() bool {
	switch p {
	case AlertPriorityLow, AlertPriorityMedium, AlertPriorityHigh, AlertPriorityUrgent:
		return true
	default:
		return false
	}
}

// AlertStatus tracks the review lifecycle of an alert.
type AlertStatus string

const (
	AlertStatusOpen      AlertStatus = "open"
	AlertStatusReviewing AlertStatus = "reviewing"
	AlertStatusResolved  AlertStatus = "resolved"
)

// AlertAction is a requested status change.
type AlertAction string

const (
	AlertActionReview  AlertAction = "review"
	AlertActionResolve AlertAction = "resolve"
	AlertActionReopen  AlertAction = "reopen"
)

// Alert is a behavioural flag raised by a teacher for a student.
type Alert struct {
	ID         string        `db:"id" json:"id"`
	StudentID  string        `db:"student_id" json:"student_id"`
	TeacherID  string        `db:"teacher_id" json:"teacher_id"`
	Comment    string        `db:"comment" json:"comment"`
	Priority   AlertPriority `db:"priority" json:"priority"`
	Status     AlertStatus   `db:"status" json:"status"`
	ResolvedAt *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy *string       `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// AlertFilter scopes alert listings.
type AlertFilter struct {
	StudentID string
	TeacherID string
	Priority  *AlertPriority
	Status    *AlertStatus
	Page      int
	PageSize  int
}

// AlertTransition is the outcome of applying an action to an alert status.
// ResolvedAt and ResolvedBy are nil unless the new status is resolved, so
// "resolvedAt is set if and only if status is resolved" holds by construction.
type AlertTransition struct {
	Status     AlertStatus
	ResolvedAt *time.Time
	ResolvedBy *string
}

// TransitionAlert applies a lifecycle action to the current status. The only
// valid transitions are open → reviewing → resolved and the explicit manual
// reopen resolved → open; anything else is rejected. Resolving stamps the
// resolution time and actor, reopening clears both.
func TransitionAlert(current AlertStatus, action AlertAction, actor string, now time.Time) (AlertTransition, error) {
	switch {
	case current == AlertStatusOpen && action == AlertActionReview:
		return AlertTransition{Status: AlertStatusReviewing}, nil
	case current == AlertStatusReviewing && action == AlertActionResolve:
		ts := now.UTC()
		return AlertTransition{Status: AlertStatusResolved, ResolvedAt: &ts, ResolvedBy: &actor}, nil
	case current == AlertStatusResolved && action == AlertActionReopen:
		return AlertTransition{Status: AlertStatusOpen}, nil
	default:
		return AlertTransition{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			"cannot apply action "+string(action)+" to status "+string(current))
	}
}
