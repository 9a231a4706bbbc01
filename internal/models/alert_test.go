package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

func TestTransitionOpenToReviewing(t *testing.T) {
	result, err := TransitionAlert(AlertStatusOpen, AlertActionReview, "u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, AlertStatusReviewing, result.Status)
	assert.Nil(t, result.ResolvedAt)
	assert.Nil(t, result.ResolvedBy)
}

func TestTransitionReviewingToResolvedStampsActor(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	result, err := TransitionAlert(AlertStatusReviewing, AlertActionResolve, "admin-1", now)
	require.NoError(t, err)
	assert.Equal(t, AlertStatusResolved, result.Status)
	require.NotNil(t, result.ResolvedAt)
	assert.Equal(t, now, *result.ResolvedAt)
	require.NotNil(t, result.ResolvedBy)
	assert.Equal(t, "admin-1", *result.ResolvedBy)
}

func TestTransitionReopenClearsResolution(t *testing.T) {
	result, err := TransitionAlert(AlertStatusResolved, AlertActionReopen, "admin-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, AlertStatusOpen, result.Status)
	assert.Nil(t, result.ResolvedAt)
	assert.Nil(t, result.ResolvedBy)
}

func TestTransitionRejectsInvalidPairs(t *testing.T) {
	invalid := []struct {
		status AlertStatus
		action AlertAction
	}{
		{AlertStatusOpen, AlertActionResolve}, // must pass through reviewing
		{AlertStatusOpen, AlertActionReopen},
		{AlertStatusReviewing, AlertActionReview},
		{AlertStatusReviewing, AlertActionReopen},
		{AlertStatusResolved, AlertActionReview},
		{AlertStatusResolved, AlertActionResolve},
		{AlertStatusOpen, AlertAction("escalate")},
	}
	for _, tc := range invalid {
		_, err := TransitionAlert(tc.status, tc.action, "u1", time.Now())
		require.Error(t, err, "%s + %s", tc.status, tc.action)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	}
}

// resolvedAt must be set if and only if the resulting status is resolved.
func TestTransitionResolutionInvariant(t *testing.T) {
	statuses := []AlertStatus{AlertStatusOpen, AlertStatusReviewing, AlertStatusResolved}
	actions := []AlertAction{AlertActionReview, AlertActionResolve, AlertActionReopen}
	for _, status := range statuses {
		for _, action := range actions {
			result, err := TransitionAlert(status, action, "u1", time.Now())
			if err != nil {
				continue
			}
			if result.Status == AlertStatusResolved {
				assert.NotNil(t, result.ResolvedAt)
				assert.NotNil(t, result.ResolvedBy)
			} else {
				assert.Nil(t, result.ResolvedAt)
				assert.Nil(t, result.ResolvedBy)
			}
		}
	}
}
