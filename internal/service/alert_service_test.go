package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

type alertRepoStub struct {
	alerts      map[string]*models.Alert
	lastUpdate  *models.AlertTransition
	statusCalls int
}

func newAlertRepoStub() *alertRepoStub {
	return &alertRepoStub{alerts: map[string]*models.Alert{}}
}

func (r *alertRepoStub) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	var out []models.Alert
	for _, a := range r.alerts {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (r *alertRepoStub) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	alert, ok := r.alerts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *alert
	return &copy, nil
}

func (r *alertRepoStub) Create(ctx context.Context, alert *models.Alert) error {
	r.alerts[alert.ID] = alert
	return nil
}

func (r *alertRepoStub) Update(ctx context.Context, alert *models.Alert) error {
	r.alerts[alert.ID] = alert
	return nil
}

func (r *alertRepoStub) UpdateStatus(ctx context.Context, id string, from models.AlertStatus, transition models.AlertTransition) error {
	alert, ok := r.alerts[id]
	if !ok || alert.Status != from {
		return sql.ErrNoRows
	}
	alert.Status = transition.Status
	alert.ResolvedAt = transition.ResolvedAt
	alert.ResolvedBy = transition.ResolvedBy
	r.lastUpdate = &transition
	r.statusCalls++
	return nil
}

func (r *alertRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.alerts, id)
	return nil
}

func (r *alertRepoStub) CountByStatus(ctx context.Context) (map[models.AlertStatus]int, error) {
	counts := map[models.AlertStatus]int{}
	for _, a := range r.alerts {
		counts[a.Status]++
	}
	return counts, nil
}

func newAlertServiceForTest() (*AlertService, *alertRepoStub) {
	repo := newAlertRepoStub()
	svc := NewAlertService(repo, nil, zap.NewNop())
	return svc, repo
}

func TestAlertServiceCreateStartsOpen(t *testing.T) {
	svc, repo := newAlertServiceForTest()
	alert, err := svc.Create(context.Background(), CreateAlertRequest{
		StudentID: "0b1f8c52-9d3e-4c41-8a47-1f2f8f0a5b11",
		TeacherID: "5a86f0a4-2f9a-4d3c-9f36-deed12c7b9f4",
		Comment:   "skipped morning activity",
		Priority:  models.AlertPriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.Nil(t, alert.ResolvedAt)
	assert.Contains(t, repo.alerts, alert.ID)
}

func TestAlertServiceTransitionReviewThenResolve(t *testing.T) {
	svc, repo := newAlertServiceForTest()
	repo.alerts["a1"] = &models.Alert{ID: "a1", Status: models.AlertStatusOpen}

	alert, err := svc.Transition(context.Background(), "a1", TransitionAlertRequest{Action: models.AlertActionReview}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusReviewing, alert.Status)
	assert.Nil(t, alert.ResolvedAt)

	alert, err = svc.Transition(context.Background(), "a1", TransitionAlertRequest{Action: models.AlertActionResolve}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, alert.Status)
	require.NotNil(t, alert.ResolvedAt)
	require.NotNil(t, alert.ResolvedBy)
	assert.Equal(t, "admin-1", *alert.ResolvedBy)
}

func TestAlertServiceTransitionReopenClearsResolution(t *testing.T) {
	svc, repo := newAlertServiceForTest()
	now := time.Now().UTC()
	actor := "admin-1"
	repo.alerts["a1"] = &models.Alert{ID: "a1", Status: models.AlertStatusResolved, ResolvedAt: &now, ResolvedBy: &actor}

	alert, err := svc.Transition(context.Background(), "a1", TransitionAlertRequest{Action: models.AlertActionReopen}, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.Nil(t, alert.ResolvedAt)
	assert.Nil(t, alert.ResolvedBy)
}

func TestAlertServiceTransitionInvalidPairLeavesRowUntouched(t *testing.T) {
	svc, repo := newAlertServiceForTest()
	repo.alerts["a1"] = &models.Alert{ID: "a1", Status: models.AlertStatusOpen}

	_, err := svc.Transition(context.Background(), "a1", TransitionAlertRequest{Action: models.AlertActionResolve}, "admin-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, 0, repo.statusCalls)
	assert.Equal(t, models.AlertStatusOpen, repo.alerts["a1"].Status)
}

// staleAlertRepo serves reads from a snapshot taken before a concurrent
// writer changed the row, while writes hit the live store.
type staleAlertRepo struct {
	*alertRepoStub
	snapshot models.Alert
}

func (r *staleAlertRepo) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	copy := r.snapshot
	return &copy, nil
}

func TestAlertServiceTransitionStaleReadConflicts(t *testing.T) {
	repo := newAlertRepoStub()
	now := time.Now().UTC()
	actor := "staff-1"
	repo.alerts["a1"] = &models.Alert{ID: "a1", Status: models.AlertStatusResolved, ResolvedAt: &now, ResolvedBy: &actor}

	stale := &staleAlertRepo{alertRepoStub: repo, snapshot: models.Alert{ID: "a1", Status: models.AlertStatusOpen}}
	svc := NewAlertService(stale, nil, zap.NewNop())

	_, err := svc.Transition(context.Background(), "a1", TransitionAlertRequest{Action: models.AlertActionReview}, "staff-2")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	assert.Equal(t, models.AlertStatusResolved, repo.alerts["a1"].Status)
	require.NotNil(t, repo.alerts["a1"].ResolvedAt)
	assert.Equal(t, "staff-1", *repo.alerts["a1"].ResolvedBy)
}

func TestAlertServiceTransitionNotFound(t *testing.T) {
	svc, _ := newAlertServiceForTest()
	_, err := svc.Transition(context.Background(), "missing", TransitionAlertRequest{Action: models.AlertActionReview}, "admin-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAlertServiceCountByStatus(t *testing.T) {
	svc, repo := newAlertServiceForTest()
	repo.alerts["a1"] = &models.Alert{ID: "a1", Status: models.AlertStatusOpen}
	repo.alerts["a2"] = &models.Alert{ID: "a2", Status: models.AlertStatusOpen}
	repo.alerts["a3"] = &models.Alert{ID: "a3", Status: models.AlertStatusResolved}

	counts, err := svc.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.AlertStatusOpen])
	assert.Equal(t, 1, counts[models.AlertStatusResolved])
}
