package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
	appErrors "github.com/markaz-annoor/annoor-api/pkg/errors"
)

type leaveRepoStub struct {
	leaves map[string]*models.LeaveRecord
}

func newLeaveRepoStub() *leaveRepoStub {
	return &leaveRepoStub{leaves: map[string]*models.LeaveRecord{}}
}

func (r *leaveRepoStub) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRecord, int, error) {
	var out []models.LeaveRecord
	for _, l := range r.leaves {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (r *leaveRepoStub) FindByID(ctx context.Context, id string) (*models.LeaveRecord, error) {
	leave, ok := r.leaves[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *leave
	return &copy, nil
}

func (r *leaveRepoStub) Create(ctx context.Context, leave *models.LeaveRecord) error {
	r.leaves[leave.ID] = leave
	return nil
}

func (r *leaveRepoStub) SetStatus(ctx context.Context, id string, status models.LeaveStatus, approvedBy *string) error {
	leave, ok := r.leaves[id]
	if !ok || leave.Status != models.LeaveStatusPending {
		return sql.ErrNoRows
	}
	leave.Status = status
	leave.ApprovedBy = approvedBy
	return nil
}

func (r *leaveRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.leaves, id)
	return nil
}

func newLeaveServiceForTest() (*LeaveService, *leaveRepoStub) {
	repo := newLeaveRepoStub()
	return NewLeaveService(repo, nil, zap.NewNop()), repo
}

func TestLeaveServiceApprove(t *testing.T) {
	svc, repo := newLeaveServiceForTest()
	repo.leaves["l1"] = &models.LeaveRecord{ID: "l1", Status: models.LeaveStatusPending}

	leave, err := svc.Approve(context.Background(), "l1", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, leave.Status)
	require.NotNil(t, leave.ApprovedBy)
	assert.Equal(t, "staff-1", *leave.ApprovedBy)
}

func TestLeaveServiceDecideTwiceConflicts(t *testing.T) {
	svc, repo := newLeaveServiceForTest()
	repo.leaves["l1"] = &models.LeaveRecord{ID: "l1", Status: models.LeaveStatusPending}

	_, err := svc.Approve(context.Background(), "l1", "staff-1")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), "l1", "staff-2")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, models.LeaveStatusApproved, repo.leaves["l1"].Status)
}

// staleLeaveRepo serves reads from a pending snapshot while the live row
// was already decided, exercising the status guard on the write path.
type staleLeaveRepo struct {
	*leaveRepoStub
}

func (r *staleLeaveRepo) FindByID(ctx context.Context, id string) (*models.LeaveRecord, error) {
	return &models.LeaveRecord{ID: id, Status: models.LeaveStatusPending}, nil
}

func TestLeaveServiceConcurrentDecisionConflicts(t *testing.T) {
	repo := newLeaveRepoStub()
	approver := "staff-1"
	repo.leaves["l1"] = &models.LeaveRecord{ID: "l1", Status: models.LeaveStatusApproved, ApprovedBy: &approver}

	svc := NewLeaveService(&staleLeaveRepo{leaveRepoStub: repo}, nil, zap.NewNop())

	_, err := svc.Reject(context.Background(), "l1", "staff-2")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	assert.Equal(t, models.LeaveStatusApproved, repo.leaves["l1"].Status)
	assert.Equal(t, "staff-1", *repo.leaves["l1"].ApprovedBy)
}
