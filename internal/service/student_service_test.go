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

type studentRepoStub struct {
	students map[string]*models.Student
	classes  []string
}

func newStudentRepoStub() *studentRepoStub {
	return &studentRepoStub{students: map[string]*models.Student{}}
}

func (r *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range r.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *student
	return &copy, nil
}

func (r *studentRepoStub) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	for _, s := range r.students {
		if s.UserID != nil && *s.UserID == userID {
			copy := *s
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	r.students[student.ID] = student
	return nil
}

func (r *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	r.students[student.ID] = student
	return nil
}

func (r *studentRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.students, id)
	return nil
}

func (r *studentRepoStub) ClassNames(ctx context.Context) ([]string, error) {
	return r.classes, nil
}

type auditWriterStub struct {
	entries []*models.AuditLog
}

func (w *auditWriterStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	w.entries = append(w.entries, log)
	return nil
}

func newStudentServiceForTest() (*StudentService, *studentRepoStub, *auditWriterStub) {
	repo := newStudentRepoStub()
	audit := &auditWriterStub{}
	return NewStudentService(repo, audit, nil, zap.NewNop()), repo, audit
}

func TestStudentServiceCreateLinksAccount(t *testing.T) {
	svc, repo, audit := newStudentServiceForTest()

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		NIS:       "2024-001",
		FullName:  "Ahmad Fauzi",
		Gender:    "male",
		ClassName: "3A",
		UserID:    "b2f9c1f4-5a4c-4c58-9d0e-0c9a3f2c1d7e",
	}, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, student.UserID)
	assert.Equal(t, "b2f9c1f4-5a4c-4c58-9d0e-0c9a3f2c1d7e", *student.UserID)

	stored, ok := repo.students[student.ID]
	require.True(t, ok)
	assert.Equal(t, "2024-001", stored.NIS)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionCreate, audit.entries[0].Action)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc, _, _ := newStudentServiceForTest()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		NIS:      "2024-002",
		FullName: "Siti Rahma",
		Gender:   "other",
	}, "admin-1")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceGetByUserID(t *testing.T) {
	svc, repo, _ := newStudentServiceForTest()

	accountID := "account-1"
	repo.students["s1"] = &models.Student{ID: "s1", NIS: "2024-003", FullName: "Umar Said", UserID: &accountID}
	repo.students["s2"] = &models.Student{ID: "s2", NIS: "2024-004", FullName: "Zainab Putri"}

	student, err := svc.GetByUserID(context.Background(), "account-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)

	_, err = svc.GetByUserID(context.Background(), "account-unknown")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentServiceClassNames(t *testing.T) {
	svc, repo, _ := newStudentServiceForTest()
	repo.classes = []string{"1A", "2B", "3A"}

	names, err := svc.ClassNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "2B", "3A"}, names)
}
