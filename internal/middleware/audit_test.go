package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markaz-annoor/annoor-api/internal/models"
)

type auditStoreStub struct {
	entries chan *models.AuditLog
}

func newAuditStoreStub() *auditStoreStub {
	return &auditStoreStub{entries: make(chan *models.AuditLog, 1)}
}

func (s *auditStoreStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.entries <- log
	return nil
}

func (s *auditStoreStub) wait(t *testing.T) *models.AuditLog {
	t.Helper()
	select {
	case entry := <-s.entries:
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("no audit entry written")
		return nil
	}
}

func perform(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAuditRecordsSuccessfulMutation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newAuditStoreStub()
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStaff}

	r := gin.New()
	r.POST("/teachers/:id", setClaims(claims), Audit(store, models.AuditActionUpdate, "teachers", zap.NewNop()), okHandler)

	rec := perform(r, http.MethodPost, "/teachers/t1")
	require.Equal(t, http.StatusOK, rec.Code)

	entry := store.wait(t)
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Equal(t, "teachers", entry.Resource)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "t1", *entry.ResourceID)
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newAuditStoreStub()

	r := gin.New()
	r.POST("/teachers", Audit(store, models.AuditActionCreate, "teachers", zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	rec := perform(r, http.MethodPost, "/teachers")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	select {
	case entry := <-store.entries:
		t.Fatalf("unexpected audit entry: %+v", entry)
	case <-time.After(100 * time.Millisecond):
	}
}
