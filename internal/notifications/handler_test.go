package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherhall/backend/internal/events"
	"github.com/gatherhall/backend/internal/middleware"
	"github.com/gatherhall/backend/internal/models"
)

type fakeHostChecker struct {
	host bool
	err  error
}

func (f *fakeHostChecker) IsHost(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return f.host, f.err
}

type fakeLogStore struct {
	logs []*models.EmailLog
	err  error
}

func (f *fakeLogStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error) {
	return f.logs, f.err
}

func serveListByEvent(t *testing.T, store LogStore, hosts HostChecker, eventID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, hosts)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uuid.New())
		c.Next()
	})
	router.GET("/events/:id/emails", h.ListByEvent)

	req := httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/emails", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListByEvent(t *testing.T) {
	eventID := uuid.NewString()

	t.Run("host sees the log", func(t *testing.T) {
		store := &fakeLogStore{logs: []*models.EmailLog{{ID: uuid.New(), EmailType: models.EmailTypeRequestApproved}}}
		w := serveListByEvent(t, store, &fakeHostChecker{host: true}, eventID)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("non-host gets bad request", func(t *testing.T) {
		w := serveListByEvent(t, &fakeLogStore{}, &fakeHostChecker{host: false}, eventID)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("unknown event gets 404", func(t *testing.T) {
		w := serveListByEvent(t, &fakeLogStore{}, &fakeHostChecker{err: events.ErrNotFound}, eventID)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("host check failure gets 500", func(t *testing.T) {
		w := serveListByEvent(t, &fakeLogStore{}, &fakeHostChecker{err: errors.New("connection refused")}, eventID)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("malformed event id", func(t *testing.T) {
		w := serveListByEvent(t, &fakeLogStore{}, &fakeHostChecker{host: true}, "not-a-uuid")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
	})
}
