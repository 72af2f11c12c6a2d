package rsvps

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherhall/backend/internal/middleware"
	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/pkg/response"
)

func newTestRouter(t *testing.T, f *fixture, asUser uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.service, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, asUser)
		c.Next()
	})
	router.POST("/events/:id/rsvp", h.Request)
	router.GET("/events/:id/rsvps/pending", h.ListPending)
	router.GET("/events/:id/rsvps/processed", h.ListProcessed)
	router.POST("/events/:id/rsvps/:requestId/decision", h.Decide)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope response.Body
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return w, envelope
}

func TestRequestEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t, true)
		router := newTestRouter(t, f, f.userID)
		w, body := doJSON(t, router, http.MethodPost, "/events/"+f.eventID.String()+"/rsvp", "")
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
		}
		if !body.Success {
			t.Errorf("success = false: %s", w.Body.String())
		}
	})

	t.Run("no approval needed", func(t *testing.T) {
		f := newFixture(t, false)
		router := newTestRouter(t, f, f.userID)
		w, _ := doJSON(t, router, http.MethodPost, "/events/"+f.eventID.String()+"/rsvp", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		var outcome AdmissionOutcome
		raw, _ := json.Marshal(jsonData(t, w))
		if err := json.Unmarshal(raw, &outcome); err != nil {
			t.Fatalf("decode outcome: %v", err)
		}
		if outcome.Needed {
			t.Error("approval_required = true, want false")
		}
	})

	t.Run("duplicate pending is a conflict", func(t *testing.T) {
		f := newFixture(t, true)
		router := newTestRouter(t, f, f.userID)
		path := "/events/" + f.eventID.String() + "/rsvp"
		doJSON(t, router, http.MethodPost, path, "")
		w, body := doJSON(t, router, http.MethodPost, path, "")
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409 (%s)", w.Code, w.Body.String())
		}
		if body.Error != "join request already pending" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t, true)
		router := newTestRouter(t, f, f.userID)
		w, _ := doJSON(t, router, http.MethodPost, "/events/"+uuid.NewString()+"/rsvp", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("malformed event id", func(t *testing.T) {
		f := newFixture(t, true)
		router := newTestRouter(t, f, f.userID)
		w, _ := doJSON(t, router, http.MethodPost, "/events/not-a-uuid/rsvp", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
	})
}

func TestDecideEndpoint(t *testing.T) {
	decide := func(t *testing.T, router *gin.Engine, eventID, requestID uuid.UUID, action string) (*httptest.ResponseRecorder, response.Body) {
		t.Helper()
		path := "/events/" + eventID.String() + "/rsvps/" + requestID.String() + "/decision"
		return doJSON(t, router, http.MethodPost, path, `{"action":"`+action+`"}`)
	}

	t.Run("approve", func(t *testing.T) {
		f := newFixture(t, true)
		req := f.pendingRequest(t, f.userID)
		router := newTestRouter(t, f, f.hostID)
		w, _ := decide(t, router, f.eventID, req.ID, "approved")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		var updated models.RSVPRequest
		raw, _ := json.Marshal(jsonData(t, w))
		if err := json.Unmarshal(raw, &updated); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if updated.Status != models.RSVPStatusApproved {
			t.Errorf("status = %s, want approved", updated.Status)
		}
	})

	t.Run("already decided is a conflict", func(t *testing.T) {
		f := newFixture(t, true)
		req := f.pendingRequest(t, f.userID)
		router := newTestRouter(t, f, f.hostID)
		decide(t, router, f.eventID, req.ID, "rejected")
		w, body := decide(t, router, f.eventID, req.ID, "approved")
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409 (%s)", w.Code, w.Body.String())
		}
		if body.Error != "no pending join request matching" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("non-host gets bad request", func(t *testing.T) {
		f := newFixture(t, true)
		req := f.pendingRequest(t, f.userID)
		router := newTestRouter(t, f, f.userID)
		w, body := decide(t, router, f.eventID, req.ID, "approved")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
		if body.Error != "not an event host" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		f := newFixture(t, true)
		req := f.pendingRequest(t, f.userID)
		router := newTestRouter(t, f, f.hostID)
		w, _ := decide(t, router, f.eventID, req.ID, "pending")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("missing action", func(t *testing.T) {
		f := newFixture(t, true)
		req := f.pendingRequest(t, f.userID)
		router := newTestRouter(t, f, f.hostID)
		path := "/events/" + f.eventID.String() + "/rsvps/" + req.ID.String() + "/decision"
		w, _ := doJSON(t, router, http.MethodPost, path, `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
	})
}

func TestListEndpoints(t *testing.T) {
	t.Run("pending page with paging params", func(t *testing.T) {
		f := newFixture(t, true)
		for i := 0; i < 25; i++ {
			f.pendingRequest(t, uuid.New())
		}
		router := newTestRouter(t, f, f.hostID)
		w, _ := doJSON(t, router, http.MethodGet, "/events/"+f.eventID.String()+"/rsvps/pending?page=2&page_size=10", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
		}
		var page models.RSVPPage
		raw, _ := json.Marshal(jsonData(t, w))
		if err := json.Unmarshal(raw, &page); err != nil {
			t.Fatalf("decode page: %v", err)
		}
		if page.Page != 2 || page.PageSize != 10 || page.TotalCount != 25 || page.TotalPages != 3 {
			t.Errorf("page = %d/%d total %d pages %d, want 2/10 total 25 pages 3",
				page.Page, page.PageSize, page.TotalCount, page.TotalPages)
		}
		if len(page.Items) != 10 {
			t.Errorf("items = %d, want 10", len(page.Items))
		}
	})

	t.Run("processed excludes pending", func(t *testing.T) {
		f := newFixture(t, true)
		f.pendingRequest(t, f.userID)
		router := newTestRouter(t, f, f.hostID)
		w, _ := doJSON(t, router, http.MethodGet, "/events/"+f.eventID.String()+"/rsvps/processed", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
		}
		var page models.RSVPPage
		raw, _ := json.Marshal(jsonData(t, w))
		if err := json.Unmarshal(raw, &page); err != nil {
			t.Fatalf("decode page: %v", err)
		}
		if page.TotalCount != 0 {
			t.Errorf("total = %d, want 0", page.TotalCount)
		}
	})

	t.Run("non-host gets bad request", func(t *testing.T) {
		f := newFixture(t, true)
		router := newTestRouter(t, f, f.userID)
		w, _ := doJSON(t, router, http.MethodGet, "/events/"+f.eventID.String()+"/rsvps/pending", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
		}
	})
}

func jsonData(t *testing.T, w *httptest.ResponseRecorder) interface{} {
	t.Helper()
	var envelope struct {
		Data interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return envelope.Data
}
