package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"privilog-backend/models"
	"privilog-backend/repository"
	"privilog-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func exportRouter(store service.LogStore, userID uuid.UUID) *gin.Engine {
	svc := service.NewExportService(service.ExportWithStore(store))
	h := NewExportHandler(svc)

	r := gin.New()
	r.GET("/export", asUser(userID), h.Export)
	return r
}

func TestExportEndpointDownload(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	received := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	privType := "Attorney-Client"
	desc := "Email seeking legal advice"
	store := &fakeStore{
		pairs: []repository.EmailWithEntry{
			{
				Email: models.Email{
					ID:         42,
					UserID:     userID,
					Sender:     "ceo@client.com",
					Recipient:  "counsel@lawfirm.com",
					Subject:    "Dispute",
					ReceivedAt: &received,
				},
				Entry: models.PrivilegeLogEntry{
					EmailID:        42,
					IsPrivileged:   true,
					PrivilegeType:  &privType,
					LogDescription: &desc,
				},
			},
		},
	}
	r := exportRouter(store, userID)

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="privilege_log.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), w.Body.String())
	}
	if lines[0] != "Control Number,Date,From,To,Privilege Type,Description" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "CTRL000042,2024-03-10,ceo@client.com,counsel@lawfirm.com,Attorney-Client,Email seeking legal advice" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestExportEndpointFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{listErr: errors.New("connection reset")}
	r := exportRouter(store, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "EXPORT_FAILED") {
		t.Errorf("body = %q, want EXPORT_FAILED code", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("unexpected Content-Disposition %q on failure", cd)
	}
}

func TestExportEndpointUnauthenticated(t *testing.T) {
	t.Parallel()

	svc := service.NewExportService(service.ExportWithStore(&fakeStore{}))
	h := NewExportHandler(svc)

	r := gin.New()
	r.GET("/export", h.Export)

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
