package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"privilog-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func fileRouter(files *fakeFileStore, blobs *fakeBlobStorage, userID uuid.UUID) *gin.Engine {
	h := NewFileHandler(files, blobs)

	r := gin.New()
	r.GET("/files", asUser(userID), h.List)
	r.GET("/files/:id", asUser(userID), h.Download)
	return r
}

func seedFile(files *fakeFileStore, blobs *fakeBlobStorage, userID uuid.UUID, filename, content string) *models.File {
	file := &models.File{
		ID:          uuid.New(),
		UserID:      userID,
		Filename:    filename,
		MimeType:    "text/plain",
		Size:        int64(len(content)),
		StoragePath: "ab/" + filename,
	}
	files.files = append(files.files, file)
	blobs.blobs[file.StoragePath] = []byte(content)
	return file
}

func TestListFilesScopedToOwner(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	files := &fakeFileStore{}
	blobs := newFakeBlobStorage()
	seedFile(files, blobs, owner, "one.txt", "first")
	seedFile(files, blobs, owner, "two.eml", "second")
	seedFile(files, blobs, uuid.New(), "other.txt", "not yours")

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	w := httptest.NewRecorder()
	fileRouter(files, blobs, owner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Success bool          `json:"success"`
		Data    []models.File `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if len(resp.Data) != 2 {
		t.Fatalf("listed files = %d, want 2", len(resp.Data))
	}
	for _, f := range resp.Data {
		if f.UserID != owner {
			t.Errorf("listed file %s owned by %s, want %s", f.Filename, f.UserID, owner)
		}
	}
}

func TestListFilesEmpty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	w := httptest.NewRecorder()
	fileRouter(&fakeFileStore{}, newFakeBlobStorage(), uuid.New()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Data []models.File `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("data = %v, want empty list", resp.Data)
	}
}

func TestDownloadFile(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	files := &fakeFileStore{}
	blobs := newFakeBlobStorage()
	file := seedFile(files, blobs, owner, "email.txt", "Subject: Hi\n\nBody")

	req := httptest.NewRequest(http.MethodGet, "/files/"+file.ID.String(), nil)
	w := httptest.NewRecorder()
	fileRouter(files, blobs, owner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if w.Body.String() != "Subject: Hi\n\nBody" {
		t.Errorf("body = %q, want original content", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="email.txt"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestDownloadFileScopedToOwner(t *testing.T) {
	t.Parallel()

	files := &fakeFileStore{}
	blobs := newFakeBlobStorage()
	file := seedFile(files, blobs, uuid.New(), "email.txt", "private")

	// Another user asks for it by the real ID
	req := httptest.NewRequest(http.MethodGet, "/files/"+file.ID.String(), nil)
	w := httptest.NewRecorder()
	fileRouter(files, blobs, uuid.New()).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDownloadFileInvalidID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/files/not-a-uuid", nil)
	w := httptest.NewRecorder()
	fileRouter(&fakeFileStore{}, newFakeBlobStorage(), uuid.New()).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if env.Error.Code != "INVALID_ID" {
		t.Errorf("error code = %q, want INVALID_ID", env.Error.Code)
	}
}
