package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"privilog-backend/models"
	"privilog-backend/repository"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestExportEmptyLogStillHasHeader(t *testing.T) {
	t.Parallel()

	svc := NewExportService(ExportWithStore(&fakeStore{}))

	var buf bytes.Buffer
	if err := svc.WriteCSV(context.Background(), uuid.New(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header row only, got %d rows", len(records))
	}
	if strings.Join(records[0], ",") != "Control Number,Date,From,To,Privilege Type,Description" {
		t.Errorf("unexpected header: %v", records[0])
	}
}

func TestExportRowFormatting(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	received := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	store := &fakeStore{pairs: []repository.EmailWithEntry{
		{
			Email: models.Email{
				ID:         42,
				UserID:     userID,
				Sender:     "ceo@client.com",
				Recipient:  "counsel@lawfirm.com",
				Subject:    "Potential Lawsuit",
				ReceivedAt: &received,
			},
			Entry: models.PrivilegeLogEntry{
				EmailID:        42,
				IsPrivileged:   true,
				PrivilegeType:  strPtr("Attorney-Client"),
				LogDescription: strPtr("Confidential communication regarding potential litigation."),
			},
		},
		{
			Email: models.Email{
				ID:        43,
				UserID:    userID,
				Sender:    "Unknown",
				Recipient: "Unknown",
				Subject:   "No Subject",
			},
			Entry: models.PrivilegeLogEntry{
				EmailID:      43,
				IsPrivileged: false,
			},
		},
	}}

	svc := NewExportService(ExportWithStore(store))

	var buf bytes.Buffer
	if err := svc.WriteCSV(context.Background(), userID, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(records))
	}

	privileged := records[1]
	if privileged[0] != "CTRL000042" {
		t.Errorf("control number: got %q, want CTRL000042", privileged[0])
	}
	if privileged[1] != "2024-03-10" {
		t.Errorf("date column: got %q, want 2024-03-10", privileged[1])
	}
	if privileged[4] != "Attorney-Client" {
		t.Errorf("privilege type column: got %q", privileged[4])
	}
	if privileged[5] == "" {
		t.Error("expected description for privileged row")
	}

	plain := records[2]
	if plain[0] != "CTRL000043" {
		t.Errorf("control number: got %q, want CTRL000043", plain[0])
	}
	if plain[1] != "" {
		t.Errorf("missing date must render empty, got %q", plain[1])
	}
	if plain[4] != "Not Privileged" {
		t.Errorf("non-privileged rows must render the literal, got %q", plain[4])
	}
	if plain[5] != "" {
		t.Errorf("missing description must render empty, got %q", plain[5])
	}
}

func TestExportScopedToOwner(t *testing.T) {
	t.Parallel()

	ownerA := uuid.New()
	ownerB := uuid.New()
	store := &fakeStore{pairs: []repository.EmailWithEntry{
		{
			Email: models.Email{ID: 1, UserID: ownerA, Sender: "a@example.com", Recipient: "x@example.com"},
			Entry: models.PrivilegeLogEntry{EmailID: 1},
		},
		{
			Email: models.Email{ID: 2, UserID: ownerB, Sender: "b@example.com", Recipient: "y@example.com"},
			Entry: models.PrivilegeLogEntry{EmailID: 2},
		},
	}}

	svc := NewExportService(ExportWithStore(store))

	var buf bytes.Buffer
	if err := svc.WriteCSV(context.Background(), ownerA, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "a@example.com") {
		t.Error("owner A's row missing from export")
	}
	if strings.Contains(out, "b@example.com") {
		t.Error("owner B's row must not appear in owner A's export")
	}
}

func TestControlNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   int64
		want string
	}{
		{42, "CTRL000042"},
		{1, "CTRL000001"},
		{123456, "CTRL123456"},
		{1234567, "CTRL1234567"},
	}
	for _, tt := range tests {
		if got := ControlNumber(tt.id); got != tt.want {
			t.Errorf("ControlNumber(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
