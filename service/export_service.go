package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"privilog-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const controlNumberPrefix = "CTRL"

// Fixed column order of the exported privilege log.
var exportHeader = []string{"Control Number", "Date", "From", "To", "Privilege Type", "Description"}

// LogStore reads the stored email/entry pairs for one owner
type LogStore interface {
	ListWithEntriesByUserID(ctx context.Context, userID uuid.UUID) ([]repository.EmailWithEntry, error)
}

// ExportService renders a user's privilege log as CSV
type ExportService struct {
	store  LogStore
	logger *zap.Logger
}

// ExportServiceOption is a functional option for ExportService
type ExportServiceOption func(*ExportService)

// ExportWithStore sets the log store
func ExportWithStore(store LogStore) ExportServiceOption {
	return func(s *ExportService) {
		s.store = store
	}
}

// ExportWithLogger sets the logger
func ExportWithLogger(logger *zap.Logger) ExportServiceOption {
	return func(s *ExportService) {
		s.logger = logger
	}
}

// NewExportService creates a new export service
func NewExportService(opts ...ExportServiceOption) *ExportService {
	s := &ExportService{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteCSV writes the privilege log for userID to w, one row per
// stored email/entry pair plus the header row. Rows follow storage
// iteration order. Only rows owned by userID are visible.
func (s *ExportService) WriteCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	if s.store == nil {
		return fmt.Errorf("log store not set")
	}

	pairs, err := s.store.ListWithEntriesByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to read privilege log", zap.Error(err))
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	for _, p := range pairs {
		row := []string{
			ControlNumber(p.Email.ID),
			formatExportDate(p.Email.ReceivedAt),
			p.Email.Sender,
			p.Email.Recipient,
			privilegeColumn(p.Entry.IsPrivileged, p.Entry.PrivilegeType),
			stringOrEmpty(p.Entry.LogDescription),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.logger.Info("privilege log exported",
		zap.String("user_id", userID.String()),
		zap.Int("rows", len(pairs)))
	return nil
}

// ControlNumber renders the synthetic document identifier for an
// email row, e.g. id 42 becomes CTRL000042
func ControlNumber(id int64) string {
	return fmt.Sprintf("%s%06d", controlNumberPrefix, id)
}

func formatExportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func privilegeColumn(isPrivileged bool, privilegeType *string) string {
	if isPrivileged && privilegeType != nil {
		return *privilegeType
	}
	return "Not Privileged"
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
