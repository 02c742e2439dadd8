package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"privilog-backend/extraction"
	"privilog-backend/models"
	"privilog-backend/oracle"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults substituted when neither extraction nor the caller supplied
// a value. Export formatting assumes these fields are never empty.
const (
	defaultSender    = "Unknown"
	defaultRecipient = "Unknown"
	defaultSubject   = "No Subject"
)

var ErrMissingText = errors.New("email text is required")

// EmailStore persists an email together with its privilege log entry
// as one atomic unit
type EmailStore interface {
	CreateWithEntry(ctx context.Context, email *models.Email, entry *models.PrivilegeLogEntry) error
}

// AnalysisService runs the privilege analysis pipeline: deterministic
// metadata extraction, classification, and for privileged emails the
// description and redaction passes, followed by atomic persistence.
type AnalysisService struct {
	store  EmailStore
	oracle oracle.Client
	logger *zap.Logger
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithStore sets the email store
func AnalysisWithStore(store EmailStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// AnalysisWithOracle sets the reasoning oracle client
func AnalysisWithOracle(client oracle.Client) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.oracle = client
	}
}

// AnalysisWithLogger sets the logger
func AnalysisWithLogger(logger *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MetadataOverrides carries caller-supplied header values. A non-empty
// field replaces the extracted value outright; there is no sub-field
// merging.
type MetadataOverrides struct {
	Date      string
	Sender    string
	Recipient string
	Subject   string
}

// AnalyzeRequest represents one analysis unit of work
type AnalyzeRequest struct {
	RawText   string
	Overrides MetadataOverrides
	UserID    uuid.UUID
}

// AnalyzeResult is the merged outcome of a successful pipeline run
type AnalyzeResult struct {
	EmailID        int64               `json:"email_id"`
	Metadata       extraction.Metadata `json:"metadata"`
	IsPrivileged   bool                `json:"is_privileged"`
	PrivilegeType  string              `json:"privilege_type,omitempty"`
	LogDescription string              `json:"log_description,omitempty"`
	Reasoning      string              `json:"reasoning,omitempty"`
	RedactedText   []string            `json:"redacted_text,omitempty"`
}

// Analyze runs the full pipeline for one email. On any oracle or
// storage failure nothing is persisted and the error propagates; a
// failed classification is never reported as "not privileged".
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if s.store == nil {
		return nil, errors.New("email store not set")
	}
	if s.oracle == nil {
		return nil, errors.New("oracle client not set")
	}
	if req.RawText == "" {
		return nil, ErrMissingText
	}

	// Deterministic extraction, then caller overrides field by field.
	metadata := extraction.Extract(req.RawText)
	applyOverrides(metadata, req.Overrides)

	sender := valueOr(metadata[extraction.FieldFrom], defaultSender)
	recipient := valueOr(metadata[extraction.FieldTo], defaultRecipient)
	subject := valueOr(metadata[extraction.FieldSubject], defaultSubject)

	classification, err := s.oracle.Classify(ctx, sender, recipient, subject, req.RawText)
	if err != nil {
		s.logger.Error("classification failed",
			zap.String("sender", sender),
			zap.Error(err))
		return nil, err
	}

	var (
		description *oracle.Description
		redaction   *oracle.Redaction
	)

	// Describe and Redact have no data dependency on each other, so
	// they run concurrently; both must succeed before anything is
	// persisted.
	ops := followUpOps(classification)
	if len(ops) > 0 {
		var wg sync.WaitGroup
		opErrs := make([]error, len(ops))
		for i, op := range ops {
			wg.Add(1)
			go func(i int, op string) {
				defer wg.Done()
				switch op {
				case oracle.OpDescribe:
					d, err := s.oracle.Describe(ctx, classification.Reasoning, req.RawText)
					if err != nil {
						opErrs[i] = err
						return
					}
					description = d
				case oracle.OpRedact:
					r, err := s.oracle.Redact(ctx, req.RawText)
					if err != nil {
						opErrs[i] = err
						return
					}
					redaction = r
				}
			}(i, op)
		}
		wg.Wait()

		for _, opErr := range opErrs {
			if opErr != nil {
				s.logger.Error("privileged follow-up failed", zap.Error(opErr))
				return nil, opErr
			}
		}
	}

	email := &models.Email{
		UserID:     req.UserID,
		Sender:     sender,
		Recipient:  recipient,
		Subject:    subject,
		Body:       req.RawText,
		ReceivedAt: parseReceivedDate(metadata[extraction.FieldDate]),
	}

	entry := &models.PrivilegeLogEntry{
		IsPrivileged: classification.IsPrivileged,
	}
	if classification.IsPrivileged {
		entry.PrivilegeType = &classification.PrivilegeType
		entry.Reasoning = &classification.Reasoning
		if description.LogDescription != "" {
			entry.LogDescription = &description.LogDescription
		}
		if len(redaction.Items) > 0 {
			entry.RedactedText = models.RedactionList(redaction.Items)
		}
	}

	if err := s.store.CreateWithEntry(ctx, email, entry); err != nil {
		s.logger.Error("failed to persist analysis result", zap.Error(err))
		return nil, err
	}

	s.logger.Info("email analyzed",
		zap.Int64("email_id", email.ID),
		zap.Bool("is_privileged", classification.IsPrivileged),
		zap.String("privilege_type", classification.PrivilegeType))

	result := &AnalyzeResult{
		EmailID:       email.ID,
		Metadata:      metadata,
		IsPrivileged:  classification.IsPrivileged,
		PrivilegeType: classification.PrivilegeType,
		Reasoning:     classification.Reasoning,
	}
	if description != nil {
		result.LogDescription = description.LogDescription
	}
	if redaction != nil {
		result.RedactedText = redaction.Items
	}

	return result, nil
}

// followUpOps is the decision function for the post-classification
// branch: it maps a classification onto the further oracle calls that
// must all succeed before persistence. Non-privileged emails need
// none.
func followUpOps(c *oracle.Classification) []string {
	if !c.IsPrivileged {
		return nil
	}
	return []string{oracle.OpDescribe, oracle.OpRedact}
}

// applyOverrides replaces extracted values with caller-supplied ones.
// Empty override fields leave the extracted value untouched.
func applyOverrides(metadata extraction.Metadata, o MetadataOverrides) {
	if o.Date != "" {
		metadata[extraction.FieldDate] = o.Date
	}
	if o.Sender != "" {
		metadata[extraction.FieldFrom] = o.Sender
	}
	if o.Recipient != "" {
		metadata[extraction.FieldTo] = o.Recipient
	}
	if o.Subject != "" {
		metadata[extraction.FieldSubject] = o.Subject
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

var receivedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"01/02/2006",
}

// parseReceivedDate attempts the common email date spellings. An
// unparseable or missing value yields nil so the export renders an
// empty date rather than a fabricated one.
func parseReceivedDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range receivedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
