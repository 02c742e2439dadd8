package repository

import (
	"context"
	"fmt"

	"privilog-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmailWithEntry pairs an email with its privilege log entry
type EmailWithEntry struct {
	Email models.Email
	Entry models.PrivilegeLogEntry
}

// EmailRepository handles database operations for emails and their
// privilege log entries
type EmailRepository struct {
	db *pgxpool.Pool
}

// NewEmailRepository creates a new email repository
func NewEmailRepository(db *pgxpool.Pool) *EmailRepository {
	return &EmailRepository{db: db}
}

// CreateWithEntry inserts an email and its privilege log entry in a
// single transaction. The email's assigned id is known before the
// entry insert runs, and a failure on either insert leaves no rows
// behind.
func (r *EmailRepository) CreateWithEntry(ctx context.Context, email *models.Email, entry *models.PrivilegeLogEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	emailQuery := `
		INSERT INTO emails (
			user_id, sender, recipient, subject, body, received_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = tx.QueryRow(
		ctx, emailQuery,
		email.UserID,
		email.Sender,
		email.Recipient,
		email.Subject,
		email.Body,
		email.ReceivedAt,
	).Scan(&email.ID, &email.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}

	entry.EmailID = email.ID

	entryQuery := `
		INSERT INTO privilege_logs (
			email_id, is_privileged, privilege_type, log_description, reasoning, redacted_text
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = tx.QueryRow(
		ctx, entryQuery,
		entry.EmailID,
		entry.IsPrivileged,
		entry.PrivilegeType,
		entry.LogDescription,
		entry.Reasoning,
		entry.RedactedText,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert privilege log entry: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an email by ID, scoped to its owner. Rows owned
// by other users are indistinguishable from missing rows.
func (r *EmailRepository) GetByID(ctx context.Context, id int64, userID uuid.UUID) (*models.Email, error) {
	email := &models.Email{}
	query := `
		SELECT id, user_id, sender, recipient, subject, body, received_at, created_at
		FROM emails
		WHERE id = $1 AND user_id = $2`

	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&email.ID,
		&email.UserID,
		&email.Sender,
		&email.Recipient,
		&email.Subject,
		&email.Body,
		&email.ReceivedAt,
		&email.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return email, nil
}

// ListWithEntriesByUserID retrieves all email/entry pairs owned by a
// user in storage iteration order
func (r *EmailRepository) ListWithEntriesByUserID(ctx context.Context, userID uuid.UUID) ([]EmailWithEntry, error) {
	query := `
		SELECT
			e.id, e.user_id, e.sender, e.recipient, e.subject, e.body, e.received_at, e.created_at,
			l.id, l.email_id, l.is_privileged, l.privilege_type, l.log_description, l.reasoning, l.redacted_text, l.created_at
		FROM emails e
		JOIN privilege_logs l ON l.email_id = e.id
		WHERE e.user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []EmailWithEntry
	for rows.Next() {
		var p EmailWithEntry
		err := rows.Scan(
			&p.Email.ID,
			&p.Email.UserID,
			&p.Email.Sender,
			&p.Email.Recipient,
			&p.Email.Subject,
			&p.Email.Body,
			&p.Email.ReceivedAt,
			&p.Email.CreatedAt,
			&p.Entry.ID,
			&p.Entry.EmailID,
			&p.Entry.IsPrivileged,
			&p.Entry.PrivilegeType,
			&p.Entry.LogDescription,
			&p.Entry.Reasoning,
			&p.Entry.RedactedText,
			&p.Entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

// Delete deletes an email owned by the user; the privilege log entry
// goes with it via ON DELETE CASCADE
func (r *EmailRepository) Delete(ctx context.Context, id int64, userID uuid.UUID) error {
	query := `DELETE FROM emails WHERE id = $1 AND user_id = $2`
	_, err := r.db.Exec(ctx, query, id, userID)
	return err
}
