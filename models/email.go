package models

import (
	"time"

	"github.com/google/uuid"
)

// Email represents one submitted email document. The body is stored
// verbatim and never modified after creation; re-analysis of the same
// text inserts a new row rather than touching an existing one.
type Email struct {
	ID         int64      `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Sender     string     `json:"sender"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
