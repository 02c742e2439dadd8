package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// PrivilegeType is the closed set of recognized privilege categories
type PrivilegeType string

const (
	PrivilegeAttorneyClient PrivilegeType = "Attorney-Client"
	PrivilegeWorkProduct    PrivilegeType = "Work Product"
)

// ValidPrivilegeType reports whether t is one of the recognized categories
func ValidPrivilegeType(t string) bool {
	switch PrivilegeType(t) {
	case PrivilegeAttorneyClient, PrivilegeWorkProduct:
		return true
	}
	return false
}

// RedactionList is the ordered list of exact substrings flagged for
// redaction, stored as JSONB
type RedactionList []string

// Value implements driver.Valuer for JSONB
func (r RedactionList) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *RedactionList) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*r = nil
		return nil
	}

	if len(bytes) == 0 {
		*r = nil
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// PrivilegeLogEntry is the derived verdict for exactly one Email.
// Entries are append-only: once written they are never mutated, and
// deleting the email cascades to its entry.
//
// When IsPrivileged is false, PrivilegeType, LogDescription and
// RedactedText are all nil. When true, PrivilegeType and Reasoning
// are always set; LogDescription and RedactedText reflect whatever
// the oracle returned, which may be empty.
type PrivilegeLogEntry struct {
	ID             int64         `json:"id"`
	EmailID        int64         `json:"email_id"`
	IsPrivileged   bool          `json:"is_privileged"`
	PrivilegeType  *string       `json:"privilege_type,omitempty"`
	LogDescription *string       `json:"log_description,omitempty"`
	Reasoning      *string       `json:"reasoning,omitempty"`
	RedactedText   RedactionList `json:"redacted_text,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
