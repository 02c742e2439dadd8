package models

import (
	"time"

	"github.com/google/uuid"
)

// File records an uploaded email source file. The raw bytes live in
// blob storage at StoragePath; EmailID links the upload to the email
// row created when the analysis pipeline ran over its contents.
type File struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	EmailID     *int64    `json:"email_id,omitempty"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}
