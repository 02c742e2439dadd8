// Package oracle adapts the external reasoning service behind typed
// request/response operations. Every operation is a single blocking
// round trip; transport failures are retried a bounded number of
// times, while a response that does not match the expected schema
// fails immediately.
package oracle

import (
	"context"
	"fmt"
)

// Operation names carried by Error.
const (
	OpClassify = "classify"
	OpDescribe = "describe"
	OpRedact   = "redact"
)

// Classification is the structured verdict returned by Classify
type Classification struct {
	IsPrivileged  bool   `json:"is_privileged"`
	PrivilegeType string `json:"privilege_type,omitempty"`
	Reasoning     string `json:"reasoning"`
}

// Description is the safe log description returned by Describe
type Description struct {
	LogDescription string `json:"log_description"`
}

// Redaction is the ordered list of exact substrings returned by Redact
type Redaction struct {
	Items []string `json:"items"`
}

// Client exposes the three reasoning operations. Describe and Redact
// are only meaningful for emails Classify judged privileged; the
// orchestrator enforces that sequencing.
type Client interface {
	Classify(ctx context.Context, sender, recipient, subject, body string) (*Classification, error)
	Describe(ctx context.Context, reasoning, body string) (*Description, error)
	Redact(ctx context.Context, body string) (*Redaction, error)
}

// Error wraps an unrecoverable oracle failure with the operation that
// produced it. It covers both exhausted transport retries and schema
// validation failures.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
