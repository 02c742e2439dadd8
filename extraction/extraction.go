// Package extraction pulls standard header fields out of free-text
// email content. It is deterministic and never fails: unrecognized
// input simply yields fewer keys, and callers substitute their own
// defaults for anything missing.
package extraction

import (
	"regexp"
	"strings"
)

// Metadata field keys.
const (
	FieldDate    = "Date"
	FieldFrom    = "From"
	FieldTo      = "To"
	FieldSubject = "Subject"
)

// Metadata maps recognized header fields to their raw string values
type Metadata map[string]string

var (
	datePattern    = regexp.MustCompile(`(?im)^(?:Date|Sent):[ \t]*(.*)$`)
	fromPattern    = regexp.MustCompile(`(?im)^(?:From|Sender):[ \t]*(.*)$`)
	toPattern      = regexp.MustCompile(`(?im)^(?:To|Recipient):[ \t]*(.*)$`)
	subjectPattern = regexp.MustCompile(`(?im)^(?:Subject|Re):[ \t]*(.*)$`)
)

// Extract scans text for Date, From, To and Subject header lines.
// Matching is case-insensitive and line-oriented; only the first
// occurrence of each field counts. Keys without a match are left
// unset.
func Extract(text string) Metadata {
	metadata := Metadata{}

	if m := datePattern.FindStringSubmatch(text); m != nil {
		metadata[FieldDate] = strings.TrimSpace(m[1])
	}
	if m := fromPattern.FindStringSubmatch(text); m != nil {
		metadata[FieldFrom] = strings.TrimSpace(m[1])
	}
	if m := toPattern.FindStringSubmatch(text); m != nil {
		metadata[FieldTo] = strings.TrimSpace(m[1])
	}
	if m := subjectPattern.FindStringSubmatch(text); m != nil {
		metadata[FieldSubject] = strings.TrimSpace(m[1])
	}

	return metadata
}
