package oracle

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    *Classification
		wantErr bool
	}{
		{
			name:  "privileged attorney-client",
			input: `{"is_privileged": true, "privilege_type": "Attorney-Client", "reasoning": "advice sought from counsel"}`,
			want:  &Classification{IsPrivileged: true, PrivilegeType: "Attorney-Client", Reasoning: "advice sought from counsel"},
		},
		{
			name:  "privileged work product",
			input: `{"is_privileged": true, "privilege_type": "Work Product", "reasoning": "prepared for litigation"}`,
			want:  &Classification{IsPrivileged: true, PrivilegeType: "Work Product", Reasoning: "prepared for litigation"},
		},
		{
			name:  "not privileged",
			input: `{"is_privileged": false, "privilege_type": "", "reasoning": "routine business communication"}`,
			want:  &Classification{IsPrivileged: false, PrivilegeType: "", Reasoning: "routine business communication"},
		},
		{
			name:  "null-ish type normalizes to empty",
			input: `{"is_privileged": false, "privilege_type": "None", "reasoning": "no counsel involved"}`,
			want:  &Classification{IsPrivileged: false, PrivilegeType: "", Reasoning: "no counsel involved"},
		},
		{
			name:  "json wrapped in markdown fences",
			input: "```json\n{\"is_privileged\": false, \"privilege_type\": \"\", \"reasoning\": \"ok\"}\n```",
			want:  &Classification{IsPrivileged: false, PrivilegeType: "", Reasoning: "ok"},
		},
		{
			name:    "missing is_privileged",
			input:   `{"privilege_type": "", "reasoning": "ok"}`,
			wantErr: true,
		},
		{
			name:    "missing reasoning",
			input:   `{"is_privileged": true, "privilege_type": "Attorney-Client"}`,
			wantErr: true,
		},
		{
			name:    "unknown privilege type",
			input:   `{"is_privileged": true, "privilege_type": "Executive", "reasoning": "ok"}`,
			wantErr: true,
		},
		{
			name:    "type set on non-privileged result",
			input:   `{"is_privileged": false, "privilege_type": "Attorney-Client", "reasoning": "ok"}`,
			wantErr: true,
		},
		{
			name:    "not json at all",
			input:   "the email is privileged",
			wantErr: true,
		},
		{
			name:    "truncated json",
			input:   `{"is_privileged": true, "reaso`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseClassification(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != *tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDescription(t *testing.T) {
	t.Parallel()

	got, err := parseDescription(`{"log_description": "Confidential communication regarding contractual liability."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LogDescription != "Confidential communication regarding contractual liability." {
		t.Errorf("unexpected description %q", got.LogDescription)
	}

	// Empty descriptions are accepted; the oracle may decline to write one.
	got, err = parseDescription(`{"log_description": ""}`)
	if err != nil {
		t.Fatalf("unexpected error for empty description: %v", err)
	}
	if got.LogDescription != "" {
		t.Errorf("expected empty description, got %q", got.LogDescription)
	}

	if _, err := parseDescription(`{"summary": "wrong field"}`); err == nil {
		t.Error("expected error for missing log_description")
	}
}

func TestParseRedaction(t *testing.T) {
	t.Parallel()

	got, err := parseRedaction(`{"items": ["We may get sued over the contract."]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0] != "We may get sued over the contract." {
		t.Errorf("unexpected items %v", got.Items)
	}

	got, err = parseRedaction(`{"items": []}`)
	if err != nil {
		t.Fatalf("unexpected error for empty list: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("expected empty list, got %v", got.Items)
	}

	if _, err := parseRedaction(`{}`); err == nil {
		t.Error("expected error for missing items")
	}
}

func TestErrorCarriesOperationAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &Error{Op: OpClassify, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to see the underlying cause")
	}

	var oe *Error
	if !errors.As(error(err), &oe) || oe.Op != OpClassify {
		t.Errorf("expected operation %q, got %+v", OpClassify, oe)
	}
}

func TestResponseText(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("{\"is_privileged\""), genai.Text(": false}")}}},
		},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"is_privileged": false}` {
		t.Errorf("text = %q", got)
	}

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{name: "nil content", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
		{name: "no parts", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := responseText(tt.resp); err == nil {
				t.Error("expected error for empty response")
			}
		})
	}
}
