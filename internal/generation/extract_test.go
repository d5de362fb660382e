package generation

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			text: `{"name":"Ava"}`,
			want: `{"name":"Ava"}`,
		},
		{
			name: "markdown fenced",
			text: "```json\n{\"name\":\"Ava\"}\n```",
			want: `{"name":"Ava"}`,
		},
		{
			name: "prose wrapped",
			text: `Here is the persona: {"name":"Ava","age":34} Let me know if it fits.`,
			want: `{"name":"Ava","age":34}`,
		},
		{
			name: "nested objects",
			text: `{"a":{"b":{"c":1}},"d":2}`,
			want: `{"a":{"b":{"c":1}},"d":2}`,
		},
		{
			name: "braces inside strings",
			text: `{"bio":"loves {weird} stuff \" and quotes"}`,
			want: `{"bio":"loves {weird} stuff \" and quotes"}`,
		},
		{
			name:    "no object",
			text:    "I could not generate a persona.",
			wantErr: true,
		},
		{
			name:    "unterminated object",
			text:    `{"name":"Ava"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Fatalf("error = %v, want ErrNoJSON", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
			if !json.Valid(got) {
				t.Errorf("extracted text is not valid JSON: %q", got)
			}
		})
	}
}
