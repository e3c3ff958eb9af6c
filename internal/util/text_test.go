package util

import "testing"

func TestSanitizePromptText(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "empty input",
			value: "",
			want:  "",
		},
		{
			name:  "plain text unchanged",
			value: "Deep learning improves accuracy.",
			want:  "Deep learning improves accuracy.",
		},
		{
			name:  "newlines and tabs collapsed",
			value: "line one\n\tline two\r\nline three",
			want:  "line one line two line three",
		},
		{
			name:  "control characters dropped",
			value: "before\x0cafter\x00end",
			want:  "beforeafterend",
		},
		{
			name:  "non-ascii dropped",
			value: "naïve approach – works",
			want:  "nave approach works",
		},
		{
			name:  "repeated spaces collapsed",
			value: "too    many     spaces",
			want:  "too many spaces",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizePromptText(tc.value); got != tc.want {
				t.Fatalf("SanitizePromptText(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}
