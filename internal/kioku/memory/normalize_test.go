package memory

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "hello there",
			want: "hello there",
		},
		{
			name: "reasoning span stripped",
			in:   "<think>the user greeted me</think>\nHi! How are you?",
			want: "Hi! How are you?",
		},
		{
			name: "everything before closing marker discarded",
			in:   "noise <think>internal</think> kept part",
			want: "kept part",
		},
		{
			name: "unmatched open marker left alone",
			in:   "<think> no closing tag here",
			want: "<think> no closing tag here",
		},
		{
			name: "response prefix stripped",
			in:   "Response: the answer is 42",
			want: "the answer is 42",
		},
		{
			name: "reasoning span then response prefix",
			in:   "<think>hm</think>Response: fine",
			want: "fine",
		},
		{
			name: "leading dashes and newlines trimmed",
			in:   "--\n\n- actual text",
			want: "actual text",
		},
		{
			name: "only a reasoning span yields empty",
			in:   "<think>nothing else</think>",
			want: "",
		},
		{
			name: "whitespace trimmed",
			in:   "  padded  ",
			want: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
