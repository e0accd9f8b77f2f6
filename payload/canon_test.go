package payload

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalizeBasic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "simple sentence",
			input: "Hello, World!",
			want:  []Token{{Text: "hello", Idx: 0}, {Text: "world", Idx: 7}},
		},
		{
			name:  "number words",
			input: "I have twenty three apples",
			want: []Token{
				{Text: "i", Idx: 0}, {Text: "have", Idx: 2}, {Text: "20", Idx: 7},
				{Text: "3", Idx: 14}, {Text: "apples", Idx: 20},
			},
		},
		{
			name:  "ordinal words",
			input: "the third and eleventh entries",
			want: []Token{
				{Text: "the", Idx: 0}, {Text: "3", Idx: 4}, {Text: "and", Idx: 10},
				{Text: "11", Idx: 14}, {Text: "entries", Idx: 23},
			},
		},
		{
			name:  "dashes become spaces",
			input: "well-known e–m—dash",
			want: []Token{
				{Text: "well", Idx: 0}, {Text: "known", Idx: 5}, {Text: "e", Idx: 11},
				{Text: "m", Idx: 13}, {Text: "dash", Idx: 15},
			},
		},
		{
			name:  "empty after stripping",
			input: "--- ...",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Canonicalize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestNumberWordToDigits(t *testing.T) {
	if got := numberWordToDigits("seventeen"); got != "17" {
		t.Errorf("numberWordToDigits(seventeen) = %q, want 17", got)
	}
	if got := numberWordToDigits("apples"); got != "apples" {
		t.Errorf("numberWordToDigits(apples) = %q, want unchanged", got)
	}
}
