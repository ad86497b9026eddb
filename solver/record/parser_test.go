package record

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Verdict
	}{
		{
			input: "[0] = [1]",
			expected: Verdict{
				Kind: Equal, Operator: OpEqual,
				Left: []string{"0"}, Right: []string{"1"},
			},
		},
		{
			input: "[0]=[2]",
			expected: Verdict{
				Kind: Equal, Operator: OpEqual,
				Left: []string{"0"}, Right: []string{"2"},
			},
		},
		{
			input: "[3] > [0]",
			expected: Verdict{
				Kind: Unequal, Operator: OpGreater,
				Left: []string{"3"}, Right: []string{"0"},
				Greater: []string{"3"}, Lesser: []string{"0"},
			},
		},
		{
			input: "[0,1,2] < [3,4,5]",
			expected: Verdict{
				Kind: Unequal, Operator: OpLess,
				Left: []string{"0", "1", "2"}, Right: []string{"3", "4", "5"},
				Greater: []string{"3", "4", "5"}, Lesser: []string{"0", "1", "2"},
			},
		},
		{
			input: "  [6, 7]>[8, 0]  ",
			expected: Verdict{
				Kind: Unequal, Operator: OpGreater,
				Left: []string{"6", "7"}, Right: []string{"8", "0"},
				Greater: []string{"6", "7"}, Lesser: []string{"8", "0"},
			},
		},
		{
			input:    "balanced: left = right",
			expected: Verdict{Kind: Equal},
		},
		{
			input:    "garbage",
			expected: Verdict{Kind: Malformed},
		},
		{
			input:    "[] > [1]",
			expected: Verdict{Kind: Malformed},
		},
		{
			input:    "[a] > [b]",
			expected: Verdict{Kind: Malformed},
		},
		{
			input:    "[1] > [2] extra",
			expected: Verdict{Kind: Malformed},
		},
		{
			input:    "[1] ? [2]",
			expected: Verdict{Kind: Malformed},
		},
	}

	for _, tt := range tests {
		tt.expected.Raw = tt.input
		got := Parse(tt.input)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Parse(%q)\ngot  %#v\nwant %#v", tt.input, got, tt.expected)
		}
	}
}

func TestIsUnequal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"[0]=[1]", false},
		{"[0] = [1]", false},
		{"=", false},
		{"[3] > [0]", true},
		{"[3] < [0]", true},
		{"", true},
		{"garbage", true},
	}
	for _, tt := range tests {
		if got := IsUnequal(tt.input); got != tt.want {
			t.Errorf("IsUnequal(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// Any record rendered in the equality format is classified Equal by both
// the classifier and the parser.
func TestEqualityRecordsAreEqual(t *testing.T) {
	for l := 0; l < 9; l++ {
		for r := 0; r < 9; r++ {
			if l == r {
				continue
			}
			rec := Format([]string{itoa(l)}, OpEqual, []string{itoa(r)})
			if IsUnequal(rec) {
				t.Errorf("IsUnequal(%q) = true", rec)
			}
			if k := Parse(rec).Kind; k != Equal {
				t.Errorf("Parse(%q).Kind = %v", rec, k)
			}
		}
	}
}

func TestExtractLesserCoin(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[3] > [5]", "5"},
		{"[3]>[0]", "0"},
		{"result: [12] >  [7] (left heavier)", "7"},
		{"garbage", "0"},
		{"[5] < [3]", "0"},
		{"[0,1] > [2,3]", "0"},
		{"", "0"},
	}
	for _, tt := range tests {
		if got := ExtractLesserCoin(tt.input); got != tt.want {
			t.Errorf("ExtractLesserCoin(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	rec := Format([]string{"0", "1", "2"}, OpLess, []string{"3", "4", "5"})
	if rec != "[0,1,2] < [3,4,5]" {
		t.Fatalf("Format = %q", rec)
	}
	v := Parse(rec)
	if v.Kind != Unequal || !reflect.DeepEqual(v.Lesser, []string{"0", "1", "2"}) {
		t.Errorf("Parse(%q) = %#v", rec, v)
	}
}

func itoa(i int) string {
	return string(rune('0' + i))
}
