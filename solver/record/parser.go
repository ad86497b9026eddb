package record

import (
	"regexp"
	"strings"
	"unicode"
)

// Operator is the comparison sign between the two pans of a weighing record.
type Operator string

const (
	OpEqual   Operator = "="
	OpGreater Operator = ">"
	OpLess    Operator = "<"
)

// EqualityMarker is the substring that makes a record an equality record.
const EqualityMarker = "="

// FallbackCoin is returned by ExtractLesserCoin when the record has an unexpected shape.
const FallbackCoin = "0"

// Kind classifies a parsed weighing record.
type Kind int

const (
	Malformed Kind = iota
	Equal
	Unequal
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "Equal"
	case Unequal:
		return "Unequal"
	default:
		return "Malformed"
	}
}

// Verdict represents a weighing record parsed into its parts.
type Verdict struct {
	Kind     Kind
	Operator Operator // empty for an equality record without a recognizable shape
	Left     []string
	Right    []string
	Greater  []string // heavier pan, only for Unequal
	Lesser   []string // lighter pan, only for Unequal
	Raw      string
}

// Parse turns a rendered weighing record into a Verdict.
// It handles:
// - "[0] > [1]", "[0,1,2] < [3,4,5]", "[0] = [1]" with optional spaces
// - any other text containing "=" as an equality without pan contents
// Everything else is Malformed.
func Parse(input string) Verdict {
	v := Verdict{Raw: input}

	left, op, right, ok := split(strings.TrimSpace(input))
	if !ok {
		if strings.Contains(input, EqualityMarker) {
			v.Kind = Equal
		}
		return v
	}
	v.Left = left
	v.Right = right
	v.Operator = op

	switch op {
	case OpEqual:
		v.Kind = Equal
	case OpGreater:
		v.Kind = Unequal
		v.Greater, v.Lesser = left, right
	case OpLess:
		v.Kind = Unequal
		v.Greater, v.Lesser = right, left
	}
	return v
}

// split breaks "[a,b] op [c]" into its pans. Both pans must be non-empty.
func split(s string) ([]string, Operator, []string, bool) {
	left, rest, ok := pan(s)
	if !ok {
		return nil, "", nil, false
	}
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if rest == "" {
		return nil, "", nil, false
	}
	op := Operator(rest[:1])
	if op != OpEqual && op != OpGreater && op != OpLess {
		return nil, "", nil, false
	}
	right, rest, ok := pan(strings.TrimLeftFunc(rest[1:], unicode.IsSpace))
	if !ok || strings.TrimSpace(rest) != "" {
		return nil, "", nil, false
	}
	return left, op, right, true
}

// pan reads one bracketed list of coin identifiers from the start of s.
func pan(s string) ([]string, string, bool) {
	if !strings.HasPrefix(s, "[") {
		return nil, s, false
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return nil, s, false
	}
	coins := tokenize(s[1:end])
	if len(coins) == 0 {
		return nil, s, false
	}
	return coins, s[end+1:], true
}

// tokenize splits the pan contents by commas and spaces.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range input {
		switch {
		case r == ',' || unicode.IsSpace(r):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		case unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			return nil
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// IsUnequal reports whether the record shows an inequality, i.e. it does
// not contain the equality marker. It never inspects the pan contents.
func IsUnequal(record string) bool {
	return !strings.Contains(record, EqualityMarker)
}

var lesserRegex = regexp.MustCompile(`\[(\d+)\]\s*>\s*\[(\d+)\]`)

// ExtractLesserCoin returns y from a "[x] > [y]" record, or FallbackCoin when
// the record does not have that shape.
func ExtractLesserCoin(record string) string {
	m := lesserRegex.FindStringSubmatch(record)
	if m == nil {
		return FallbackCoin
	}
	return m[2]
}

// Format renders a weighing record the way the puzzle page does.
func Format(left []string, op Operator, right []string) string {
	return "[" + strings.Join(left, ",") + "] " + string(op) + " [" + strings.Join(right, ",") + "]"
}
