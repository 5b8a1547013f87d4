package phone

import (
	"regexp"

	"github.com/nao1215/doralscan/internal/model"
)

// phonePattern matches one candidate number followed by its right boundary.
//
// Group 1 spans the number itself; groups 2-4 capture area code, prefix and
// line number. The trailing (?:[^\d.]|$) consumes the character after the
// number so a candidate touching a digit or dot on the right never matches.
var phonePattern = regexp.MustCompile(
	`((?:\+?0?1[\s.\-]?)?\(?(\d{3})\)?[\s.\-]?(\d{3})[\s.\-]?(\d{4}))(?:[^\d.]|$)`,
)

// Validator decides whether a normalized 10-digit number should be kept.
type Validator interface {
	Valid(number string) bool
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(number string) bool

// Valid calls f(number).
func (f ValidatorFunc) Valid(number string) bool {
	return f(number)
}

// Extractor finds phone numbers in text.
// An Extractor is safe for concurrent use; the pattern is compiled once at
// package initialization and shared by every instance.
type Extractor struct {
	// validator optionally filters normalized numbers. Nil keeps all matches.
	validator Validator
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithValidator drops numbers the validator rejects.
func WithValidator(v Validator) Option {
	return func(e *Extractor) {
		e.validator = v
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the set of normalized phone numbers found in text.
// Text with no matches yields an empty, non-nil set.
func (e *Extractor) Extract(text string) model.PhoneSet {
	phones := model.NewPhoneSet()

	for _, m := range findAll(text) {
		number := text[m[4]:m[5]] + text[m[6]:m[7]] + text[m[8]:m[9]]
		if e.validator != nil && !e.validator.Valid(number) {
			continue
		}
		phones.Add(number)
	}

	return phones
}

// Normalize returns the 10-digit form of a single formatted number.
// It reports false if s is not exactly one phone number.
func Normalize(s string) (string, bool) {
	matches := findAll(s)
	if len(matches) != 1 {
		return "", false
	}
	m := matches[0]
	if m[2] != 0 || m[3] != len(s) {
		return "", false
	}
	return s[m[4]:m[5]] + s[m[6]:m[7]] + s[m[8]:m[9]], true
}

// findAll returns submatch indexes, relative to text, for every number that
// satisfies both boundary rules.
//
// The left boundary is checked against the byte before the number. When it
// fails, the scan restarts one byte after the rejected start, which is where
// a backtracking engine would try next. After an accepted match the scan
// resumes at the end of the number, not after the consumed boundary byte, so
// a "(" or "+" right after one number can still open the next.
func findAll(text string) [][]int {
	var out [][]int

	pos := 0
	for pos < len(text) {
		loc := phonePattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}

		start, end := loc[2], loc[3]
		if start > 0 && isBoundaryByte(text[start-1]) {
			pos = start + 1
			continue
		}

		out = append(out, loc)
		pos = end
	}

	return out
}

// isBoundaryByte reports whether b may not sit next to a phone number.
func isBoundaryByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}
