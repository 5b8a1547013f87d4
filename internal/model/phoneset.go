package model

import (
	"encoding/json"
	"slices"
)

// PhoneSet is a set of normalized phone numbers.
// Each member is a 10-digit string (area code + prefix + line number).
//
// Design decision: We use a map-backed set rather than a slice because:
//  1. The same number often appears several times on one page
//  2. Membership is the only property callers care about
//  3. Order is irrelevant; Sorted() gives a stable view for output
type PhoneSet map[string]struct{}

// NewPhoneSet creates a PhoneSet containing the given numbers.
func NewPhoneSet(numbers ...string) PhoneSet {
	s := make(PhoneSet, len(numbers))
	for _, n := range numbers {
		s.Add(n)
	}
	return s
}

// Add inserts a number into the set.
func (s PhoneSet) Add(number string) {
	s[number] = struct{}{}
}

// Contains reports whether the number is in the set.
func (s PhoneSet) Contains(number string) bool {
	_, ok := s[number]
	return ok
}

// Len returns the number of distinct phone numbers.
func (s PhoneSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s PhoneSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of the set.
func (s PhoneSet) Clone() PhoneSet {
	out := make(PhoneSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same numbers.
func (s PhoneSet) Equal(other PhoneSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted JSON array.
// An empty or nil set encodes as [] rather than null.
func (s PhoneSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of numbers into the set.
func (s *PhoneSet) UnmarshalJSON(data []byte) error {
	var numbers []string
	if err := json.Unmarshal(data, &numbers); err != nil {
		return err
	}
	*s = NewPhoneSet(numbers...)
	return nil
}
