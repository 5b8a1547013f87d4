package phone

import (
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the region used to validate numbers when none is given.
const DefaultRegion = "US"

// NANPValidator checks normalized numbers against the numbering plan
// metadata shipped with nyaruka/phonenumbers.
//
// Design decision: Validation is opt-in. The pattern alone accepts fictional
// exchanges such as 555, which directory sites use in examples and which
// callers may still want to see. Enabling the validator trades those for
// fewer false positives from digit runs that merely look like numbers.
type NANPValidator struct {
	region string
}

// NewNANPValidator creates a validator for the given region.
// An empty region means DefaultRegion.
func NewNANPValidator(region string) *NANPValidator {
	if region == "" {
		region = DefaultRegion
	}
	return &NANPValidator{region: region}
}

// Valid reports whether number is a possible and valid number in the region.
func (v *NANPValidator) Valid(number string) bool {
	parsed, err := phonenumbers.Parse(number, v.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(parsed) && phonenumbers.IsValidNumber(parsed)
}
