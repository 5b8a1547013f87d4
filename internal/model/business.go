package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// FollowUpStatus describes how a business record was finalized.
type FollowUpStatus string

const (
	// StatusPending is the status of a record that has not been finalized yet.
	StatusPending FollowUpStatus = ""

	// StatusNoWebsite means the directory listed no website, so no
	// follow-up fetch was issued.
	StatusNoWebsite FollowUpStatus = "no_website"

	// StatusFetched means the business website was fetched and scanned.
	StatusFetched FollowUpStatus = "fetched"

	// StatusFailed means the follow-up fetch failed. The record is still
	// emitted, with an empty phone set.
	StatusFailed FollowUpStatus = "failed"
)

// BusinessRecord represents one business discovered on a directory page.
//
// Optional fields are pointers: nil means the field was not present in the
// directory block. A nil Website means there is no site to follow.
//
// Design decision: We use a fixed-shape struct rather than a map because:
//  1. Every stage of the crawl agrees on the same fields
//  2. Absence (nil) and empty text ("") stay distinguishable
//  3. JSON and database encodings follow directly from the struct
type BusinessRecord struct {
	// Name is the business display name from the block heading.
	Name *string `json:"name"`

	// Industry is the label nested under the heading.
	Industry *string `json:"industry"`

	// Offer is the discount or offer text.
	Offer *string `json:"offer"`

	// Website is the raw href of the business site link.
	Website *string `json:"website"`

	// Phones holds the normalized phone numbers found on the website.
	// It is nil until the record is finalized.
	Phones PhoneSet `json:"phones"`

	// Status records how the record was finalized.
	Status FollowUpStatus `json:"status,omitempty"`

	// FollowUpError is the failure detail when Status is StatusFailed.
	FollowUpError string `json:"follow_up_error,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// deref returns the pointed-to string or "" for nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NameOrEmpty returns the name or "" when absent.
func (r BusinessRecord) NameOrEmpty() string { return deref(r.Name) }

// IndustryOrEmpty returns the industry or "" when absent.
func (r BusinessRecord) IndustryOrEmpty() string { return deref(r.Industry) }

// OfferOrEmpty returns the offer or "" when absent.
func (r BusinessRecord) OfferOrEmpty() string { return deref(r.Offer) }

// WebsiteOrEmpty returns the website or "" when absent.
func (r BusinessRecord) WebsiteOrEmpty() string { return deref(r.Website) }

// HasWebsite reports whether the record has a site to follow.
func (r BusinessRecord) HasWebsite() bool {
	return r.Website != nil
}

// Finalized reports whether the record has reached its terminal state.
func (r BusinessRecord) Finalized() bool {
	return r.Status != StatusPending && r.Phones != nil
}

// Finalize returns a copy of the record in its terminal state.
// The phone set is cloned so the emitted value shares no state with the caller.
func (r BusinessRecord) Finalize(status FollowUpStatus, phones PhoneSet, detail string) BusinessRecord {
	if phones == nil {
		phones = NewPhoneSet()
	}
	r.Phones = phones.Clone()
	r.Status = status
	r.FollowUpError = detail
	return r
}

// Key identifies the business across crawl runs.
// Directory listings have no stable ID, so the lower-cased name and website
// are used together.
func (r BusinessRecord) Key() string {
	return strings.ToLower(strings.TrimSpace(r.NameOrEmpty())) + "|" +
		strings.ToLower(strings.TrimSpace(r.WebsiteOrEmpty()))
}

// Fingerprint returns a SHA3-256 digest of the finalized fields.
// Two records with equal fingerprints carry identical data.
func (r BusinessRecord) Fingerprint() string {
	var sb strings.Builder
	for _, field := range []string{
		r.NameOrEmpty(),
		r.IndustryOrEmpty(),
		r.OfferOrEmpty(),
		r.WebsiteOrEmpty(),
		strings.Join(r.Phones.Sorted(), ","),
	} {
		sb.WriteString(field)
		sb.WriteByte(0)
	}
	sum := sha3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
