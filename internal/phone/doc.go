// Package phone finds and normalizes North American phone numbers in page text.
//
// # Matching
//
// A number is an optional country code ("1", "+1", "+01") followed by a
// 3-digit area code (optionally parenthesized), a 3-digit prefix and a
// 4-digit line number. Each segment may be separated by whitespace, a dot
// or a hyphen.
//
// A match must not touch a digit or a decimal point on either side, so
// numbers buried in tracking IDs, order numbers or decimals are ignored.
// Go's regexp package has no lookaround, so that boundary is enforced by the
// scan loop in Extractor.Extract rather than by the pattern itself.
//
// # Normalization
//
// Every match is reduced to its 10 significant digits; the country code and
// all separators are dropped. Results are collected in a model.PhoneSet.
package phone
