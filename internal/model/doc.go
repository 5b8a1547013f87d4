// Package model defines the core data structures used throughout doralscan.
//
// This package contains the following main types:
//   - BusinessRecord: One business discovered on a directory page
//   - PhoneSet: A set of normalized 10-digit phone numbers
//   - CrawlReport: The result of crawling one directory seed
//   - RunDiff: Differences between two crawl runs of the same seed
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, report, and database packages all need these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
