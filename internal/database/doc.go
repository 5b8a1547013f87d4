// Package database provides SQLite-based storage for doralscan run history.
//
// This package implements the CrawlDB, which stores:
//   - One row per crawl run of a directory seed, with its statistics
//   - The finalized business records of every run
//
// Stored runs let the history command list past crawls and report which
// businesses appeared, disappeared or changed phone numbers between the two
// latest runs of a seed.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a few thousand businesses per run
package database
