// Package main provides the entry point for the doralscan CLI.
//
// doralscan crawls the City of Doral business directory, follows each
// listed business website and reports the phone numbers found there.
//
// Usage:
//
//	doralscan crawl
//	doralscan crawl <directory-url>...
//	doralscan history <directory-url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
