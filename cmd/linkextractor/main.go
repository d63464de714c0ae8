// Package main provides the entry point for the linkextractor CLI.
//
// linkextractor crawls a site during authorized reconnaissance, collects
// every hyperlink it can reach, and writes the result to a plain text
// file as the crawl progresses.
//
// Usage:
//
//	linkextractor extract example.com
//	linkextractor extract --use-proxy --only-this-domain example.com
//
// See --help for all available options.
package main

// main is the entry point for linkextractor.
func main() {
	Execute()
}
