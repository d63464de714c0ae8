// Package status renders the live one-line progress display used in
// clean (non-verbose) mode. Verbose runs log structured events instead
// and skip the display entirely.
package status
