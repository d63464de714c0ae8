// Package scope decides which discovered URLs are eligible for recursive
// crawling and which hosts are ignored outright.
//
// The classifier is built once at startup from the seed domain and the
// ignore list and is immutable afterwards, so it is safe for concurrent use
// by all workers without locking.
package scope
