// Package api serves specimen over HTTP with JSON responses: sample
// upload, download, deletion, search and tagging, project listing, and
// command chains.
package api
