// Package fileutil scans directories for workplan and blueprint documents,
// used by "workplan discover" to validate an entire directory tree in one
// pass instead of one file at a time.
package fileutil
