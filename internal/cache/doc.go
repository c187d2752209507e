// Package cache provides a file-based cache for rendered configuration.
//
// Cache entries are keyed by a SHA-256 hash of the load invocation: the
// source list, merge method, options and output format. Each entry stores the
// rendered output along with a creation timestamp, a TTL (in seconds) and the
// files the load read, includes among them, with their size and modification
// time. An entry is served only while it is unexpired and every dependency
// is unchanged. Stale entries are skipped on read and removed during
// cache-clear operations.
//
// The default cache directory is $XDG_CACHE_HOME/strata (or the
// OS-appropriate equivalent). Output is redacted before it is stored when
// redaction is enabled.
package cache
