// Package observability provides the append-only JSONL event log that
// records store activity (task creation, status changes, migrations,
// parse failures) for external consumers.
package observability
