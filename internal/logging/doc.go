// Package logging provides structured JSON logging with file rotation for
// the thaitok sidecar. The serve command logs to ~/.thaitok/logs/ and tees
// to stderr; one-shot CLI commands log to stderr only unless --debug is set.
package logging
