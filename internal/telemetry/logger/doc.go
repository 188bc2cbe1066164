// Package logger provides structured logging for dinekit.
//
// It wraps log/slog with JSON or text output, a process-wide dynamic
// level, and automatic redaction of credentials: attributes whose key
// names a secret (token, auth, password, ...) are replaced, and values
// that look like bearer credentials or JWTs are masked wherever they
// appear.
//
// Components take a *slog.Logger. The CLI builds one with Install, which
// also makes it slog's default, and changes the level at runtime with
// SetLevel when the config file is edited.
package logger
