// Package repl provides the interactive shell of dinekit-cli.
//
//   - repl.go: read loop and line splitting
//   - completer.go: command-path completion
//   - history.go: history persisted in the data directory
//
// Each line is handed to a Runner, which dinekit-cli implements by
// running the same command tree it uses for one-shot invocations.
package repl
