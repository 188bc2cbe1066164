// Package confloader loads client configuration with koanf.
//
// Sources, lowest to highest priority:
//
//  1. Defaults already present in the target struct
//  2. A YAML file
//  3. DINEKIT_ environment variables
//  4. Explicit overrides (command-line flags)
//
// Environment names use a double underscore between levels and keep
// single underscores inside a key: DINEKIT_REALTIME__MAX_ATTEMPTS sets
// realtime.max_attempts.
//
// Watcher reports writes to a config file so long-running commands can
// re-apply settings such as the log level.
package confloader
