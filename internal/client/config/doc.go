// Package config defines the dinekit client configuration.
//
//   - spec.go: ClientConfig and its sections
//   - default.go: default values and per-user directories
//   - verify.go: validation after loading
//   - sanitize.go: masking for logs and `config show`
//
// Values are loaded through internal/infra/confloader.
package config
