// Package command defines the dinekit-cli command tree with urfave/cli/v2:
//
//   - root.go: App, global flags, config loading
//   - env.go: per-invocation resources (logger, metrics, store)
//   - store.go: encrypted store operations
//   - auth.go: session artifacts (token, profile, tenant)
//   - live.go: realtime watch and one-shot emits
//   - config.go, version.go: introspection
package command
