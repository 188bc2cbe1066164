// Package output renders command results for dinekit-cli.
//
// Results go through a Formatter chosen by the --output flag: an aligned
// table for people, JSON or YAML for scripts. Spinner shows progress while
// a command waits on the network.
package output
