package repl

import (
	"sort"
	"strings"
)

// Completer suggests command paths.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the given command paths, such as
// "store" and "store get". The shell builtins are always included.
func NewCompleter(paths ...string) *Completer {
	cmds := append([]string{"exit", "quit", "history", "complete"}, paths...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the paths starting with prefix, in sorted order.
func (c *Completer) Complete(prefix string) []string {
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}
