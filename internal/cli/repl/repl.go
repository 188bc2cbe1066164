package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Runner executes one parsed command line.
type Runner func(ctx context.Context, args []string) error

// ErrUnterminatedQuote is returned by Split for a dangling quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// REPL is the read-eval-print loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	run       Runner
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) { r.input, r.output = in, out }
}

// WithPrompt sets the prompt. Default: "dinekit> ".
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// WithCompleter enables the "complete PREFIX" builtin.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) { r.completer = c }
}

// WithHistory records lines in h and enables the "history" builtin.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// New creates a REPL that hands each line to run.
func New(run Runner, opts ...Option) *REPL {
	r := &REPL{
		input:  strings.NewReader(""),
		output: io.Discard,
		prompt: "dinekit> ",
		run:    run,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until exit, EOF or ctx is done. Command errors are
// printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line != "" {
			if done := r.handle(ctx, line); done {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}

// handle runs one line and reports whether the loop should end.
func (r *REPL) handle(ctx context.Context, line string) bool {
	if r.history != nil {
		r.history.Add(line)
	}

	args, err := Split(line)
	if err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	case "history":
		if r.history != nil {
			for i, e := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
			}
			return false
		}
	case "complete":
		if r.completer != nil {
			for _, s := range r.completer.Complete(strings.Join(args[1:], " ")) {
				fmt.Fprintln(r.output, s)
			}
			return false
		}
	}

	if err := r.run(ctx, args); err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
	}
	return false
}

// Split breaks a line into arguments. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func Split(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote, inWord = ch, true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
