package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// recorder is a Runner that records its calls.
type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) run(_ context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		calls int
	}{
		{"exit command", "exit\nstore list\n", 0},
		{"quit command", "quit\n", 0},
		{"EOF", "", 0},
		{"last line without newline", "store list", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := New(rec.run, WithIO(strings.NewReader(tt.input), &bytes.Buffer{}))
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() error = %v", err)
			}
			if len(rec.calls) != tt.calls {
				t.Errorf("calls = %v, want %d", rec.calls, tt.calls)
			}
		})
	}
}

func TestREPL_Run_Dispatch(t *testing.T) {
	rec := &recorder{}
	in := "\n  \nstore set cart 'two coffees'\nauth status\n"
	r := New(rec.run, WithIO(strings.NewReader(in), &bytes.Buffer{}))
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := [][]string{{"store", "set", "cart", "two coffees"}, {"auth", "status"}}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %q, want %q", rec.calls, want)
	}
	for i := range want {
		if strings.Join(rec.calls[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("call %d = %q, want %q", i, rec.calls[i], want[i])
		}
	}
}

func TestREPL_Run_ErrorsDoNotStop(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	out := &bytes.Buffer{}
	r := New(rec.run, WithIO(strings.NewReader("a\nb\n'oops\n"), out))
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(rec.calls))
	}
	if got := strings.Count(out.String(), "error:"); got != 3 {
		t.Errorf("printed %d errors, want 3:\n%s", got, out)
	}
}

func TestREPL_Builtins(t *testing.T) {
	rec := &recorder{}
	out := &bytes.Buffer{}
	r := New(rec.run,
		WithIO(strings.NewReader("store list\nhistory\ncomplete store g\n"), out),
		WithPrompt(""),
		WithHistory(NewHistory("")),
		WithCompleter(NewCompleter("store", "store get", "store set")),
	)
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("builtins reached the runner: %q", rec.calls)
	}
	if !strings.Contains(out.String(), "   1  store list") {
		t.Errorf("history output:\n%s", out)
	}
	if !strings.Contains(out.String(), "store get\n") || strings.Contains(out.String(), "store set\n") {
		t.Errorf("complete output:\n%s", out)
	}
}

func TestREPL_Run_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	r := New(rec.run, WithIO(strings.NewReader("store list\n"), &bytes.Buffer{}))
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Error("ran a command after cancellation")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"store list", []string{"store", "list"}, false},
		{"  a   b  ", []string{"a", "b"}, false},
		{`set k "a b"`, []string{"set", "k", "a b"}, false},
		{`set k 'say "hi"'`, []string{"set", "k", `say "hi"`}, false},
		{`set k a\ b`, []string{"set", "k", "a b"}, false},
		{`set k ''`, []string{"set", "k", ""}, false},
		{`set k "open`, nil, true},
		{`trailing\`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Split(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Split() error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}
