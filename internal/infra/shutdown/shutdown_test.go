package shutdown

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestHandler_Shutdown(t *testing.T) {
	h := NewHandler(time.Second, nil)

	var order []string
	h.OnShutdown("store", func(context.Context) error {
		order = append(order, "store")
		return nil
	})
	h.OnShutdown("realtime", func(context.Context) error {
		order = append(order, "realtime")
		return errors.New("close failed")
	})
	h.OnShutdown("metrics", func(context.Context) error {
		order = append(order, "metrics")
		return nil
	})

	err := h.Shutdown()
	if err == nil || !strings.Contains(err.Error(), "realtime: close failed") {
		t.Errorf("Shutdown() error = %v", err)
	}

	want := []string{"metrics", "realtime", "store"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after Shutdown")
	}

	if again := h.Shutdown(); again != err {
		t.Errorf("second Shutdown() = %v, want %v", again, err)
	}
	if len(order) != 3 {
		t.Errorf("hooks ran twice: %v", order)
	}
}

func TestHandler_TimeoutReachesHooks(t *testing.T) {
	h := NewHandler(10*time.Millisecond, nil)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err := h.Shutdown(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_Wait(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ran := make(chan struct{})
	h.OnShutdown("hook", func(context.Context) error {
		close(ran)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	select {
	case <-ran:
		t.Fatal("hook ran before the context was cancelled")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return")
	}
}

func TestContext_Signal(t *testing.T) {
	ctx, stop := Context(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Skipf("cannot signal self: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}
