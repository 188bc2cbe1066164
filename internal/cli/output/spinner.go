package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a message while a command waits.
type Spinner struct {
	w       io.Writer
	message string
	frames  []string
	every   time.Duration

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"|", "/", "-", "\\"},
		every:   100 * time.Millisecond,
		done:    make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tick := time.NewTicker(s.every)
		defer tick.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			select {
			case <-s.done:
				return
			case <-tick.C:
			}
		}
	}()
}

// stop ends the animation and waits for the last frame to be written.
func (s *Spinner) stop() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.stop()
	fmt.Fprint(s.w, "\r\033[K")
}

// Success ends the animation with a success line.
func (s *Spinner) Success(message string) {
	s.stop()
	fmt.Fprintf(s.w, "\r\033[Kok: %s\n", message)
}

// Fail ends the animation with a failure line.
func (s *Spinner) Fail(message string) {
	s.stop()
	fmt.Fprintf(s.w, "\r\033[Kfailed: %s\n", message)
}
