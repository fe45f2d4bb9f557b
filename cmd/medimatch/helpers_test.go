package main_test

import (
	"io"
	"time"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 10 * time.Millisecond
)

// newPipe returns a reader yielding one line per string sent on the
// returned channel. Closing the channel ends the input.
func newPipe() (io.Reader, chan<- string) {
	r, w := io.Pipe()
	lines := make(chan string)
	go func() {
		for line := range lines {
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return
			}
		}
		_ = w.Close()
	}()
	return r, lines
}
