//go:build !windows

// Package stderr captures output that C audio libraries (ALSA, faad2) write
// straight to file descriptor 2, so it can go through the logger instead of
// interleaving with the interactive prompt.
package stderr

import (
	"bufio"
	"io"
	"os"
	"strings"
	"syscall"
)

// Messages receives captured lines. It is closed by Stop.
var Messages = make(chan string, 100)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
)

// Start begins capturing stderr output.
// Must be called early in main(), before any C library initialization.
// Returns an error if capture cannot be set up, but the program can continue
// without stderr capture (errors will just go to the original stderr).
func Start() error {
	if started {
		return nil
	}

	// Create a pipe
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	// Save original stderr file descriptor
	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	err = syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd()))
	if err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true

	// Start goroutine to read from pipe and send to channel
	go func() {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				select {
				case Messages <- line:
				default:
				}
			}
		}
	}()

	return nil
}

// Original returns a writer to the real stderr, bypassing capture. Before
// Start it is os.Stderr.
func Original() io.Writer {
	if !started {
		return os.Stderr
	}
	return originalWriter{}
}

type originalWriter struct{}

func (originalWriter) Write(p []byte) (int, error) {
	return syscall.Write(origStderr, p)
}

// Stop restores the original stderr. Should be called on program exit.
func Stop() {
	if !started {
		return
	}

	// Restore original stderr
	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)

	// Close pipe
	pipeWrite.Close()
	pipeRead.Close()

	close(Messages)
	started = false
}
