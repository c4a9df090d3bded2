//go:build windows

package stderr

import (
	"io"
	"os"
)

// Messages is never written on Windows. It is closed by Stop.
var Messages = make(chan string)

// Start is a no-op on Windows.
func Start() error {
	return nil
}

// Original returns os.Stderr.
func Original() io.Writer {
	return os.Stderr
}

// Stop closes Messages.
func Stop() {
	close(Messages)
}
