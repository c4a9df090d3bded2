//go:build !linux

package notify

import "github.com/charmbracelet/log"

// New returns a disabled notifier on non-Linux platforms.
func New(_ *log.Logger) Notifier {
	return Disabled()
}
