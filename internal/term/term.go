// Package term provides the small terminal-capability helpers the standalone
// command-line tools share: whether output is a TTY worth coloring, and how
// many rows/columns are available for layout.
package term

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsTerminal reports whether f is an interactive terminal worth gating
// ANSI/color rendering on.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Size returns the terminal's current (columns, rows), falling back to
// (80, 24) when the size can't be determined (not a terminal, or piped).
func Size(f *os.File) (cols, rows int) {
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}
