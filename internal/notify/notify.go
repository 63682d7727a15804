// Package notify delivers stash discovery messages to the user.
package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Title is shown on popup notifications.
const Title = "Stash Finder"

// Channel is a delivery destination.
type Channel int

const (
	Chat Channel = iota
	Popup
)

func (c Channel) String() string {
	switch c {
	case Chat:
		return "chat"
	case Popup:
		return "popup"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Notifier delivers a plain-text message to a channel.
type Notifier interface {
	Notify(ch Channel, msg string) error
}

// Func adapts a function to the Notifier interface.
type Func func(ch Channel, msg string) error

func (f Func) Notify(ch Channel, msg string) error { return f(ch, msg) }

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

// Console writes chat messages as prefixed lines and popups as a small
// framed box. ANSI colour is used only when the writer is a terminal and
// NO_COLOR is unset.
type Console struct {
	mu     sync.Mutex
	writer io.Writer
	color  bool
}

// NewConsole creates a Console notifier writing to w (os.Stdout when nil).
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{writer: w, color: colorEnabled(w)}
}

// Notify implements Notifier.
func (c *Console) Notify(ch Channel, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch ch {
	case Chat:
		_, err = fmt.Fprintf(c.writer, "%s %s\n", c.paint(colorCyan, "["+Title+"]"), msg)
	case Popup:
		_, err = io.WriteString(c.writer, c.popup(msg))
	default:
		err = fmt.Errorf("unsupported notification channel %v", ch)
	}
	return err
}

func (c *Console) popup(msg string) string {
	width := len(msg)
	if len(Title) > width {
		width = len(Title)
	}

	var sb strings.Builder
	sb.WriteString("┌" + strings.Repeat("─", width+2) + "┐\n")
	sb.WriteString("│ " + c.paint(colorBold, pad(Title, width)) + " │\n")
	sb.WriteString("│ " + pad(msg, width) + " │\n")
	sb.WriteString("└" + strings.Repeat("─", width+2) + "┘\n")
	return sb.String()
}

func (c *Console) paint(color, text string) string {
	if c.color {
		return color + text + colorReset
	}
	return text
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}
