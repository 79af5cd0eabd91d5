package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultTerminalWidth  = 30
	defaultTerminalHeight = 6
)

// TerminalSink paints a solid block in the terminal on every flip
type TerminalSink struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *lipgloss.Renderer
	width    int
	height   int
	clear    bool
	staged   RGB
	frames   int
}

// NewTerminalSink writes frames to out. With clear set, each frame homes the
// cursor and clears the screen first so the block repaints in place.
func NewTerminalSink(out io.Writer, width, height int, clear bool) *TerminalSink {
	if width <= 0 {
		width = defaultTerminalWidth
	}
	if height <= 0 {
		height = defaultTerminalHeight
	}
	return &TerminalSink{
		out:      out,
		renderer: lipgloss.NewRenderer(out),
		width:    width,
		height:   height,
		clear:    clear,
		staged:   Red,
	}
}

// SetColor implements Sink
func (t *TerminalSink) SetColor(c RGB) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = c.Clamp()
	return nil
}

// Flip implements Sink
func (t *TerminalSink) Flip() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	hex := t.staged.Hex()
	block := t.renderer.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color("#ffffff")).
		Width(t.width).
		Height(t.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(hex)

	prefix := ""
	if t.clear {
		prefix = "\x1b[H\x1b[2J"
	}
	if _, err := fmt.Fprintf(t.out, "%s%s\n", prefix, block); err != nil {
		return err
	}
	t.frames++
	return nil
}

// Frames returns how many flips were rendered
func (t *TerminalSink) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Close implements Sink
func (t *TerminalSink) Close() error {
	return nil
}
