package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressStep represents a single step in a multi-step process
type ProgressStep struct {
	Message string
	Fn      func(ctx context.Context) error
}

// Progress prints status lines for CLI operations that wait on the network.
// A spinner is drawn only when the output is a terminal.
type Progress struct {
	out      io.Writer
	tty      bool
	interval time.Duration
}

// NewProgress creates a progress reporter writing to w
func NewProgress(w io.Writer) *Progress {
	return &Progress{out: w, tty: isTerminal(w), interval: 100 * time.Millisecond}
}

// Run runs fn while showing message. The context passed to fn is cancelled
// when ctx is.
func (p *Progress) Run(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	if !p.tty {
		LogInfo(message)
		return fn(ctx)
	}

	stop := make(chan struct{})
	spinnerDone := make(chan struct{})
	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_, _ = fmt.Fprintf(p.out, "\r%s %s", progressStyle.Render(spinnerChars[i%len(spinnerChars)]), message)
			}
		}
	}()

	err := fn(ctx)
	close(stop)
	<-spinnerDone

	if err != nil {
		_, _ = fmt.Fprintf(p.out, "\r%s %s\n", errorStyle.Render("✗"), message)
		return err
	}
	_, _ = fmt.Fprintf(p.out, "\r%s %s\n", successStyle.Render("✓"), message)
	return nil
}

// Steps runs each step in order, numbering them, and stops at the first error
func (p *Progress) Steps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := p.Run(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

// Success prints a success message
func (p *Progress) Success(message string) {
	p.line(successStyle, "✓", "", message)
}

// Warn prints a warning message
func (p *Progress) Warn(message string) {
	p.line(warningStyle, "⚠", "WARNING: ", message)
}

// Info prints an info message
func (p *Progress) Info(message string) {
	p.line(progressStyle, "ℹ", "", message)
}

// Error prints an error message
func (p *Progress) Error(message string) {
	p.line(errorStyle, "✗", "ERROR: ", message)
}

func (p *Progress) line(style lipgloss.Style, icon, plainPrefix, message string) {
	if p.tty {
		_, _ = fmt.Fprintf(p.out, "%s %s\n", style.Render(icon), message)
		return
	}
	_, _ = fmt.Fprintf(p.out, "%s%s\n", plainPrefix, message)
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
