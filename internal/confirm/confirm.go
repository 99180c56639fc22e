// Package confirm asks the user a yes/no question before destructive work.
//
// A Confirmer resolves a Dialog to exactly one boolean. The terminal
// implementation renders a bubbletea Model; Line is a plain prompt for
// non-interactive input, and Static/Func let callers inject answers.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Severity selects the accent of the confirm button
type Severity int

const (
	SeverityDelete Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityNeutral
)

func (s Severity) String() string {
	switch s {
	case SeverityDelete:
		return "delete"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "neutral"
	}
}

// Dialog describes a single yes/no question
type Dialog struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	Severity     Severity
}

func (d Dialog) withDefaults() Dialog {
	if d.Title == "" {
		d.Title = "Confirm Action"
	}
	if d.Message == "" {
		d.Message = "Are you sure you want to proceed?"
	}
	if d.ConfirmLabel == "" {
		d.ConfirmLabel = "Confirm"
	}
	if d.CancelLabel == "" {
		d.CancelLabel = "Cancel"
	}
	return d
}

// Confirmer resolves a dialog to the user's choice. Implementations
// return false when ctx is done before the user answers.
type Confirmer interface {
	Confirm(ctx context.Context, d Dialog) bool
}

// Func adapts a function to Confirmer
type Func func(ctx context.Context, d Dialog) bool

func (f Func) Confirm(ctx context.Context, d Dialog) bool {
	return f(ctx, d)
}

// Static always answers the same
func Static(answer bool) Confirmer {
	return Func(func(context.Context, Dialog) bool { return answer })
}

// Terminal renders the dialog as an interactive bubbletea program on the
// alternate screen, where mouse coordinates match the dialog layout.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t Terminal) Confirm(ctx context.Context, d Dialog) bool {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(NewModel(d), opts...).Run()
	if err != nil {
		return false
	}
	m, ok := final.(Model)
	return ok && m.Result()
}

// Line asks on a single line. Enter alone confirms, as in the dialog.
type Line struct {
	In  io.Reader
	Out io.Writer
}

func (l Line) Confirm(ctx context.Context, d Dialog) bool {
	if ctx.Err() != nil {
		return false
	}
	d = d.withDefaults()

	out := l.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "%s\n%s\n%s? [Y/n]: ", d.Title, d.Message, d.ConfirmLabel)

	if l.In == nil {
		return false
	}
	line, err := bufio.NewReader(l.In).ReadString('\n')
	if err != nil && line == "" {
		// No answer at all
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes", strings.ToLower(d.ConfirmLabel):
		return true
	default:
		return false
	}
}

// Auto picks Terminal when in is a terminal, Line otherwise
func Auto(in *os.File, out io.Writer) Confirmer {
	if in == nil {
		return Line{Out: out}
	}
	if term.IsTerminal(int(in.Fd())) {
		return Terminal{In: in, Out: out}
	}
	return Line{In: in, Out: out}
}
