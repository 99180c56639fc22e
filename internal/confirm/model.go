package confirm

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Accent colors per severity
var (
	DeleteAccent  = lipgloss.Color("#ef4444")
	WarningAccent = lipgloss.Color("#f59e0b")
	InfoAccent    = lipgloss.Color("#3b82f6")
	NeutralAccent = lipgloss.Color("#71717a")
	Muted         = lipgloss.Color("#a1a1aa")
	Surface       = lipgloss.Color("#3f3f46")
)

const buttonGap = "  "

// Styles holds the lipgloss styles of the dialog
type Styles struct {
	Box     lipgloss.Style
	Title   lipgloss.Style
	Message lipgloss.Style
	Button  lipgloss.Style
	Focused lipgloss.Style
}

// DefaultStyles returns the dialog styles
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(1, 2),
		Title:   lipgloss.NewStyle().Bold(true),
		Message: lipgloss.NewStyle().Foreground(Muted).Width(48),
		Button:  lipgloss.NewStyle().Padding(0, 2),
		Focused: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

func accent(s Severity) lipgloss.Color {
	switch s {
	case SeverityDelete:
		return DeleteAccent
	case SeverityWarning:
		return WarningAccent
	case SeverityInfo:
		return InfoAccent
	default:
		return NeutralAccent
	}
}

type button int

const (
	cancelButton button = iota
	confirmButton
)

// Model is the bubbletea component behind Terminal. It resolves once;
// after that View is empty and every message is ignored.
type Model struct {
	dialog   Dialog
	styles   Styles
	focus    button
	resolved bool
	result   bool
}

// NewModel creates a dialog model with the confirm button focused
func NewModel(d Dialog) Model {
	return Model{
		dialog: d.withDefaults(),
		styles: DefaultStyles(),
		focus:  confirmButton,
	}
}

// Resolved reports whether the user has answered
func (m Model) Resolved() bool { return m.resolved }

// Result is the answer; false until resolved
func (m Model) Result() bool { return m.resolved && m.result }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.resolved {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			return m.resolve(true)
		case tea.KeyEsc, tea.KeyCtrlC:
			return m.resolve(false)
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyLeft, tea.KeyRight:
			if m.focus == confirmButton {
				m.focus = cancelButton
			} else {
				m.focus = confirmButton
			}
		case tea.KeySpace:
			return m.resolve(m.focus == confirmButton)
		case tea.KeyRunes:
			switch strings.ToLower(string(msg.Runes)) {
			case "y":
				return m.resolve(true)
			case "n":
				return m.resolve(false)
			}
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		l := m.layout()
		switch {
		case l.confirm.contains(msg.X, msg.Y):
			return m.resolve(true)
		case l.cancel.contains(msg.X, msg.Y):
			return m.resolve(false)
		case !l.box.contains(msg.X, msg.Y):
			// background click
			return m.resolve(false)
		}
	}
	return m, nil
}

func (m Model) resolve(answer bool) (tea.Model, tea.Cmd) {
	m.resolved = true
	m.result = answer
	return m, tea.Quit
}

func (m Model) View() string {
	if m.resolved {
		return ""
	}
	return m.layout().view
}

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// layout renders the dialog and records where the box and buttons land,
// with the box drawn at the top-left corner of the alternate screen.
type layout struct {
	view    string
	box     rect
	cancel  rect
	confirm rect
}

func (m Model) layout() layout {
	s := m.styles
	d := m.dialog

	cancelStyle := s.Button.Foreground(Muted).Background(Surface)
	confirmStyle := s.Button.Foreground(lipgloss.Color("#ffffff")).Background(accent(d.Severity))
	if d.Severity == SeverityNeutral {
		confirmStyle = cancelStyle
	}
	if m.focus == confirmButton {
		confirmStyle = confirmStyle.Inherit(s.Focused)
	} else {
		cancelStyle = cancelStyle.Inherit(s.Focused)
	}

	title := s.Title.Render(d.Title)
	message := s.Message.Render(d.Message)
	cancel := cancelStyle.Render(d.CancelLabel)
	confirm := confirmStyle.Render(d.ConfirmLabel)
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, cancel, buttonGap, confirm)

	body := lipgloss.JoinVertical(lipgloss.Left, title, "", message, "", buttons)
	box := s.Box.Render(body)

	top := s.Box.GetBorderTopSize() + s.Box.GetPaddingTop()
	left := s.Box.GetBorderLeftSize() + s.Box.GetPaddingLeft()
	buttonsY := top + lipgloss.Height(title) + 1 + lipgloss.Height(message) + 1
	cancelW := lipgloss.Width(cancel)

	return layout{
		view: box,
		box:  rect{0, 0, lipgloss.Width(box), lipgloss.Height(box)},
		cancel: rect{
			x: left, y: buttonsY,
			w: cancelW, h: lipgloss.Height(cancel),
		},
		confirm: rect{
			x: left + cancelW + len(buttonGap), y: buttonsY,
			w: lipgloss.Width(confirm), h: lipgloss.Height(confirm),
		},
	}
}
