package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// state represents the current phase of a command.
type state int

const (
	stateInit      state = iota
	stateSigningIn       // identity-proof exchange in progress
	stateWorking         // backend call in flight
	stateSuccess         // all done
	stateError           // fatal error
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

// statusLine is one row in the scrolling status log.
type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for the client's status panel. Command
// results print to stdout outside the TUI; this panel only narrates session
// and request progress on stderr.
type Model struct {
	state   state
	spinner spinner.Model
	width   int
	height  int

	working string // label of the call in flight
	errMsg  string

	// Scrolling status log shown below the main panel
	statusLines []statusLine
}

// Lipgloss styles — defined once at package level.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("35")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("35")).
			Padding(0, 2)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// NewModel creates the initial TUI model.
func NewModel() Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("35"))),
	)
	return Model{
		state:   stateInit,
		spinner: s,
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	// ── session / request flow messages ─────────────────────────────────────

	case MsgBanner:
		return m, nil

	case MsgTokenLoaded:
		m.addStatus(statusOK, "Found stored credential")
		return m, nil

	case MsgTokenAdopted:
		m.addStatus(statusOK, "Using pre-issued token from deep link")
		return m, nil

	case MsgNoStoredToken:
		m.addStatus(statusInfo, "No stored credential")
		return m, nil

	case MsgSigningIn:
		m.state = stateSigningIn
		m.addStatus(statusInfo, "Signing in with Telegram identity...")
		return m, nil

	case MsgSignedIn:
		m.addStatus(statusOK, "Signed in")
		return m, nil

	case MsgSigninFailed:
		m.addStatus(statusWarn, fmt.Sprintf("Could not sign in: %v", msg.Err))
		return m, nil

	case MsgTokenCleared:
		m.addStatus(statusInfo, "Local credential cleared")
		return m, nil

	case MsgSessionExpired:
		m.addStatus(
			statusWarn,
			fmt.Sprintf("Credential rejected (%d on %s)", msg.Status, msg.Path),
		)
		return m, nil

	case MsgRetrying:
		m.addStatus(statusInfo, "Retrying "+msg.Path+" with fresh credential")
		return m, nil

	case MsgWorking:
		m.state = stateWorking
		m.working = msg.Label
		return m, nil

	case MsgOK:
		m.addStatus(statusOK, msg.Label)
		return m, nil

	case MsgDone:
		m.state = stateSuccess
		return m, nil

	case MsgFatal:
		m.errMsg = msg.Err.Error()
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() tea.View {
	switch m.state {
	case stateSuccess:
		return tea.NewView(m.viewSuccess())
	case stateError:
		return tea.NewView(m.viewError())
	default:
		return tea.NewView(m.viewMain())
	}
}

// viewMain is shown during init, sign-in, and in-flight calls.
func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  tgfin  "))
	b.WriteString("\n\n")

	switch m.state {
	case stateSigningIn:
		b.WriteString(m.spinner.View())
		b.WriteString(" Signing in...\n")

	case stateWorking:
		b.WriteString(m.spinner.View())
		b.WriteString(" " + m.working + "...\n")

	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" Starting...\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewSuccess is shown after the command completed.
func (m Model) viewSuccess() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleOK.Render("  ✓ Done"))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewError is shown when a fatal error occurs.
func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleErr.Render("  ✗ Command failed"))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("  " + m.errMsg))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewStatusLog renders the scrolling status log.
func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// addStatus appends a line to the status log.
func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
}
