// Package connmgr is the modal for picking, adding, and testing saved
// connections.
package connmgr

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/config"
	"github.com/sadopc/tablescope/internal/theme"
)

// State is the screen the manager shows.
type State int

const (
	StateList State = iota
	StateForm
	StateTesting
)

// TestTimeout bounds a connection test.
const TestTimeout = 10 * time.Second

// ConnectRequestMsg asks the app to open a connection.
type ConnectRequestMsg struct {
	Name   string
	Driver string
	DSN    string
}

// ConnectionsUpdatedMsg carries the saved connections after an edit so the
// app can persist them.
type ConnectionsUpdatedMsg struct {
	Connections []config.SavedConnection
}

type testResultMsg struct{ err error }

const (
	fieldName = iota
	fieldDriver
	fieldDSN
	fieldPassword
	fieldCount
)

// Model is the connection manager modal.
type Model struct {
	state       State
	connections []config.SavedConnection
	cursor      int
	visible     bool
	width       int
	height      int

	inputs    []textinput.Model
	formFocus int
	editing   int // index being edited, -1 for a new connection
	message   string
	isError   bool

	// open is replaced in tests.
	open func(ctx context.Context, driver, dsn string) (adapter.Store, error)
}

// New returns a hidden manager over connections.
func New(connections []config.SavedConnection) Model {
	m := Model{
		connections: connections,
		editing:     -1,
		open:        adapter.Open,
	}
	m.initForm()
	return m
}

func (m *Model) initForm() {
	labels := []string{"Name", "Driver", "DSN", "Password"}
	placeholders := []string{
		"prod",
		strings.Join(adapter.Names(), "|") + " (blank: detect)",
		"postgres://user@host:5432/db",
		"stored in the OS keyring",
	}
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		t := textinput.New()
		t.Prompt = fmt.Sprintf("%-9s", labels[i]+":")
		t.Placeholder = placeholders[i]
		t.Width = 44
		if i == fieldPassword {
			t.EchoMode = textinput.EchoPassword
		}
		m.inputs[i] = t
	}
}

// Update handles keys while visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	switch m.state {
	case StateList:
		return m.updateList(msg)
	case StateForm:
		return m.updateForm(msg)
	case StateTesting:
		return m.updateTesting(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.connections) {
			m.cursor++
		}
	case "enter":
		if m.cursor == len(m.connections) {
			return m, m.openForm(-1)
		}
		conn := m.connections[m.cursor]
		dsn, err := conn.ResolveDSN()
		if err != nil {
			m.setMessage(err.Error(), true)
			return m, nil
		}
		m.visible = false
		return m, func() tea.Msg {
			return ConnectRequestMsg{Name: conn.Name, Driver: conn.Driver, DSN: dsn}
		}
	case "n":
		return m, m.openForm(-1)
	case "e":
		if m.cursor < len(m.connections) {
			return m, m.openForm(m.cursor)
		}
	case "d":
		if m.cursor < len(m.connections) {
			if err := m.connections[m.cursor].ForgetPassword(); err != nil {
				m.setMessage(err.Error(), true)
			}
			m.connections = slices.Delete(slices.Clone(m.connections), m.cursor, m.cursor+1)
			if m.cursor > len(m.connections) {
				m.cursor = len(m.connections)
			}
			return m, m.updated()
		}
	case "esc", "q":
		m.visible = false
	}
	return m, nil
}

func (m *Model) openForm(index int) tea.Cmd {
	m.state = StateForm
	m.editing = index
	m.formFocus = 0
	m.message = ""
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	if index >= 0 {
		conn := m.connections[index]
		m.inputs[fieldName].SetValue(conn.Name)
		m.inputs[fieldDriver].SetValue(conn.Driver)
		m.inputs[fieldDSN].SetValue(conn.DSN)
	}
	return m.inputs[0].Focus()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.state = StateList
			return m, nil
		case "tab", "down":
			return m, m.focusField((m.formFocus + 1) % fieldCount)
		case "shift+tab", "up":
			return m, m.focusField((m.formFocus + fieldCount - 1) % fieldCount)
		case "ctrl+s":
			return m.save()
		case "ctrl+t":
			driver, dsn, err := m.formTarget()
			if err != nil {
				m.setMessage(err.Error(), true)
				return m, nil
			}
			m.state = StateTesting
			return m, m.testConnection(driver, dsn)
		}
	}
	var cmd tea.Cmd
	m.inputs[m.formFocus], cmd = m.inputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.formFocus].Blur()
	m.formFocus = i
	return m.inputs[i].Focus()
}

// save validates the form and stores the connection. A typed password moves
// to the OS keyring and is stripped from the saved DSN.
func (m Model) save() (Model, tea.Cmd) {
	conn := config.SavedConnection{
		Name:   strings.TrimSpace(m.inputs[fieldName].Value()),
		Driver: strings.TrimSpace(m.inputs[fieldDriver].Value()),
		DSN:    strings.TrimSpace(m.inputs[fieldDSN].Value()),
	}
	if err := m.validate(conn); err != nil {
		m.setMessage(err.Error(), true)
		return m, nil
	}
	if m.editing >= 0 && m.connections[m.editing].PasswordInKeyring {
		conn.PasswordInKeyring = true
	}
	if pw := m.inputs[fieldPassword].Value(); pw != "" {
		if err := conn.StorePassword(pw); err != nil {
			m.setMessage(err.Error(), true)
			return m, nil
		}
	}

	conns := slices.Clone(m.connections)
	if m.editing >= 0 {
		conns[m.editing] = conn
	} else {
		conns = append(conns, conn)
		m.cursor = len(conns) - 1
	}
	m.connections = conns
	m.state = StateList
	m.setMessage(fmt.Sprintf("Saved %q", conn.Name), false)
	return m, m.updated()
}

func (m Model) validate(conn config.SavedConnection) error {
	if conn.Name == "" {
		return fmt.Errorf("name is required")
	}
	if conn.DSN == "" {
		return fmt.Errorf("DSN is required")
	}
	if conn.Driver != "" {
		if _, err := adapter.Lookup(conn.Driver); err != nil {
			return err
		}
	}
	for i, c := range m.connections {
		if i != m.editing && c.Name == conn.Name {
			return fmt.Errorf("a connection named %q already exists", conn.Name)
		}
	}
	return nil
}

// formTarget is the driver and full DSN the form describes.
func (m Model) formTarget() (string, string, error) {
	dsn := strings.TrimSpace(m.inputs[fieldDSN].Value())
	if dsn == "" {
		return "", "", fmt.Errorf("DSN is required")
	}
	if pw := m.inputs[fieldPassword].Value(); pw != "" {
		var err error
		if dsn, err = config.WithPassword(dsn, pw); err != nil {
			return "", "", err
		}
	} else if m.editing >= 0 && m.connections[m.editing].PasswordInKeyring {
		stored := m.connections[m.editing]
		stored.DSN = dsn
		var err error
		if dsn, err = stored.ResolveDSN(); err != nil {
			return "", "", err
		}
	}
	return strings.TrimSpace(m.inputs[fieldDriver].Value()), dsn, nil
}

func (m Model) updateTesting(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case testResultMsg:
		if msg.err != nil {
			m.setMessage("Connection failed: "+sanitizeError(msg.err.Error()), true)
		} else {
			m.setMessage("Connection successful", false)
		}
		m.state = StateForm
	case tea.KeyMsg:
		if msg.String() == "esc" {
			m.state = StateForm
		}
	}
	return m, nil
}

func (m Model) testConnection(driver, dsn string) tea.Cmd {
	open := m.open
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		store, err := open(ctx, driver, dsn)
		if err != nil {
			return testResultMsg{err: err}
		}
		defer store.Close()
		return testResultMsg{err: store.Ping(ctx)}
	}
}

func (m Model) updated() tea.Cmd {
	conns := slices.Clone(m.connections)
	return func() tea.Msg { return ConnectionsUpdatedMsg{Connections: conns} }
}

func (m *Model) setMessage(text string, isError bool) {
	m.message, m.isError = text, isError
}

// View renders the current screen.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	th := theme.Current
	switch m.state {
	case StateForm:
		return m.viewForm(th)
	case StateTesting:
		return th.DialogBorder.Render("\n  Testing connection...\n")
	default:
		return m.viewList(th)
	}
}

func (m Model) viewList(th *theme.Theme) string {
	var lines []string
	for i, conn := range m.connections {
		driver := conn.Driver
		if driver == "" {
			driver = adapter.DetectDriver(conn.DSN)
		}
		line := fmt.Sprintf("%s  %s", conn.Name, th.MutedText.Render(driver+"  "+conn.Display()))
		if conn.PasswordInKeyring {
			line += th.MutedText.Render("  [keyring]")
		}
		if i == m.cursor {
			lines = append(lines, th.SidebarSelected.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	if m.cursor == len(m.connections) {
		lines = append(lines, th.SidebarSelected.Render("> + New connection"))
	} else {
		lines = append(lines, "  + New connection")
	}

	parts := []string{th.DialogTitle.Render("  Connections  "), "", strings.Join(lines, "\n")}
	if m.message != "" {
		parts = append(parts, "", m.messageView(th))
	}
	parts = append(parts, "", th.MutedText.Render("  enter:connect  n:new  e:edit  d:delete  esc:close"))
	return th.DialogBorder.Width(m.dialogWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewForm(th *theme.Theme) string {
	title := "  New Connection  "
	if m.editing >= 0 {
		title = "  Edit Connection  "
	}
	lines := []string{th.DialogTitle.Render(title), ""}
	for i := range m.inputs {
		lines = append(lines, "  "+m.inputs[i].View())
	}
	if m.message != "" {
		lines = append(lines, "", m.messageView(th))
	}
	lines = append(lines, "", th.MutedText.Render("  ctrl+s:save  ctrl+t:test  esc:back"))
	return th.DialogBorder.Width(m.dialogWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) messageView(th *theme.Theme) string {
	if m.isError {
		return th.ErrorText.Render("  " + m.message)
	}
	return th.SuccessText.Render("  " + m.message)
}

func (m Model) dialogWidth() int {
	w := 72
	if m.width > 0 && w > m.width-4 {
		w = m.width - 4
	}
	return w
}

// Show opens the list screen.
func (m *Model) Show() {
	m.visible = true
	m.state = StateList
	m.cursor = 0
	m.message = ""
}

func (m *Model) Hide() { m.visible = false }

func (m Model) Visible() bool { return m.visible }

func (m Model) State() State { return m.state }

func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

// Connections returns the saved connections.
func (m Model) Connections() []config.SavedConnection { return m.connections }

// SetConnections replaces the saved connections.
func (m *Model) SetConnections(conns []config.SavedConnection) { m.connections = conns }

// sanitizeError masks passwords in any DSN quoted by a driver error.
func sanitizeError(msg string) string {
	fields := strings.Fields(msg)
	for i, f := range fields {
		trimmed := strings.Trim(f, `"'`)
		if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "@tcp(") {
			fields[i] = strings.Replace(f, trimmed, config.Redact(trimmed), 1)
		}
	}
	return strings.Join(fields, " ")
}
