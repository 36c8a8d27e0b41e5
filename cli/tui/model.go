package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mwantia/navigator"
	"github.com/mwantia/navigator/backend"
	command "github.com/mwantia/navigator/cmd"
	"github.com/mwantia/navigator/data"
)

// Mode represents the current interaction mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeCommand
	ModeInput
	ModeHelp
)

// InputType represents what kind of input we're collecting
type InputType int

const (
	InputNewDir InputType = iota
	InputRename
	InputDelete
	InputCommand
	InputLocation
	InputLoginUser
	InputLoginPassword
)

// Model is the state of the browser. The listing, location, status and
// backend are mirrored from session events; operations run as commands
// so that a blocking login never stalls the update loop.
type Model struct {
	adapter *SessionAdapter
	center  *command.Center
	theme   *Theme
	keys    KeyMap
	help    help.Model

	location    string
	previousDir string
	entries     []*Entry
	cursor      int
	offset      int

	status data.Status
	kind   backend.Kind
	server string

	width          int
	height         int
	showPreview    bool
	previewContent string
	previewError   error
	previewGen     int

	mode      Mode
	inputType InputType
	textInput textinput.Model
	loginUser string
	targets   []*Entry

	statusMsg  string
	errorMsg   string
	commandOut string

	clipboard string
}

func NewModel(adapter *SessionAdapter, center *command.Center) *Model {
	ti := textinput.New()
	ti.CharLimit = 1024

	return &Model{
		adapter:     adapter,
		center:      center,
		theme:       DefaultTheme(),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		showPreview: true,
		textInput:   ti,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.run("", func() error {
			return m.adapter.Navigate(m.adapter.start)
		}),
		textinput.Blink,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		return m, m.handleEvent(msg.Event)

	case opResultMsg:
		if msg.err != nil {
			m.errorMsg = Describe(msg.err)
			DebugLog("Operation failed: %v", msg.err)
		} else {
			m.errorMsg = ""
			if msg.status != "" {
				m.statusMsg = msg.status
			}
		}
		return m, nil

	case previewLoadedMsg:
		if msg.generation == m.previewGen {
			m.previewContent = msg.content
			m.previewError = msg.err
		} else {
			DebugLog("Ignoring stale preview (gen %d, current %d)", msg.generation, m.previewGen)
		}
		return m, nil

	case commandExecutedMsg:
		m.commandOut = strings.TrimRight(msg.output, "\n")
		if msg.err != nil {
			m.errorMsg = Describe(msg.err)
		} else {
			m.errorMsg = ""
			m.statusMsg = "Command executed"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.mode == ModeCommand || m.mode == ModeInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleEvent mirrors a session event into the model.
func (m *Model) handleEvent(event navigator.Event) tea.Cmd {
	DebugLog("Session event: %s", event.Type)

	switch event.Type {
	case navigator.EventLocationChanged:
		m.location = event.Location

	case navigator.EventEntriesReplaced:
		m.entries = newEntries(event.Entries, nil)
		m.positionCursor()
		return m.updatePreview()

	case navigator.EventSelectionChanged:
		for _, entry := range m.entries {
			entry.Marked = false
			for _, selected := range event.Selection {
				if selected == entry.source {
					entry.Marked = true
					break
				}
			}
		}

	case navigator.EventStatusChanged:
		m.status = event.Status

	case navigator.EventBackendChanged:
		m.kind = event.Kind
		m.server = event.Server

	case navigator.EventEntryRenamed:
		for _, entry := range m.entries {
			if entry.source == event.Entry {
				entry.Name = event.NewName
			}
		}
		m.statusMsg = fmt.Sprintf("Renamed %s to %s", event.OldName, event.NewName)

	case navigator.EventLoginRequired:
		m.statusMsg = fmt.Sprintf("Login required for %s", event.Server)
		m.startInput(InputLoginUser, "User for "+event.Server)
	}

	return nil
}

// positionCursor keeps the cursor in range, or places it on the
// directory we just left.
func (m *Model) positionCursor() {
	if m.previousDir != "" {
		for i, entry := range m.entries {
			if entry.Name == m.previousDir {
				m.cursor = i
				break
			}
		}
		m.previousDir = ""
	}

	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.moveCursor(0)
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeCommand, ModeInput:
		return m.handleInputMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	case ModeNormal:
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-10)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(10)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.offset = 0
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Bottom):
		if len(m.entries) > 0 {
			m.cursor = len(m.entries) - 1
		}
		m.moveCursor(0)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Enter):
		return m, m.openEntry()

	case key.Matches(msg, m.keys.Parent):
		return m, m.goParent()

	case key.Matches(msg, m.keys.Back):
		return m, m.run("", m.adapter.Back)

	case key.Matches(msg, m.keys.Forward):
		return m, m.run("", m.adapter.Forward)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("Reloaded", m.adapter.Reload)

	case key.Matches(msg, m.keys.GoTo):
		m.startInput(InputLocation, "Location")
		m.textInput.SetValue(m.location)
		return m, nil

	case key.Matches(msg, m.keys.TogglePreview):
		m.showPreview = !m.showPreview
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Select):
		if entry := m.currentEntry(); entry != nil {
			m.adapter.Toggle(entry)
			m.moveCursor(1)
		}
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.NewDir):
		m.startInput(InputNewDir, "New directory name")
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.targets = m.deleteTargets()
		if len(m.targets) == 1 {
			m.startInput(InputDelete, fmt.Sprintf("Delete %s? (y/n)", m.targets[0].Name))
		} else if len(m.targets) > 1 {
			m.startInput(InputDelete, fmt.Sprintf("Delete %d items? (y/n)", len(m.targets)))
		}
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		if entry := m.currentEntry(); entry != nil && entry.Type != data.FileTypeParent {
			m.startInput(InputRename, "New name")
			m.textInput.SetValue(entry.Name)
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if entry := m.currentEntry(); entry != nil {
			m.clipboard = entry.Path()
			m.statusMsg = fmt.Sprintf("Copied: %s", m.clipboard)
		}
		return m, nil

	case key.Matches(msg, m.keys.Terminal):
		return m, m.run("Terminal opened", m.adapter.Terminal)

	case key.Matches(msg, m.keys.Login):
		m.startInput(InputLoginUser, "User")
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.startInput(InputCommand, "command")
		return m, nil
	}

	return m, nil
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.cancelInput()
		return m, nil

	case tea.KeyEnter:
		return m, m.submitInput()
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit):
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) startInput(inputType InputType, prompt string) {
	m.mode = ModeInput
	if inputType == InputCommand {
		m.mode = ModeCommand
	}

	m.inputType = inputType
	m.textInput.Placeholder = prompt
	m.textInput.EchoMode = textinput.EchoNormal
	if inputType == InputLoginPassword {
		m.textInput.EchoMode = textinput.EchoPassword
	}
	m.textInput.SetValue("")
	m.textInput.Focus()
	m.errorMsg = ""
}

func (m *Model) cancelInput() {
	m.mode = ModeNormal
	m.textInput.Blur()
	m.textInput.SetValue("")
}

func (m *Model) submitInput() tea.Cmd {
	value := m.textInput.Value()
	if m.inputType != InputLoginPassword {
		value = strings.TrimSpace(value)
	}
	inputType := m.inputType
	m.cancelInput()

	if inputType == InputLoginPassword {
		user := m.loginUser
		m.loginUser = ""
		return m.run("Logged in", func() error {
			return m.adapter.Login(user, value)
		})
	}

	if value == "" {
		return nil
	}

	switch inputType {
	case InputNewDir:
		return m.run("Created "+value, func() error {
			return m.adapter.CreateDirectory(value)
		})

	case InputRename:
		entry := m.currentEntry()
		if entry == nil {
			return nil
		}
		return m.run("", func() error {
			return m.adapter.Rename(entry, value)
		})

	case InputDelete:
		targets := m.targets
		m.targets = nil
		if answer := strings.ToLower(value); answer != "y" && answer != "yes" {
			return nil
		}
		return func() tea.Msg {
			removed, err := m.adapter.Delete(targets)
			return opResultMsg{
				status: fmt.Sprintf("Removed %d of %d", removed, len(targets)),
				err:    err,
			}
		}

	case InputLocation:
		return m.run("", func() error {
			return m.adapter.Navigate(value)
		})

	case InputLoginUser:
		m.loginUser = value
		m.startInput(InputLoginPassword, "Password")
		return nil

	case InputCommand:
		return m.executeCommand(value)
	}

	return nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.entries) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}

	m.cursor = min(max(m.cursor+delta, 0), len(m.entries)-1)

	visibleLines := m.getVisibleLines()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visibleLines {
		m.offset = m.cursor - visibleLines + 1
	}
}

// getVisibleLines returns how many entries can be displayed
func (m *Model) getVisibleLines() int {
	reserved := 8
	if m.commandOut != "" {
		reserved += 7
	}
	return max(m.height-reserved, 5)
}

func (m *Model) currentEntry() *Entry {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return m.entries[m.cursor]
	}
	return nil
}

// deleteTargets returns the marked entries, or the entry under the cursor.
func (m *Model) deleteTargets() []*Entry {
	var targets []*Entry
	for _, entry := range m.entries {
		if entry.Marked {
			targets = append(targets, entry)
		}
	}
	if len(targets) > 0 {
		return targets
	}

	if entry := m.currentEntry(); entry != nil && entry.Type != data.FileTypeParent {
		return []*Entry{entry}
	}
	return nil
}

type eventMsg struct {
	navigator.Event
}

type opResultMsg struct {
	status string
	err    error
}

type previewLoadedMsg struct {
	content    string
	err        error
	generation int
}

type commandExecutedMsg struct {
	output string
	err    error
}

// run executes fn as a command and reports its outcome.
func (m *Model) run(status string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{status: status, err: fn()}
	}
}

func (m *Model) updatePreview() tea.Cmd {
	if !m.showPreview {
		return nil
	}

	entry := m.currentEntry()

	m.previewGen++
	generation := m.previewGen

	if entry == nil || entry.IsDir() {
		m.previewContent = ""
		m.previewError = nil
		return nil
	}

	return func() tea.Msg {
		DebugLog("Loading preview gen=%d for: %s", generation, entry.Name)

		content, err := m.adapter.GeneratePreview(entry)
		if err != nil {
			DebugLog("Preview gen=%d failed for %s: %v", generation, entry.Name, err)
		}
		return previewLoadedMsg{content: content, err: err, generation: generation}
	}
}

func (m *Model) openEntry() tea.Cmd {
	entry := m.currentEntry()
	if entry == nil {
		return nil
	}

	if entry.Type == data.FileTypeParent {
		return m.goParent()
	}

	DebugLog("openEntry: '%s' (traversable=%v)", entry.Name, entry.IsDir())
	m.cursor = 0
	m.offset = 0

	if entry.IsDir() {
		return m.run("", func() error {
			_, err := m.adapter.Open(entry)
			return err
		})
	}

	return func() tea.Msg {
		local, err := m.adapter.Open(entry)
		return opResultMsg{status: "Opened " + local, err: err}
	}
}

func (m *Model) goParent() tea.Cmd {
	m.previousDir = lastSegment(m.location)
	DebugLog("goParent: leaving '%s'", m.previousDir)

	return m.run("", m.adapter.Parent)
}

func lastSegment(location string) string {
	trimmed := strings.TrimRight(location, "/\\")
	if i := strings.LastIndexAny(trimmed, "/\\"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func (m *Model) executeCommand(line string) tea.Cmd {
	return func() tea.Msg {
		output, err := m.adapter.Execute(m.center, line)
		return commandExecutedMsg{output: output, err: err}
	}
}
