package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mwantia/navigator/data"
)

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.mode {
	case ModeHelp:
		return m.renderHelp()
	default:
		return m.renderMain()
	}
}

// renderMain renders the main file browser view
func (m *Model) renderMain() string {
	var sections []string

	// Title bar
	sections = append(sections, m.renderTitle())

	// Main content area (file list + preview)
	sections = append(sections, m.renderContent())

	// Status bar
	sections = append(sections, m.renderStatus())

	// Input area (if in input/command mode)
	if m.mode == ModeCommand || m.mode == ModeInput {
		sections = append(sections, m.renderInput())
	}

	// Command output
	if m.commandOut != "" {
		sections = append(sections, m.renderCommandOutput())
	}

	// Help bar
	sections = append(sections, m.renderHelpBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitle renders the title bar with current path
func (m *Model) renderTitle() string {
	title := fmt.Sprintf("Navigator - %s", m.location)
	return m.theme.TitleStyle.Render(title)
}

// renderContent renders the file list and preview pane
func (m *Model) renderContent() string {
	if m.showPreview {
		// Split view: file list on left, preview on right
		fileList := m.renderFileList()
		preview := m.renderPreview()

		leftWidth := m.width / 2
		rightWidth := m.width - leftWidth - 4 // Account for borders

		fileListBox := m.theme.BorderStyle.
			Width(leftWidth).
			Height(m.getVisibleLines() + 2).
			Render(fileList)

		previewBox := m.theme.PreviewBorderStyle.
			Width(rightWidth).
			Height(m.getVisibleLines() + 2).
			Render(preview)

		return lipgloss.JoinHorizontal(lipgloss.Top, fileListBox, previewBox)
	}

	// Full width file list
	fileList := m.renderFileList()
	return m.theme.BorderStyle.
		Width(m.width - 4).
		Height(m.getVisibleLines() + 2).
		Render(fileList)
}

// renderFileList renders the list of files and directories
func (m *Model) renderFileList() string {
	if len(m.entries) == 0 {
		return m.theme.NormalItemStyle.Render("(empty)")
	}

	var lines []string
	visibleLines := m.getVisibleLines()

	start := m.offset
	end := m.offset + visibleLines
	if end > len(m.entries) {
		end = len(m.entries)
	}

	for i := start; i < end; i++ {
		entry := m.entries[i]
		line := m.renderFileEntry(entry, i == m.cursor)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// renderFileEntry renders a single entry
func (m *Model) renderFileEntry(entry *Entry, selected bool) string {
	var style lipgloss.Style
	switch {
	case selected:
		style = m.theme.SelectedItemStyle
	case entry.Marked:
		style = m.theme.MarkedItemStyle
	case entry.IsDir():
		style = m.theme.DirectoryStyle
	default:
		style = m.theme.FileStyle
	}

	nameWidth := 40
	if m.showPreview {
		nameWidth = 30
	}

	name := []rune(entry.DisplayName())
	formattedName := string(name)
	if len(name) > nameWidth {
		formattedName = string(name[:nameWidth-3]) + "..."
	} else {
		formattedName += strings.Repeat(" ", nameWidth-len(name))
	}

	mark := " "
	if entry.Marked {
		mark = "*"
	}

	line := fmt.Sprintf("%s%s %s %10s", mark, entry.Icon(), formattedName, entry.DisplaySize())
	return style.Render(line)
}

// renderPreview renders the file preview pane
func (m *Model) renderPreview() string {
	entry := m.currentEntry()
	if entry == nil {
		return m.theme.PreviewStyle.Render("No file selected")
	}

	if entry.IsDir() {
		info := fmt.Sprintf("Directory: %s\n\n", entry.DisplayName())
		info += fmt.Sprintf("Location: %s\n", entry.Path())
		info += fmt.Sprintf("Modified: %s\n", entry.DisplayModTime())
		info += fmt.Sprintf("Permissions: %s\n", entry.DisplayMode())
		return m.theme.PreviewStyle.Render(info)
	}

	if m.previewError != nil {
		return m.theme.ErrorStyle.Render("Error: " + Describe(m.previewError))
	}

	if m.previewContent == "" {
		return m.theme.PreviewStyle.Render("(empty file)")
	}

	// Show file info + content preview
	info := fmt.Sprintf("File: %s\n", entry.Name)
	info += fmt.Sprintf("Size: %s\n", entry.DisplaySize())
	info += fmt.Sprintf("Modified: %s\n\n", entry.DisplayModTime())
	info += "--- Preview ---\n"

	// Limit preview lines
	lines := strings.Split(m.previewContent, "\n")
	maxLines := m.getVisibleLines() - 6
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "...")
	}

	info += strings.Join(lines, "\n")

	return m.theme.PreviewStyle.Render(info)
}

// renderStatus renders the status bar
func (m *Model) renderStatus() string {
	left := "0 items"
	if len(m.entries) > 0 {
		left = fmt.Sprintf("%d/%d items", m.cursor+1, len(m.entries))
	}
	if m.kind != "" {
		left += fmt.Sprintf(" | %s %s", m.kind, m.server)
	}
	left += " | " + m.renderConnectionStatus()

	// Right side: status/error messages
	right := ""
	if m.errorMsg != "" {
		right = m.theme.ErrorStyle.Render(m.errorMsg)
	} else if m.statusMsg != "" {
		right = m.statusMsg
	}

	// Calculate spacing
	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-4, 0)

	statusLine := left + strings.Repeat(" ", spacing) + right
	return m.theme.StatusBarStyle.Width(m.width).Render(statusLine)
}

func (m *Model) renderConnectionStatus() string {
	switch m.status {
	case data.StatusOffline:
		return m.theme.ErrorStyle.Render(m.status.String())
	case data.StatusAwaitingLogin, data.StatusBusy:
		return m.theme.WarningStyle.Render(m.status.String())
	default:
		return m.status.String()
	}
}

// renderInput renders the input field for commands or user input
func (m *Model) renderInput() string {
	prompt := m.textInput.Placeholder + ": "
	if m.mode == ModeCommand {
		prompt = ":"
	}

	input := prompt + m.textInput.View()
	return m.theme.CommandStyle.Render(input)
}

// renderCommandOutput renders command execution output
func (m *Model) renderCommandOutput() string {
	if m.commandOut == "" {
		return ""
	}

	maxLines := 5
	lines := strings.Split(m.commandOut, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "...")
	}

	return m.theme.PreviewBorderStyle.
		Width(m.width - 4).
		Render(strings.Join(lines, "\n"))
}

// renderHelpBar renders the bottom help bar
func (m *Model) renderHelpBar() string {
	return m.theme.HelpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// renderHelp renders the full help screen
func (m *Model) renderHelp() string {
	groups := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Movement:", []key.Binding{m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown, m.keys.Top, m.keys.Bottom}},
		{"Navigation:", []key.Binding{m.keys.Enter, m.keys.Parent, m.keys.Back, m.keys.Forward, m.keys.GoTo, m.keys.Refresh}},
		{"Entries:", []key.Binding{m.keys.Select, m.keys.NewDir, m.keys.Delete, m.keys.Rename, m.keys.Copy, m.keys.Terminal}},
		{"Session:", []key.Binding{m.keys.Login, m.keys.TogglePreview, m.keys.Command, m.keys.Help, m.keys.Quit}},
	}

	sections := []string{m.theme.TitleStyle.Render("Navigator - Help"), ""}
	for _, group := range groups {
		sections = append(sections, m.theme.TitleStyle.Render(group.title))
		for _, binding := range group.bindings {
			h := binding.Help()
			sections = append(sections, fmt.Sprintf("  %-12s %s", h.Key, h.Desc))
		}
		sections = append(sections, "")
	}

	var commands strings.Builder
	m.center.Help(&commands)
	sections = append(sections, m.theme.TitleStyle.Render("Commands (:):"))
	sections = append(sections, strings.TrimRight(commands.String(), "\n"))
	sections = append(sections, "")

	sections = append(sections, m.theme.HelpStyle.Render("Press ? or q to return"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
