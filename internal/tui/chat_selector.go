package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/storage"
)

// selectorResult is what the chat selector settled on.
type selectorResult struct {
	done   bool
	newNow bool // start a new chat
	index  int  // chat index when !newNow
}

// chatSelector picks the current chat or starts a new one. Row 0 is
// "New Chat"; row i is chat i-1.
type chatSelector struct {
	chats   []chat.Chat
	current int
	cursor  int
	height  int
}

func newChatSelector(chats []chat.Chat, current, height int) chatSelector {
	return chatSelector{chats: chats, current: current, cursor: current + 1, height: height}
}

func (m chatSelector) rows() int {
	return len(m.chats) + 1
}

func (m chatSelector) update(msg tea.KeyMsg) (chatSelector, selectorResult) {
	switch msg.String() {
	case "esc", "q":
		return m, selectorResult{done: true, index: -1}
	case "up", "k":
		m.cursor = (m.cursor - 1 + m.rows()) % m.rows()
	case "down", "j":
		m.cursor = (m.cursor + 1) % m.rows()
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = m.rows() - 1
	case "n":
		return m, selectorResult{done: true, newNow: true}
	case "enter":
		if m.cursor == 0 {
			return m, selectorResult{done: true, newNow: true}
		}
		return m, selectorResult{done: true, index: m.cursor - 1}
	}
	return m, selectorResult{}
}

func (m chatSelector) renderItem(row int, width int) string {
	cursor := "  "
	style := configMenuItemStyle
	if row == m.cursor {
		cursor = configCursorStyle.Render("> ")
		style = configMenuSelectedStyle
	}
	if row == 0 {
		return cursor + style.Render("+ New Chat")
	}

	c := m.chats[row-1]
	marker := " "
	if row-1 == m.current {
		marker = "•"
	}
	title := runewidth.Truncate(c.Title, max(width-40, 16), "…")
	meta := hintStyle.Render(fmt.Sprintf(" [%s] %d msgs", c.Config.Model, len(c.Messages)))
	when := configDisabledStyle.Render(" - " + storage.FormatRelativeTime(c.UpdatedAt))
	return fmt.Sprintf("%s%s %s%s%s", cursor, marker, style.Render(title), meta, when)
}

func (m chatSelector) view(width int) string {
	items := []string{configSectionTitleStyle.Render("Chats"), ""}

	visible := max(5, m.height-10)
	offset := 0
	if m.cursor >= visible {
		offset = m.cursor - visible + 1
	}
	end := min(offset+visible, m.rows())

	if offset > 0 {
		items = append(items, hintStyle.Render("  ..."))
	}
	for row := offset; row < end; row++ {
		items = append(items, m.renderItem(row, width))
	}
	if end < m.rows() {
		items = append(items, hintStyle.Render("  ..."))
	}

	panel := configPanelStyle.Width(max(width-4, 40)).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
	bar := renderShortcuts(max(width-4, 40), []shortcut{
		{"↑↓", "Navigate"}, {"Enter", "Open"}, {"n", "New"}, {"Esc", "Back"},
	})
	return lipgloss.JoinVertical(lipgloss.Left, panel, bar)
}
