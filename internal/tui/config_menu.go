package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
	"github.com/diogo/chatdeck/internal/models"
)

// Menu rows of the chat configuration menu
const (
	rowProvider = iota
	rowModel
	rowMaxTokens
	rowTemperature
	rowTopP
	rowPresence
	rowFrequency
	rowImageDetail
	rowCount
)

const maxTokensStep = 100

// menuResult tells the caller what the last key did.
type menuResult int

const (
	menuOpen menuResult = iota
	menuConfirmed
	menuCancelled
)

// configMenu edits the model configuration of the current chat.
type configMenu struct {
	registry *models.Registry

	cfg    chat.Config
	detail content.Detail
	cursor int
}

func newConfigMenu(reg *models.Registry, cfg chat.Config, detail content.Detail) configMenu {
	m := configMenu{registry: reg, cfg: cfg, detail: detail}
	if m.cfg.Provider == "" {
		m.cfg.Provider = reg.FindProvider(cfg.Model)
	}
	if m.detail == "" {
		m.detail = content.DetailAuto
	}
	return m
}

// result returns the configuration to store, with the provider recomputed
// from the selected model.
func (m configMenu) result() (chat.Config, content.Detail) {
	cfg := m.cfg
	cfg.Provider = m.registry.FindProvider(cfg.Model)
	return cfg, m.detail
}

func (m configMenu) maxTokensLimit() int {
	if limit := m.registry.MaxContext(m.cfg.Model); limit > 0 {
		return limit
	}
	return math.MaxInt32
}

func cycle(options []string, current string, delta int) string {
	if len(options) == 0 {
		return current
	}
	idx := 0
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	return options[idx]
}

func step(v, delta, lo, hi float64) float64 {
	v = math.Round((v+delta)*100) / 100
	return math.Min(math.Max(v, lo), hi)
}

func (m configMenu) adjust(delta int) configMenu {
	d := float64(delta)
	switch m.cursor {
	case rowProvider:
		m.cfg.Provider = cycle(m.registry.Providers(), m.cfg.Provider, delta)
		// changing provider selects its first model
		if list := m.registry.ModelsFor(m.cfg.Provider); len(list) > 0 {
			m.cfg.Model = list[0]
		}
		m.cfg.MaxTokens = min(m.cfg.MaxTokens, m.maxTokensLimit())
	case rowModel:
		m.cfg.Model = cycle(m.registry.ModelsFor(m.cfg.Provider), m.cfg.Model, delta)
		m.cfg.MaxTokens = min(m.cfg.MaxTokens, m.maxTokensLimit())
	case rowMaxTokens:
		m.cfg.MaxTokens = min(max(m.cfg.MaxTokens+delta*maxTokensStep, 1), m.maxTokensLimit())
	case rowTemperature:
		m.cfg.Temperature = step(m.cfg.Temperature, 0.1*d, 0, 2)
	case rowTopP:
		m.cfg.TopP = step(m.cfg.TopP, 0.05*d, 0, 1)
	case rowPresence:
		m.cfg.PresencePenalty = step(m.cfg.PresencePenalty, 0.1*d, -2, 2)
	case rowFrequency:
		m.cfg.FrequencyPenalty = step(m.cfg.FrequencyPenalty, 0.1*d, -2, 2)
	case rowImageDetail:
		details := content.Details()
		names := make([]string, len(details))
		for i, x := range details {
			names[i] = string(x)
		}
		m.detail = content.Detail(cycle(names, string(m.detail), delta))
	}
	return m
}

func (m configMenu) update(msg tea.KeyMsg) (configMenu, menuResult) {
	switch msg.String() {
	case "esc", "q":
		return m, menuCancelled
	case "enter", "ctrl+s":
		return m, menuConfirmed
	case "up", "k":
		m.cursor = (m.cursor - 1 + rowCount) % rowCount
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % rowCount
	case "left", "h", "-":
		m = m.adjust(-1)
	case "right", "l", "+", "=", " ":
		m = m.adjust(1)
	case "pgup":
		if m.cursor == rowMaxTokens {
			for i := 0; i < 10; i++ {
				m = m.adjust(1)
			}
		}
	case "pgdown":
		if m.cursor == rowMaxTokens {
			for i := 0; i < 10; i++ {
				m = m.adjust(-1)
			}
		}
	}
	return m, menuOpen
}

// slider draws a value in [lo, hi] as a bar.
func slider(v, lo, hi float64, width int) string {
	if hi <= lo {
		return ""
	}
	filled := int(math.Round((v - lo) / (hi - lo) * float64(width)))
	filled = min(max(filled, 0), width)
	return configCursorStyle.Render(strings.Repeat("━", filled)) +
		configDisabledStyle.Render(strings.Repeat("─", width-filled))
}

func (m configMenu) view(width int) string {
	limit := m.maxTokensLimit()
	tokenHi := float64(limit)
	tokenLimit := fmt.Sprintf("max %d", limit)
	if limit == math.MaxInt32 {
		tokenHi = float64(max(m.cfg.MaxTokens, 1))
		tokenLimit = "context unknown"
	}

	caps := string(m.registry.Capability(m.cfg.Model))
	rows := []struct {
		label string
		value string
		bar   string
	}{
		{"Provider", m.cfg.Provider, ""},
		{"Model", m.registry.DisplayName(m.cfg.Model), hintStyle.Render(caps)},
		{"Max tokens", fmt.Sprintf("%d", m.cfg.MaxTokens), slider(float64(m.cfg.MaxTokens), 1, tokenHi, 20) + hintStyle.Render(" "+tokenLimit)},
		{"Temperature", fmt.Sprintf("%.1f", m.cfg.Temperature), slider(m.cfg.Temperature, 0, 2, 20)},
		{"Top P", fmt.Sprintf("%.2f", m.cfg.TopP), slider(m.cfg.TopP, 0, 1, 20)},
		{"Presence penalty", fmt.Sprintf("%.1f", m.cfg.PresencePenalty), slider(m.cfg.PresencePenalty, -2, 2, 20)},
		{"Frequency penalty", fmt.Sprintf("%.1f", m.cfg.FrequencyPenalty), slider(m.cfg.FrequencyPenalty, -2, 2, 20)},
		{"Image detail", string(m.detail), ""},
	}

	lines := []string{configSectionTitleStyle.Render("Chat configuration"), ""}
	for i, r := range rows {
		cursor := "  "
		labelStyle := configMenuItemStyle
		if i == m.cursor {
			cursor = configCursorStyle.Render("▸ ")
			labelStyle = configMenuSelectedStyle
		}
		line := cursor + labelStyle.Render(fmt.Sprintf("%-18s", r.label)) + " " + configValueStyle.Render(r.value)
		if r.bar != "" {
			line += "  " + r.bar
		}
		lines = append(lines, line)
	}

	panel := configPanelStyle.Width(max(width-4, 40)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	bar := renderShortcuts(max(width-4, 40), []shortcut{
		{"↑↓", "Select"}, {"←→", "Change"}, {"Enter", "Apply"}, {"Esc", "Cancel"},
	})
	return lipgloss.JoinVertical(lipgloss.Left, panel, bar)
}
