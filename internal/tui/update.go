package tui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.gen.Stop()
		return m, tea.Quit
	}

	switch m.mode {
	case modeConfig:
		return m.updateConfig(msg)
	case modeChats:
		return m.updateChats(msg)
	case modePreview:
		return m.updatePreview(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	case modeSelect:
		return m.updateSelect(msg)
	}
	return m.updateInput(msg)
}

// updateInput handles keys while the composer or an editor has focus.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		return m, m.pasteCmd(string(msg.Runes))
	}

	switch key := msg.String(); key {
	case "esc":
		switch {
		case m.deps.Store.Generating():
			m.gen.Stop()
		case m.editor != nil:
			m.editor.Cancel()
			m.endEdit(modeSelect)
		case m.hasMessages():
			m.enterSelect()
		}
		return m, nil

	case "ctrl+s":
		return m.save()

	case "ctrl+g":
		return m.generate()

	case "enter":
		if m.deps.Config.EnterToSubmit {
			if m.editor != nil {
				return m.save()
			}
			return m.generate()
		}

	case "alt+enter", "shift+enter":
		m.textarea.InsertString("\n")
		m.layout()
		return m, nil

	case "ctrl+o":
		m.openChats()
		return m, nil

	case "ctrl+p":
		m.openConfig()
		return m, nil

	case "ctrl+n":
		m.startChat()
		return m, nil

	case "ctrl+r":
		m.cycleRole()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9":
		n, _ := strconv.Atoi(strings.TrimPrefix(key, "alt+"))
		m.removeAttachment(n)
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.layout()
	return m, cmd
}

// updateSelect handles keys of the message selection mode.
func (m Model) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c, ok := m.currentChat()
	if !ok || len(c.Messages) == 0 {
		m.leaveSelect()
		return m, nil
	}
	// The generator may have changed the list since the last key.
	m.clampSelection()

	switch key := msg.String(); key {
	case "esc", "i", "tab":
		m.leaveSelect()
		return m, nil
	case "up", "k":
		m.selected = max(m.selected-1, 0)
	case "down", "j":
		m.selected = min(m.selected+1, len(c.Messages)-1)
	case "home", "g":
		m.selected = 0
	case "end", "G":
		m.selected = len(c.Messages) - 1
	case "u":
		if moved, _ := m.actions.MoveUp(m.selected); moved {
			m.selected--
		}
	case "d":
		if moved, _ := m.actions.MoveDown(m.selected); moved {
			m.selected++
		}
	case "x", "delete":
		m.mode = modeConfirmDelete
	case "e", "enter":
		m.startEdit(m.selected)
		return m, nil
	case "r":
		m.refreshResponse()
	case "c", "y":
		_ = m.actions.Copy(m.selected)
	case "m":
		m.markdown = !m.markdown
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "ctrl+o":
		m.openChats()
		return m, nil
	case "ctrl+p":
		m.openConfig()
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(key)
		m.openAttachment(c.Messages[m.selected].Content, n)
		return m, nil
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeSelect
	if k := msg.String(); k == "y" || k == "Y" {
		_ = m.actions.Delete(m.selected)
	}
	m.clampSelection()
	m.refresh()
	return m, nil
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = m.back
		return m, nil
	case "s":
		if m.modal.savable {
			return m, m.modal.save(m.ctx, m.deps.HTTP, m.deps.DownloadDir)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.modal.viewport, cmd = m.modal.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateConfig(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var res menuResult
	m.menu, res = m.menu.update(msg)
	switch res {
	case menuConfirmed:
		cfg, detail := m.menu.result()
		m.dispatchCurrent(func(i int) state.Reducer {
			return state.Compose(state.SetConfig(i, cfg), state.SetImageDetail(i, detail))
		})
		m.mode = modeCompose
	case menuCancelled:
		m.mode = modeCompose
	}
	if m.mode == modeCompose {
		m.textarea.Focus()
		m.layout()
	}
	return m, nil
}

func (m Model) updateChats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var res selectorResult
	m.chats, res = m.chats.update(msg)
	if !res.done {
		return m, nil
	}
	m.mode = modeCompose
	m.textarea.Focus()
	switch {
	case res.newNow:
		m.startChat()
		return m, nil
	case res.index >= 0:
		if err := m.deps.Store.Dispatch(state.SelectChat(res.index)); err != nil {
			notify.Errorn(m.notifier, err.Error())
		}
	}
	m.selected = 0
	m.layout()
	m.viewport.GotoBottom()
	return m, nil
}

// generate commits the input and asks for a response, or runs it as a
// command when it starts with a known slash command.
func (m Model) generate() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	if name, arg, ok := parseCommand(text); ok {
		return m.runCommand(name, arg)
	}
	s := m.session()
	s.SetText(text)
	m.afterCommit(s, s.Generate(m.ctx), modeCompose)
	return m, nil
}

// save commits the input without generating.
func (m Model) save() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	if name, arg, ok := parseCommand(text); ok {
		return m.runCommand(name, arg)
	}
	s := m.session()
	s.SetText(text)
	_, err := s.Save(m.ctx)
	m.afterCommit(s, err, modeSelect)
	return m, nil
}

// afterCommit syncs the input with the session after Save or Generate. A
// finished edit returns to next.
func (m *Model) afterCommit(s *compose.Session, err error, next mode) {
	switch {
	case errors.Is(err, compose.ErrNothingToSave):
		notify.Infon(m.notifier, "Nothing to save")
	case errors.Is(err, compose.ErrGenerating):
		m.notifier.Notify(notify.New(notify.Warning, "Wait for the response to finish"))
	case errors.Is(err, compose.ErrNoChat), errors.Is(err, compose.ErrSessionClosed):
		notify.Errorn(m.notifier, err.Error())
	}

	if s.Mode() == compose.ModeEdit {
		if s.Closed() {
			m.endEdit(next)
		}
		return
	}
	if s.Buffer().IsEmpty() {
		m.textarea.Reset()
	}
	m.layout()
	m.viewport.GotoBottom()
}

func (m *Model) startEdit(i int) {
	ed, err := compose.NewEditor(m.sessionDeps, i)
	if err != nil {
		notify.Errorn(m.notifier, err.Error())
		return
	}
	m.composer.SetText(m.textarea.Value())
	m.editor = ed
	m.selected = i
	m.mode = modeEdit
	m.textarea.SetValue(ed.Buffer().Text())
	m.textarea.Focus()
	m.layout()
}

// endEdit restores the composer into the input.
func (m *Model) endEdit(next mode) {
	m.editor = nil
	m.textarea.SetValue(m.composer.Buffer().Text())
	if next == modeSelect && m.hasMessages() {
		m.mode = modeSelect
		m.textarea.Blur()
	} else {
		m.mode = modeCompose
		m.textarea.Focus()
	}
	m.clampSelection()
	m.layout()
}

func (m *Model) enterSelect() {
	c, _ := m.currentChat()
	m.composer.SetText(m.textarea.Value())
	m.mode = modeSelect
	m.selected = c.LastIndex()
	m.textarea.Blur()
	m.refresh()
}

func (m *Model) leaveSelect() {
	m.mode = modeCompose
	m.textarea.Focus()
	m.refresh()
	m.viewport.GotoBottom()
}

func (m Model) hasMessages() bool {
	c, ok := m.currentChat()
	return ok && len(c.Messages) > 0
}

func (m *Model) refreshResponse() {
	if !m.actions.CanRefresh(m.selected) {
		m.notifier.Notify(notify.New(notify.Warning, "Only the last response can be refreshed"))
		return
	}
	if err := m.actions.Refresh(m.ctx); err != nil {
		notify.Errorn(m.notifier, err.Error())
		return
	}
	m.leaveSelect()
}

func (m *Model) cycleRole() {
	s := m.session()
	roles := chat.Roles()
	for i, r := range roles {
		if r == s.Role() {
			s.SetRole(roles[(i+1)%len(roles)])
			return
		}
	}
}

func (m *Model) removeAttachment(n int) {
	if err := m.session().Remove(n - 1); err != nil {
		notify.Errorn(m.notifier, "No attachment ["+strconv.Itoa(n)+"]")
		return
	}
	m.layout()
}

func (m *Model) openChats() {
	snap := m.deps.Store.Snapshot()
	m.chats = newChatSelector(snap.Chats, snap.Current, m.height)
	m.mode = modeChats
	m.textarea.Blur()
}

func (m *Model) openConfig() {
	c, ok := m.currentChat()
	if !ok {
		return
	}
	m.menu = newConfigMenu(m.deps.Registry, c.Config, c.ImageDetail)
	m.mode = modeConfig
	m.textarea.Blur()
}

func (m *Model) startChat() {
	if m.editor != nil {
		m.editor.Cancel()
		m.endEdit(modeCompose)
	}
	if err := m.deps.Store.Dispatch(state.NewChat(m.newChat())); err != nil {
		notify.Errorn(m.notifier, err.Error())
	}
	m.mode = modeCompose
	m.selected = 0
	m.textarea.Focus()
	m.layout()
}

// dispatchCurrent applies the reducer built for the current chat's index.
func (m *Model) dispatchCurrent(fn func(int) state.Reducer) {
	snap := m.deps.Store.Snapshot()
	if _, ok := snap.CurrentChat(); !ok {
		return
	}
	if err := m.deps.Store.Dispatch(fn(snap.Current)); err != nil {
		notify.Errorn(m.notifier, err.Error())
	}
}
