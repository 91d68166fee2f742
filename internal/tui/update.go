package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/kanban"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
	"github.com/billfold/billfold/internal/session"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// refreshMsg is sent when a realtime event changed local state
type refreshMsg string

// alertMsg carries a notification pop-up
type alertMsg model.Notification

// sessionMsg carries a session state change from the session manager
type sessionMsg session.Event

// tickMsg is sent every second for time updates
type tickMsg time.Time

// Init starts the background message pumps
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForRefresh(), m.waitForAlert(), m.waitForSession())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForRefresh blocks on the realtime refresh channel
func (m Model) waitForRefresh() tea.Cmd {
	return func() tea.Msg {
		table, ok := <-m.refreshChan
		if !ok {
			return nil
		}
		return refreshMsg(table)
	}
}

// waitForAlert blocks on the notification alert channel
func (m Model) waitForAlert() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-m.alertChan
		if !ok {
			return nil
		}
		return alertMsg(n)
	}
}

// waitForSession blocks on the session manager's event channel
func (m Model) waitForSession() tea.Cmd {
	if m.sessions == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-m.sessions
		if !ok {
			return nil
		}
		return sessionMsg(ev)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()

	case refreshMsg:
		m.clampCursors()
		return m, m.waitForRefresh()

	case alertMsg:
		m.message = fmt.Sprintf("🔔 %s", model.Notification(msg).Title)
		return m, m.waitForAlert()

	case sessionMsg:
		switch ev := session.Event(msg); ev.Type {
		case session.SignedIn:
			// A cold-start restore is not news; greet only on a fresh sign-in
			if !ev.ColdStart && ev.Session != nil {
				m.message = fmt.Sprintf("✅ Signed in as %s", ev.Session.Email)
			}
		case session.SignedOut:
			m.message = "Session expired, signed out"
		}
		return m, m.waitForSession()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddTask:
			return m.updateAddTask(msg)
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeNotifications:
			return m.updateNotifications(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Any key other than a second delete press cancels the pending one
		if m.pendingDelete && !key.Matches(msg, keys.Delete) {
			m.pendingDelete = false
			m.message = ""
		}

		switch {
		case key.Matches(msg, keys.Quit):
			m.Stop()
			return m, tea.Quit

		case key.Matches(msg, keys.Tab):
			if m.view == ViewBoard {
				m.view = ViewInvoices
			} else {
				m.view = ViewBoard
			}
			m.clampCursors()

		case key.Matches(msg, keys.Help):
			m.mode = ModeHelp

		case key.Matches(msg, keys.Notifs):
			m.mode = ModeNotifications

		case key.Matches(msg, keys.Refresh):
			m.loadData()
			m.clampCursors()
			m.message = "Refreshed"

		case key.Matches(msg, keys.Logout):
			m.message = "Use 'billfold logout' to sign out"

		default:
			if m.view == ViewBoard {
				return m.updateBoard(msg)
			}
			return m.updateInvoices(msg)
		}
	}

	return m, cmd
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left):
		if m.colCursor > 0 {
			m.colCursor--
			m.taskCursor = 0
		}

	case key.Matches(msg, keys.Right):
		if m.colCursor < len(kanban.ColumnIDs)-1 {
			m.colCursor++
			m.taskCursor = 0
		}

	case key.Matches(msg, keys.Up):
		if m.taskCursor > 0 {
			m.taskCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.taskCursor < len(m.board.Column(m.focusedColumn()))-1 {
			m.taskCursor++
		}

	case key.Matches(msg, keys.MoveLeft):
		if t := m.focusedTask(); t != nil && m.colCursor > 0 {
			if _, err := m.board.Move(t.ID, kanban.ColumnIDs[m.colCursor-1]); err != nil {
				m.message = fmt.Sprintf("Move error: %v", err)
			} else {
				m.colCursor--
				m.taskCursor = 0
			}
		}

	case key.Matches(msg, keys.MoveRight):
		if t := m.focusedTask(); t != nil && m.colCursor < len(kanban.ColumnIDs)-1 {
			if _, err := m.board.Move(t.ID, kanban.ColumnIDs[m.colCursor+1]); err != nil {
				m.message = fmt.Sprintf("Move error: %v", err)
			} else {
				m.colCursor++
				m.taskCursor = 0
			}
		}

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		if t := m.focusedTask(); t != nil {
			if _, err := m.board.ToggleDone(t.ID); err != nil {
				m.message = fmt.Sprintf("Toggle error: %v", err)
			}
			m.clampCursors()
		}

	case key.Matches(msg, keys.Delete):
		if t := m.focusedTask(); t != nil {
			if m.confirmDelete && !m.pendingDelete {
				m.pendingDelete = true
				m.message = "Press d again to confirm delete"
				return m, nil
			}
			m.pendingDelete = false
			if err := m.board.Delete(t.ID); err != nil {
				m.message = fmt.Sprintf("Delete error: %v", err)
			} else {
				m.message = "Task deleted"
			}
			m.clampCursors()
		}

	case key.Matches(msg, keys.DoneAll):
		if failed := m.board.MarkAllDone(); failed > 0 {
			m.message = fmt.Sprintf("Mark all done: %d failed", failed)
		} else {
			m.message = "All tasks done"
		}
		m.clampCursors()

	case key.Matches(msg, keys.ClearAll):
		if failed := m.board.ClearAll(); failed > 0 {
			m.message = fmt.Sprintf("Clear board: %d failed", failed)
		} else {
			m.message = "Board cleared"
		}
		m.clampCursors()

	case key.Matches(msg, keys.Add):
		m.mode = ModeAddTask
		m.input.SetValue("")
		m.input.Placeholder = "Enter task..."
		m.input.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) updateInvoices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.invCursor > 0 {
			m.invCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.invCursor < len(m.visibleInvoices())-1 {
			m.invCursor++
		}

	case key.Matches(msg, keys.Select):
		if inv := m.focusedInvoice(); inv != nil {
			if m.selected[inv.ID] {
				delete(m.selected, inv.ID)
			} else {
				m.selected[inv.ID] = true
			}
		}

	case key.Matches(msg, keys.Delete):
		ids := m.selectedIDs()
		if len(ids) == 0 {
			if inv := m.focusedInvoice(); inv != nil {
				ids = []string{inv.ID}
			}
		}
		if len(ids) > 0 {
			if m.confirmDelete && !m.pendingDelete {
				m.pendingDelete = true
				m.message = fmt.Sprintf("Press d again to delete %d invoice(s)", len(ids))
				return m, nil
			}
			m.pendingDelete = false
			if err := m.invoices.BulkDelete(ids); err != nil {
				m.message = fmt.Sprintf("Delete error: %v", err)
			} else {
				m.message = fmt.Sprintf("Deleted %d invoice(s)", len(ids))
				m.selected = make(map[string]bool)
			}
			m.clampCursors()
		}

	case key.Matches(msg, keys.Search):
		m.mode = ModeSearch
		m.input.SetValue(m.searchText)
		m.input.Placeholder = "/"
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Escape):
		if m.searchText != "" {
			m.searchText = ""
			m.message = "Search cleared"
			m.clampCursors()
		}
	}

	return m, nil
}

func (m Model) updateAddTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.mode = ModeNormal
			return m, nil
		}

		if _, err := m.board.Create(value, kanban.CreateOptions{Status: m.focusedColumn()}); err != nil {
			m.message = fmt.Sprintf("Error adding task: %v", err)
			logger.Warn("Task create failed", logger.F("error", err))
		} else {
			m.message = fmt.Sprintf("Added: %s", value)
		}
		m.mode = ModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.searchText = ""
		m.clampCursors()
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.mode = ModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Live search as the user types
	m.searchText = m.input.Value()
	m.invCursor = 0
	return m, cmd
}

func (m Model) updateNotifications(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Notifs):
		m.mode = ModeNormal

	case key.Matches(msg, keys.ReadAll):
		m.center.MarkAllRead(m.ctx)
		m.message = "All notifications read"

	case key.Matches(msg, keys.ClearAll):
		m.center.ClearAll(m.ctx)
		m.message = "Notifications cleared"
		m.mode = ModeNormal

	case key.Matches(msg, keys.Enter):
		items := m.center.Items()
		for _, n := range items {
			if !n.Read {
				m.center.MarkRead(m.ctx, n.ID)
				break
			}
		}

	case key.Matches(msg, keys.DND):
		on := !m.center.DoNotDisturb()
		m.center.SetDoNotDisturb(m.ctx, on)
		if on {
			m.message = "Do not disturb on"
		} else {
			m.message = "Do not disturb off"
		}
	}

	return m, nil
}

func (m Model) selectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	return ids
}
