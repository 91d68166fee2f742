package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/kanban"
	"github.com/billfold/billfold/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// columnTitles maps column ids to display names
var columnTitles = map[string]string{
	model.StatusPending:    "To Do",
	model.StatusInProgress: "In Progress",
	model.StatusCompleted:  "Done",
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var mainContent string
	if m.view == ViewBoard {
		mainContent = m.renderBoard()
	} else {
		mainContent = m.renderInvoiceList()
	}

	if m.mode == ModeAddTask {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			m.renderAddModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	if m.mode == ModeNotifications {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			m.renderNotifications(),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	if m.mode == ModeHelp {
		mainContent = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) renderBoard() string {
	colWidth := m.width/len(kanban.ColumnIDs) - 4
	if colWidth < 20 {
		colWidth = 20
	}

	columns := m.board.Columns()
	rendered := make([]string, 0, len(kanban.ColumnIDs))

	for i, id := range kanban.ColumnIDs {
		tasks := columns[id]
		focused := i == m.colCursor

		var s string
		title := fmt.Sprintf("%s (%d)", columnTitles[id], len(tasks))
		s += ColumnTitleStyle.Render(title) + "\n"
		s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", colWidth-2)) + "\n"

		if len(tasks) == 0 {
			s += HelpStyle.Render(" empty") + "\n"
		}

		for j, t := range tasks {
			cursor := "  "
			style := ItemStyle
			if focused && j == m.taskCursor {
				cursor = "❯ "
				style = ItemSelectedStyle
			}

			icon := "[ ]"
			if t.Done {
				icon = "[x]"
				style = ItemDoneStyle
			}

			line := fmt.Sprintf("%s%s %s", cursor, icon, truncate(t.Title, colWidth-10))
			s += style.Render(line) + " " + GetPriorityStyle(t.Priority).Render(priorityBadge(t.Priority)) + "\n"
		}

		colStyle := ColumnStyle
		if focused {
			colStyle = ColumnFocusedStyle
		}
		rendered = append(rendered, colStyle.Width(colWidth).Height(m.height-4).Render(s))
	}

	title := "Billfold · Board"
	if p := m.profile.Profile(); p != nil && p.Name != "" {
		title += "  ·  " + p.Name
	}
	header := HeaderStyle.Render(title)
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (m Model) renderInvoiceList() string {
	width := m.width - 4
	var s string

	items := m.visibleInvoices()

	header := fmt.Sprintf("Billfold · Invoices (%d)", len(items))
	if m.searchText != "" {
		header += fmt.Sprintf("  /%s", m.searchText)
	}
	s += HeaderStyle.Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", width)) + "\n"

	if len(items) == 0 {
		s += HelpStyle.Render("  No invoices.") + "\n"
	}

	maxRows := m.invoiceRows()
	for i, inv := range items {
		if i >= maxRows {
			s += HelpStyle.Render(fmt.Sprintf("  ... +%d more", len(items)-maxRows)) + "\n"
			break
		}

		cursor := "  "
		style := ItemStyle
		if i == m.invCursor {
			cursor = "❯ "
			style = ItemSelectedStyle
		}

		mark := " "
		if m.selected[inv.ID] {
			mark = "●"
		}

		date := inv.PurchaseDate.Format("2006-01-02")
		amount := fmt.Sprintf("%s %s", inv.Currency, inv.Amount.StringFixed(2))
		line := fmt.Sprintf("%s%s %-10s  %-24s %-16s %10s ",
			cursor, mark, date,
			truncate(inv.Title, 24), truncate(inv.Vendor.Name, 16), amount)

		s += style.Render(line) + GetStatusStyle(inv.Status).Render(inv.Status) + "\n"
	}

	return lipgloss.NewStyle().Padding(0, 1).Width(m.width).Height(m.height - 2).Render(s)
}

func (m Model) renderNotifications() string {
	modalWidth := 60
	maxItems := 10

	items := m.center.Items()

	var content string
	title := fmt.Sprintf("Notifications (%d unread)", m.center.Unread())
	if m.center.DoNotDisturb() {
		title += "  [DND]"
	}
	content += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(title) + "\n"
	content += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", modalWidth-6)) + "\n\n"

	if len(items) == 0 {
		content += HelpStyle.Render("No notifications") + "\n"
	}

	for i, n := range items {
		if i >= maxItems {
			content += HelpStyle.Render(fmt.Sprintf("... +%d more", len(items)-maxItems)) + "\n"
			break
		}

		dot := "●"
		style := lipgloss.NewStyle().Foreground(Text)
		if n.Read {
			dot = "○"
			style = HelpStyle
		}

		age := shortAge(n.CreatedAt)
		content += style.Render(fmt.Sprintf("%s %s", dot, truncate(n.Title, modalWidth-16))) +
			HelpStyle.Render("  "+age) + "\n"
		if n.Message != "" {
			content += HelpStyle.Render("  "+truncate(n.Message, modalWidth-10)) + "\n"
		}
	}

	content += "\n" + HelpStyle.Render("m:read all  C:clear  u:dnd  Esc:close")
	return ModalStyle.Width(modalWidth).Render(content)
}

func (m Model) renderAddModal() string {
	title := fmt.Sprintf("Add Task to: %s", columnTitles[m.focusedColumn()])

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderStatusBar() string {
	// In search mode show the inline input like vim
	if m.mode == ModeSearch {
		count := len(m.visibleInvoices())
		return StatusBarStyle.Width(m.width).Render(fmt.Sprintf("/%s [%d matches]", m.input.View(), count))
	}

	var help string
	if m.view == ViewBoard {
		help = "h/l:column  [/]:move  a:add  x:done  d:del  A:all done  C:clear  tab:invoices  ?:help  q:quit"
	} else {
		help = "/:search  space:select  d:delete  tab:board  ?:help  q:quit"
	}
	if m.message != "" {
		help = m.message
	}

	badge := ""
	if unread := m.center.Unread(); unread > 0 {
		badge = BadgeStyle.Render(fmt.Sprintf("🔔 %d", unread))
	}

	if badge != "" {
		avail := m.width - lipgloss.Width(help) - lipgloss.Width(badge) - 4
		if avail > 0 {
			help += strings.Repeat(" ", avail) + badge
		} else {
			help += " " + badge
		}
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ────╮
│                           │
│  Navigation               │
│  ──────────               │
│  j/↓    Move down         │
│  k/↑    Move up           │
│  h/l    Switch column     │
│  Tab    Board/Invoices    │
│                           │
│  Board                    │
│  ─────                    │
│  a       Add task         │
│  x/Enter Toggle done      │
│  [/]     Move task        │
│  d       Delete           │
│  A       Mark all done    │
│  C       Clear board      │
│                           │
│  Invoices                 │
│  ────────                 │
│  /       Search           │
│  space   Select           │
│  d       Delete selected  │
│                           │
│  Other                    │
│  ─────                    │
│  n       Notifications    │
│  R       Refresh          │
│  ?       Toggle help      │
│  q       Quit             │
│                           │
╰───────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}

// invoiceRows is the number of invoice rows shown per screen: whatever
// fits in the window, capped by the configured page size
func (m Model) invoiceRows() int {
	rows := m.height - 6
	if m.pageSize > 0 && m.pageSize < rows {
		rows = m.pageSize
	}
	return rows
}

// Helpers
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func priorityBadge(p string) string {
	switch p {
	case model.PriorityHigh:
		return "!!"
	case model.PriorityLow:
		return "·"
	default:
		return "!"
	}
}

func shortAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
