package tui

import (
	"github.com/billfold/billfold/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Color palette. Status and priority colors are semantic and fixed; the
// UI colors switch with the configured theme.
var (
	// Invoice status colors
	StatusPaid    = lipgloss.Color("#95E1A3") // Green
	StatusPending = lipgloss.Color("#FFE66D") // Yellow
	StatusOverdue = lipgloss.Color("#FF6B6B") // Red
	StatusEMI     = lipgloss.Color("#4ECDC4") // Blue

	// Priority colors
	PriorityHigh   = lipgloss.Color("#FF6B6B")
	PriorityMedium = lipgloss.Color("#FFE66D")
	PriorityLow    = lipgloss.Color("#4ECDC4")

	// UI colors (dark theme defaults)
	Primary    = lipgloss.Color("#4ECDC4")
	Secondary  = lipgloss.Color("#6C757D")
	Background = lipgloss.Color("#1a1a2e")
	Surface    = lipgloss.Color("#16213e")
	Text       = lipgloss.Color("#FFFFFF")
	TextMuted  = lipgloss.Color("#888888")
	Border     = lipgloss.Color("#333333")
)

// Styles, rebuilt whenever the theme changes
var (
	AppStyle           lipgloss.Style
	HeaderStyle        lipgloss.Style
	ColumnStyle        lipgloss.Style
	ColumnFocusedStyle lipgloss.Style
	ColumnTitleStyle   lipgloss.Style
	ItemStyle          lipgloss.Style
	ItemSelectedStyle  lipgloss.Style
	ItemDoneStyle      lipgloss.Style
	StatusBarStyle     lipgloss.Style
	BadgeStyle         lipgloss.Style
	ModalStyle         lipgloss.Style
	HelpStyle          lipgloss.Style
)

func init() {
	rebuildStyles()
}

// ApplyTheme switches the UI palette and rebuilds the derived styles.
// Unknown theme names keep the current palette.
func ApplyTheme(name string) {
	switch name {
	case "dark":
		Primary = lipgloss.Color("#4ECDC4")
		Secondary = lipgloss.Color("#6C757D")
		Background = lipgloss.Color("#1a1a2e")
		Surface = lipgloss.Color("#16213e")
		Text = lipgloss.Color("#FFFFFF")
		TextMuted = lipgloss.Color("#888888")
		Border = lipgloss.Color("#333333")
	case "light":
		Primary = lipgloss.Color("#00827F")
		Secondary = lipgloss.Color("#6C757D")
		Background = lipgloss.Color("#FAFAFA")
		Surface = lipgloss.Color("#E8E8E8")
		Text = lipgloss.Color("#1A1A2E")
		TextMuted = lipgloss.Color("#666666")
		Border = lipgloss.Color("#CCCCCC")
	default:
		return
	}
	rebuildStyles()
}

func rebuildStyles() {
	AppStyle = lipgloss.NewStyle().
		Background(Background)

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Padding(0, 1)

	// Board column
	ColumnStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	ColumnFocusedStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Primary).
		Padding(0, 1)

	ColumnTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text).
		Padding(0, 1)

	// Card / row items
	ItemStyle = lipgloss.NewStyle().
		Padding(0, 1)

	ItemSelectedStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(Surface).
		Bold(true)

	ItemDoneStyle = lipgloss.NewStyle().
		Foreground(TextMuted).
		Strikethrough(true).
		Padding(0, 1)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Border)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(StatusOverdue).
		Bold(true)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// GetStatusStyle returns the style for an invoice status
func GetStatusStyle(status string) lipgloss.Style {
	switch status {
	case model.InvoicePaid:
		return lipgloss.NewStyle().Foreground(StatusPaid)
	case model.InvoiceOverdue:
		return lipgloss.NewStyle().Foreground(StatusOverdue).Bold(true)
	case model.InvoiceEMI:
		return lipgloss.NewStyle().Foreground(StatusEMI)
	default:
		return lipgloss.NewStyle().Foreground(StatusPending)
	}
}

// GetPriorityStyle returns the style for a task priority
func GetPriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true)
	case model.PriorityLow:
		return lipgloss.NewStyle().Foreground(PriorityLow)
	default:
		return lipgloss.NewStyle().Foreground(PriorityMedium)
	}
}
