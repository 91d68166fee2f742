package tui

import (
	"context"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/kanban"
	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
	"github.com/billfold/billfold/internal/notify"
	"github.com/billfold/billfold/internal/profile"
	"github.com/billfold/billfold/internal/session"
	"github.com/charmbracelet/bubbles/textinput"
)

// View selects which screen is shown
type View int

const (
	ViewBoard View = iota
	ViewInvoices
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeSearch
	ModeNotifications
	ModeHelp
)

// Model is the main TUI model
type Model struct {
	client   *backend.Client
	board    *kanban.Board
	invoices *invoice.Service
	center   *notify.Center
	profile  *profile.Cache

	// Realtime plumbing
	ctx         context.Context
	cancel      context.CancelFunc
	refreshChan chan string // table name whose data changed
	alertChan   chan model.Notification
	sessions    <-chan session.Event

	// Preferences
	pageSize      int
	confirmDelete bool

	// UI state
	width      int
	height     int
	view       View
	mode       Mode
	colCursor  int            // focused board column
	taskCursor int            // cursor within the focused column
	invCursor  int            // cursor within the invoice list
	selected   map[string]bool // invoice bulk selection
	searchText    string
	filter        invoice.Filter
	pendingDelete bool // a delete key press awaiting its confirmation

	input   textinput.Model
	message string
}

// NewModel creates the TUI model and starts the realtime watchers.
// sessions carries the session manager's state changes into the status
// line; it may be nil.
func NewModel(client *backend.Client, board *kanban.Board, invoices *invoice.Service,
	center *notify.Center, prof *profile.Cache, cfg *config.Config,
	sessions <-chan session.Event) Model {
	logger.Info("Initializing TUI model")

	ApplyTheme(cfg.Theme)

	ti := textinput.New()
	ti.Placeholder = "Enter task..."
	ti.CharLimit = 256
	ti.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		client:        client,
		board:         board,
		invoices:      invoices,
		center:        center,
		profile:       prof,
		ctx:           ctx,
		cancel:        cancel,
		refreshChan:   make(chan string, 8),
		alertChan:     make(chan model.Notification, 8),
		sessions:      sessions,
		pageSize:      cfg.PageSize,
		confirmDelete: cfg.ConfirmDelete,
		selected:      make(map[string]bool),
		input:         ti,
	}

	m.loadData()
	m.startWatchers()

	logger.Debug("TUI model initialized",
		logger.F("tasks", len(board.Tasks())),
		logger.F("invoices", len(invoices.All())))
	return m
}

func (m *Model) loadData() {
	if err := m.board.Refresh(); err != nil {
		logger.Warn("Task load failed", logger.F("error", err))
	}
	if err := m.invoices.Refresh(); err != nil {
		logger.Warn("Invoice load failed", logger.F("error", err))
	}
	if err := m.center.Refresh(m.ctx); err != nil {
		logger.Warn("Notification load failed", logger.F("error", err))
	}
}

// startWatchers subscribes to the realtime channels and folds row
// changes into local state, signalling the UI through refreshChan.
func (m *Model) startWatchers() {
	taskSub := m.client.Subscribe(m.ctx, "tasks")
	go func() {
		for ev := range taskSub.Events {
			m.board.ApplyEvent(ev)
			select {
			case m.refreshChan <- "tasks":
			default:
			}
		}
	}()

	m.center.SetAlertFunc(func(n model.Notification) {
		select {
		case m.alertChan <- n:
		default:
		}
	})

	notifSub := m.client.Subscribe(m.ctx, "notifications")
	go m.center.Watch(m.ctx, notifSub.Events, func() {
		select {
		case m.refreshChan <- "notifications":
		default:
		}
	})
}

// Stop tears down the realtime watchers
func (m *Model) Stop() {
	m.cancel()
}

// focusedColumn returns the id of the focused board column
func (m Model) focusedColumn() string {
	if m.colCursor < 0 || m.colCursor >= len(kanban.ColumnIDs) {
		return kanban.ColumnIDs[0]
	}
	return kanban.ColumnIDs[m.colCursor]
}

// focusedTask returns the task under the cursor, or nil
func (m Model) focusedTask() *model.Task {
	tasks := m.board.Column(m.focusedColumn())
	if m.taskCursor < 0 || m.taskCursor >= len(tasks) {
		return nil
	}
	t := tasks[m.taskCursor]
	return &t
}

// visibleInvoices returns the invoice list after search and filters
func (m Model) visibleInvoices() []model.Invoice {
	return m.invoices.Apply(m.searchText, m.filter)
}

// focusedInvoice returns the invoice under the cursor, or nil
func (m Model) focusedInvoice() *model.Invoice {
	items := m.visibleInvoices()
	if m.invCursor < 0 || m.invCursor >= len(items) {
		return nil
	}
	inv := items[m.invCursor]
	return &inv
}

func (m *Model) clampCursors() {
	tasks := m.board.Column(m.focusedColumn())
	if m.taskCursor >= len(tasks) {
		m.taskCursor = len(tasks) - 1
	}
	if m.taskCursor < 0 {
		m.taskCursor = 0
	}

	items := m.visibleInvoices()
	if m.invCursor >= len(items) {
		m.invCursor = len(items) - 1
	}
	if m.invCursor < 0 {
		m.invCursor = 0
	}
}
