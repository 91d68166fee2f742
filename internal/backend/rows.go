package backend

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/billfold/billfold/internal/model"
)

// Row storage calls. Every table is scoped server-side to the
// authenticated user; ordering and `in` predicates travel as query
// parameters, there is no raw query language.

// --- Tasks ---

// ListTasks returns the user's tasks, newest first
func (c *Client) ListTasks() ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(http.MethodGet, "/api/v1/tasks?order=created_at.desc", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// InsertTask creates a task and returns the stored row with its generated id
func (c *Client) InsertTask(t model.Task) (model.Task, error) {
	var out model.Task
	if err := c.do(http.MethodPost, "/api/v1/tasks", t, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// UpdateTask patches a task and returns the authoritative stored row
func (c *Client) UpdateTask(t model.Task) (model.Task, error) {
	var out model.Task
	if err := c.do(http.MethodPatch, "/api/v1/tasks/"+url.PathEscape(t.ID), t, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// DeleteTask removes a task by id
func (c *Client) DeleteTask(id string) error {
	return c.do(http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil, nil)
}

// --- Invoices ---

// ListInvoices returns the user's invoices with vendor data expanded
func (c *Client) ListInvoices() ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := c.do(http.MethodGet, "/api/v1/invoices?expand=vendor&order=purchase_date.desc", nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoice fetches a single invoice by id with its vendor expanded
func (c *Client) GetInvoice(id string) (model.Invoice, error) {
	var out model.Invoice
	if err := c.do(http.MethodGet, "/api/v1/invoices/"+url.PathEscape(id)+"?expand=vendor", nil, &out); err != nil {
		return model.Invoice{}, err
	}
	return out, nil
}

// InsertInvoice creates an invoice and returns the stored row
func (c *Client) InsertInvoice(inv model.Invoice) (model.Invoice, error) {
	var out model.Invoice
	if err := c.do(http.MethodPost, "/api/v1/invoices", inv, &out); err != nil {
		return model.Invoice{}, err
	}
	return out, nil
}

// UpdateInvoice patches an invoice and returns the stored row
func (c *Client) UpdateInvoice(inv model.Invoice) (model.Invoice, error) {
	var out model.Invoice
	if err := c.do(http.MethodPatch, "/api/v1/invoices/"+url.PathEscape(inv.ID), inv, &out); err != nil {
		return model.Invoice{}, err
	}
	return out, nil
}

// DeleteInvoices removes all invoices whose ids are in the given set,
// as a single call with an `in` predicate.
func (c *Client) DeleteInvoices(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.QueryEscape(id)
	}
	return c.do(http.MethodDelete, "/api/v1/invoices?id=in.("+strings.Join(escaped, ",")+")", nil, nil)
}

// --- Notifications ---

// ListNotifications returns the newest limit notification rows for the user
func (c *Client) ListNotifications(limit int) ([]model.Notification, error) {
	var rows []model.Notification
	path := "/api/v1/notifications?order=created_at.desc&limit=" + strconv.Itoa(limit)
	if err := c.do(http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertNotification creates a notification row
func (c *Client) InsertNotification(n model.Notification) (model.Notification, error) {
	var out model.Notification
	if err := c.do(http.MethodPost, "/api/v1/notifications", n, &out); err != nil {
		return model.Notification{}, err
	}
	return out, nil
}

// MarkNotificationRead flags a single notification as read
func (c *Client) MarkNotificationRead(id string) error {
	return c.do(http.MethodPatch, "/api/v1/notifications/"+url.PathEscape(id), map[string]bool{"read": true}, nil)
}

// MarkAllNotificationsRead flags every notification for the user as read
func (c *Client) MarkAllNotificationsRead() error {
	return c.do(http.MethodPost, "/api/v1/notifications/read-all", nil, nil)
}

// ClearNotifications deletes every notification row for the user
func (c *Client) ClearNotifications() error {
	return c.do(http.MethodDelete, "/api/v1/notifications", nil, nil)
}

// --- Profiles ---

// FetchProfile returns the signed-in user's profile row.
// Returns ErrNotFound when no row exists yet.
func (c *Client) FetchProfile() (model.Profile, error) {
	var out model.Profile
	if err := c.do(http.MethodGet, "/api/v1/profile", nil, &out); err != nil {
		return model.Profile{}, err
	}
	return out, nil
}

// SaveProfile upserts the signed-in user's profile row
func (c *Client) SaveProfile(p model.Profile) (model.Profile, error) {
	var out model.Profile
	if err := c.do(http.MethodPut, "/api/v1/profile", p, &out); err != nil {
		return model.Profile{}, err
	}
	return out, nil
}
