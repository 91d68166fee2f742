package model

import "time"

// Notification types
const (
	NotifyInvoice  = "invoice"
	NotifyWarranty = "warranty"
	NotifyTask     = "task"
	NotifySystem   = "system"
)

// Notification is a per-user event row shown in the notification center
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
