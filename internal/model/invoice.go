package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses
const (
	InvoicePaid    = "paid"
	InvoicePending = "pending"
	InvoiceOverdue = "overdue"
	InvoiceEMI     = "emi"
)

// Payment modes
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentUPI  = "upi"
	PaymentBank = "bank-transfer"
)

// Vendor is the seller an invoice was issued by
type Vendor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Invoice represents a purchase record with its vendor expanded
type Invoice struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Title          string          `json:"title"`
	Vendor         Vendor          `json:"vendor"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	PaymentMode    string          `json:"payment_mode"`
	Status         string          `json:"status"`
	Category       string          `json:"category,omitempty"`
	WarrantyMonths int             `json:"warranty_months,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ValidInvoiceStatus reports whether s is a known invoice status
func ValidInvoiceStatus(s string) bool {
	return s == InvoicePaid || s == InvoicePending || s == InvoiceOverdue || s == InvoiceEMI
}

// WarrantyExpiry returns the end of the warranty period, or the zero time
// if the invoice carries no warranty.
func (i *Invoice) WarrantyExpiry() time.Time {
	if i.WarrantyMonths <= 0 {
		return time.Time{}
	}
	return i.PurchaseDate.AddDate(0, i.WarrantyMonths, 0)
}
