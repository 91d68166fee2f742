package invoice

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/model"
)

// Store is the slice of the backend client the service needs
type Store interface {
	ListInvoices() ([]model.Invoice, error)
	GetInvoice(id string) (model.Invoice, error)
	InsertInvoice(inv model.Invoice) (model.Invoice, error)
	UpdateInvoice(inv model.Invoice) (model.Invoice, error)
	DeleteInvoices(ids []string) error
}

// Filter holds the in-memory list predicates. Zero values mean "any";
// date bounds are inclusive.
type Filter struct {
	Status      string
	Category    string
	PaymentMode string
	From        time.Time
	To          time.Time
}

// Service holds the full in-memory invoice list and applies search,
// filtering and export client-side. Predicates are never pushed into the
// backend query.
type Service struct {
	store Store

	mu    sync.Mutex
	items []model.Invoice
}

// NewService creates an invoice service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Refresh refetches the full list, vendors expanded
func (s *Service) Refresh() error {
	items, err := s.store.ListInvoices()
	if err != nil {
		return fmt.Errorf("failed to fetch invoices: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// All returns a copy of the loaded invoices
func (s *Service) All() []model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Invoice, len(s.items))
	copy(out, s.items)
	return out
}

// Get fetches a single invoice by id from the backend
func (s *Service) Get(id string) (model.Invoice, error) {
	return s.store.GetInvoice(id)
}

// Create inserts an invoice and adds the echoed row to the local list
func (s *Service) Create(inv model.Invoice) (model.Invoice, error) {
	created, err := s.store.InsertInvoice(inv)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.mu.Lock()
	s.items = append([]model.Invoice{created}, s.items...)
	s.mu.Unlock()
	return created, nil
}

// Update patches an invoice and replaces the local copy by id
func (s *Service) Update(inv model.Invoice) (model.Invoice, error) {
	updated, err := s.store.UpdateInvoice(inv)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == updated.ID {
			s.items[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// BulkDelete removes the selected invoices in a single backend call with
// an `in` predicate over the ids, then drops them locally.
func (s *Service) BulkDelete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.DeleteInvoices(ids); err != nil {
		return fmt.Errorf("failed to delete invoices: %w", err)
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, inv := range s.items {
		if !drop[inv.ID] {
			kept = append(kept, inv)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return nil
}

// Search returns the loaded invoices whose id, title or vendor name
// contains the query, case-insensitively. An empty query matches all.
func (s *Service) Search(query string) []model.Invoice {
	return SearchInvoices(s.All(), query)
}

// Apply returns the loaded invoices matching both the search query and
// the filter predicates.
func (s *Service) Apply(query string, f Filter) []model.Invoice {
	return FilterInvoices(SearchInvoices(s.All(), query), f)
}

// SearchInvoices applies the case-insensitive substring match across
// id, title and vendor name.
func SearchInvoices(items []model.Invoice, query string) []model.Invoice {
	if query == "" {
		return items
	}

	q := strings.ToLower(query)
	var out []model.Invoice
	for _, inv := range items {
		if strings.Contains(strings.ToLower(inv.ID), q) ||
			strings.Contains(strings.ToLower(inv.Title), q) ||
			strings.Contains(strings.ToLower(inv.Vendor.Name), q) {
			out = append(out, inv)
		}
	}
	return out
}

// FilterInvoices applies the filter predicates in memory
func FilterInvoices(items []model.Invoice, f Filter) []model.Invoice {
	var out []model.Invoice
	for _, inv := range items {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.Category != "" && inv.Category != f.Category {
			continue
		}
		if f.PaymentMode != "" && inv.PaymentMode != f.PaymentMode {
			continue
		}
		if !f.From.IsZero() && inv.PurchaseDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && inv.PurchaseDate.After(f.To) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// csvHeader is the column order of CSV exports
var csvHeader = []string{
	"id", "title", "vendor", "amount", "currency",
	"purchase_date", "payment_mode", "status", "category", "notes",
}

// ExportCSV writes the given rows as CSV. Synchronous and client-side,
// built only from the rows passed in (the caller's selection).
func ExportCSV(w io.Writer, rows []model.Invoice) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, inv := range rows {
		record := []string{
			inv.ID,
			inv.Title,
			inv.Vendor.Name,
			inv.Amount.String(),
			inv.Currency,
			inv.PurchaseDate.Format("2006-01-02"),
			inv.PaymentMode,
			inv.Status,
			inv.Category,
			inv.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
