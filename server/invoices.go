package server

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
)

const invoiceColumns = `
	i.id, i.user_id, i.title, i.amount, i.currency, i.purchase_date,
	i.payment_mode, i.status, i.category, i.warranty_months, i.notes,
	i.image_url, i.created_at, i.updated_at,
	COALESCE(v.id::text, ''), COALESCE(v.name, ''), COALESCE(v.short_name, ''), COALESCE(v.address, '')`

func scanInvoice(scan func(dest ...interface{}) error) (model.Invoice, error) {
	var inv model.Invoice
	err := scan(
		&inv.ID, &inv.UserID, &inv.Title, &inv.Amount, &inv.Currency, &inv.PurchaseDate,
		&inv.PaymentMode, &inv.Status, &inv.Category, &inv.WarrantyMonths, &inv.Notes,
		&inv.ImageURL, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.Vendor.ID, &inv.Vendor.Name, &inv.Vendor.ShortName, &inv.Vendor.Address,
	)
	return inv, err
}

// upsertVendor resolves the invoice's vendor row by (user, name),
// creating it on first use. Returns a null id when no vendor is named.
func (s *Server) upsertVendor(userID string, v model.Vendor) (sql.NullString, error) {
	if v.Name == "" {
		return sql.NullString{}, nil
	}

	var id string
	err := s.db.QueryRow(`
		INSERT INTO vendors (user_id, name, short_name, address)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO UPDATE SET
			short_name = EXCLUDED.short_name,
			address = EXCLUDED.address
		RETURNING id`,
		userID, v.Name, v.ShortName, v.Address,
	).Scan(&id)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: id, Valid: true}, nil
}

// handleInvoiceList returns the user's invoices with vendors expanded
func (s *Server) handleInvoiceList(c echo.Context) error {
	userID := c.Get("user_id").(string)

	rows, err := s.db.Query(`
		SELECT `+invoiceColumns+`
		FROM invoices i LEFT JOIN vendors v ON v.id = i.vendor_id
		WHERE i.user_id = $1
		ORDER BY i.purchase_date DESC`,
		userID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	invoices := []model.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			c.Logger().Error("scan error:", err)
			continue
		}
		invoices = append(invoices, inv)
	}

	return c.JSON(http.StatusOK, invoices)
}

// handleInvoiceGet returns a single invoice by id
func (s *Server) handleInvoiceGet(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	row := s.db.QueryRow(`
		SELECT `+invoiceColumns+`
		FROM invoices i LEFT JOIN vendors v ON v.id = i.vendor_id
		WHERE i.id = $1 AND i.user_id = $2`,
		id, userID,
	)

	inv, err := scanInvoice(row.Scan)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "invoice not found"})
	}

	return c.JSON(http.StatusOK, inv)
}

// handleInvoiceCreate inserts an invoice and echoes the stored row
func (s *Server) handleInvoiceCreate(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var inv model.Invoice
	if err := c.Bind(&inv); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if inv.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}
	if !model.ValidInvoiceStatus(inv.Status) {
		inv.Status = model.InvoicePending
	}

	vendorID, err := s.upsertVendor(userID, inv.Vendor)
	if err != nil {
		c.Logger().Error("vendor error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	var id string
	err = s.db.QueryRow(`
		INSERT INTO invoices (user_id, vendor_id, title, amount, currency, purchase_date,
			payment_mode, status, category, warranty_months, notes, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		userID, vendorID, inv.Title, inv.Amount, inv.Currency, inv.PurchaseDate,
		inv.PaymentMode, inv.Status, inv.Category, inv.WarrantyMonths, inv.Notes, inv.ImageURL,
	).Scan(&id)

	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	out, err := s.fetchInvoice(id, userID)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.notifyInvoiceChange(c, userID, "Invoice added", out.Title)
	s.publish(c, "invoices", "insert", out)
	return c.JSON(http.StatusOK, out)
}

// handleInvoiceUpdate patches an invoice and echoes the stored row
func (s *Server) handleInvoiceUpdate(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	var inv model.Invoice
	if err := c.Bind(&inv); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if !model.ValidInvoiceStatus(inv.Status) {
		inv.Status = model.InvoicePending
	}

	vendorID, err := s.upsertVendor(userID, inv.Vendor)
	if err != nil {
		c.Logger().Error("vendor error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	result, err := s.db.Exec(`
		UPDATE invoices
		SET vendor_id = $1, title = $2, amount = $3, currency = $4, purchase_date = $5,
			payment_mode = $6, status = $7, category = $8, warranty_months = $9,
			notes = $10, image_url = $11, updated_at = NOW()
		WHERE id = $12 AND user_id = $13`,
		vendorID, inv.Title, inv.Amount, inv.Currency, inv.PurchaseDate,
		inv.PaymentMode, inv.Status, inv.Category, inv.WarrantyMonths,
		inv.Notes, inv.ImageURL, id, userID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "invoice not found"})
	}

	out, err := s.fetchInvoice(id, userID)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.publish(c, "invoices", "update", out)
	return c.JSON(http.StatusOK, out)
}

// handleInvoiceDelete removes a single invoice by id
func (s *Server) handleInvoiceDelete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	result, err := s.db.Exec(`DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "invoice not found"})
	}

	s.publish(c, "invoices", "delete", map[string]string{"id": id})
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// handleInvoiceBulkDelete removes all invoices matching an `in`
// predicate over ids: DELETE /api/v1/invoices?id=in.(a,b,c)
func (s *Server) handleInvoiceBulkDelete(c echo.Context) error {
	userID := c.Get("user_id").(string)

	predicate := c.QueryParam("id")
	if !strings.HasPrefix(predicate, "in.(") || !strings.HasSuffix(predicate, ")") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id=in.(...) predicate required"})
	}

	ids := strings.Split(strings.TrimSuffix(strings.TrimPrefix(predicate, "in.("), ")"), ",")
	if len(ids) == 0 || ids[0] == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no ids given"})
	}

	result, err := s.db.Exec(`DELETE FROM invoices WHERE user_id = $1 AND id = ANY($2)`,
		userID, pq.Array(ids))
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	deleted, _ := result.RowsAffected()
	for _, id := range ids {
		s.publish(c, "invoices", "delete", map[string]string{"id": id})
	}

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) fetchInvoice(id, userID string) (model.Invoice, error) {
	row := s.db.QueryRow(`
		SELECT `+invoiceColumns+`
		FROM invoices i LEFT JOIN vendors v ON v.id = i.vendor_id
		WHERE i.id = $1 AND i.user_id = $2`,
		id, userID,
	)
	return scanInvoice(row.Scan)
}
