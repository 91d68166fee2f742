package server

import (
	"net/http"
	"strconv"

	"github.com/billfold/billfold/internal/model"
	"github.com/labstack/echo/v4"
)

// handleNotificationList returns the newest notification rows for the user
func (s *Server) handleNotificationList(c echo.Context) error {
	userID := c.Get("user_id").(string)

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, title, message, type, icon, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	items := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&n.Icon, &n.Read, &n.CreatedAt); err != nil {
			c.Logger().Error("scan error:", err)
			continue
		}
		items = append(items, n)
	}

	return c.JSON(http.StatusOK, items)
}

// handleNotificationCreate inserts a notification row
func (s *Server) handleNotificationCreate(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var n model.Notification
	if err := c.Bind(&n); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if n.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}

	var out model.Notification
	err := s.db.QueryRow(`
		INSERT INTO notifications (user_id, title, message, type, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, message, type, icon, read, created_at`,
		userID, n.Title, n.Message, n.Type, n.Icon,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Message, &out.Type,
		&out.Icon, &out.Read, &out.CreatedAt)

	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.publish(c, "notifications", "insert", out)
	return c.JSON(http.StatusOK, out)
}

// handleNotificationUpdate patches a notification's read flag
func (s *Server) handleNotificationUpdate(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	var req struct {
		Read bool `json:"read"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	var out model.Notification
	err := s.db.QueryRow(`
		UPDATE notifications SET read = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, title, message, type, icon, read, created_at`,
		req.Read, id, userID,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Message, &out.Type,
		&out.Icon, &out.Read, &out.CreatedAt)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notification not found"})
	}

	s.publish(c, "notifications", "update", out)
	return c.JSON(http.StatusOK, out)
}

// handleNotificationReadAll flags every notification for the user as read
func (s *Server) handleNotificationReadAll(c echo.Context) error {
	userID := c.Get("user_id").(string)

	if _, err := s.db.Exec(`UPDATE notifications SET read = TRUE WHERE user_id = $1`, userID); err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.publish(c, "notifications", "update", map[string]bool{"read": true})
	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

// handleNotificationClear deletes every notification row for the user
func (s *Server) handleNotificationClear(c echo.Context) error {
	userID := c.Get("user_id").(string)

	result, err := s.db.Exec(`DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	deleted, _ := result.RowsAffected()
	s.publish(c, "notifications", "delete", map[string]int64{"deleted": deleted})
	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// insertNotification creates a notification row outside the usual
// handler path (invoice CRUD, password resets) and feeds the realtime
// channel for it.
func (s *Server) insertNotification(c echo.Context, userID, title, message, notifType, icon string) {
	var out model.Notification
	err := s.db.QueryRow(`
		INSERT INTO notifications (user_id, title, message, type, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, message, type, icon, read, created_at`,
		userID, title, message, notifType, icon,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Message, &out.Type,
		&out.Icon, &out.Read, &out.CreatedAt)

	if err != nil {
		c.Logger().Error("notification insert error:", err)
		return
	}

	s.hub.Publish(userID, "notifications", "insert", out)
}

// notifyInvoiceChange records an invoice event in the notification feed
func (s *Server) notifyInvoiceChange(c echo.Context, userID, title, invoiceTitle string) {
	s.insertNotification(c, userID, title, invoiceTitle, model.NotifyInvoice, "receipt")
}
