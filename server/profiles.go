package server

import (
	"net/http"

	"github.com/billfold/billfold/internal/model"
	"github.com/labstack/echo/v4"
)

// handleProfileGet returns the user's profile row
func (s *Server) handleProfileGet(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var p model.Profile
	err := s.db.QueryRow(`
		SELECT user_id, name, email, phone, avatar_url, updated_at
		FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.AvatarURL, &p.UpdatedAt)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
	}

	return c.JSON(http.StatusOK, p)
}

// handleProfileUpsert creates or replaces the user's profile row
func (s *Server) handleProfileUpsert(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var p model.Profile
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	var out model.Profile
	err := s.db.QueryRow(`
		INSERT INTO profiles (user_id, name, email, phone, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING user_id, name, email, phone, avatar_url, updated_at`,
		userID, p.Name, p.Email, p.Phone, p.AvatarURL,
	).Scan(&out.UserID, &out.Name, &out.Email, &out.Phone, &out.AvatarURL, &out.UpdatedAt)

	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, out)
}
