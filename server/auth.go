package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and password required"})
	}

	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.Logger().Error("bcrypt error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	var userID string
	err = s.db.QueryRow(`
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id`,
		req.Email, string(hash),
	).Scan(&userID)

	if err != nil {
		if strings.Contains(err.Error(), "unique") {
			return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
		}
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	// Each user gets an empty profile row up front
	if _, err := s.db.Exec(`
		INSERT INTO profiles (user_id, email) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, req.Email,
	); err != nil {
		c.Logger().Error("profile creation error:", err)
	}

	resp, err := s.createSession(userID, req.Email)
	if err != nil {
		c.Logger().Error("session error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	c.Logger().Infof("User registered: %s", req.Email)
	return c.JSON(http.StatusOK, resp)
}

// handleLogin handles password sign-in
func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	var userID, passwordHash string
	err := s.db.QueryRow(`
		SELECT id, password_hash FROM users WHERE email = $1`,
		req.Email,
	).Scan(&userID, &passwordHash)

	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	resp, err := s.createSession(userID, req.Email)
	if err != nil {
		c.Logger().Error("session error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	c.Logger().Infof("User logged in: %s", req.Email)
	return c.JSON(http.StatusOK, resp)
}

// handleRefresh exchanges a refresh token for a fresh session pair
func (s *Server) handleRefresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "refresh_token required"})
	}

	var userID, email string
	err := s.db.QueryRow(`
		SELECT s.user_id, u.email
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.refresh_token = $1`,
		req.RefreshToken,
	).Scan(&userID, &email)

	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
	}

	// Rotate: the old session pair is gone once refresh succeeds
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, req.RefreshToken); err != nil {
		c.Logger().Error("session rotation error:", err)
	}

	resp, err := s.createSession(userID, email)
	if err != nil {
		c.Logger().Error("session error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, resp)
}

// handleLogout invalidates the presented session token
func (s *Server) handleLogout(c echo.Context) error {
	token := bearerToken(c)
	if token != "" {
		if _, err := s.db.Exec(`DELETE FROM sessions WHERE token = $1`, token); err != nil {
			c.Logger().Error("logout error:", err)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "signed out"})
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var email, provider string
	err := s.db.QueryRow(`
		SELECT email, provider FROM users WHERE id = $1`,
		userID,
	).Scan(&email, &provider)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"id":       userID,
		"email":    email,
		"provider": provider,
	})
}

// handleUserUpdate changes the signed-in user's password
func (s *Server) handleUserUpdate(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Password != "" {
		if len(req.Password) < 8 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.Logger().Error("bcrypt error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		if _, err := s.db.Exec(`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
			string(hash), userID); err != nil {
			c.Logger().Error("db error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

// handlePasswordReset issues a recovery token. There is no mailer wired
// in; the token lands in the user's notification feed and the server
// log, and completes the reset via /password-reset/confirm.
func (s *Server) handlePasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email required"})
	}

	var userID string
	err := s.db.QueryRow(`SELECT id FROM users WHERE email = $1`, req.Email).Scan(&userID)
	if err != nil {
		// Don't reveal whether the email exists
		return c.JSON(http.StatusOK, map[string]string{"message": "if the email exists, a reset will be sent"})
	}

	token, err := randomToken()
	if err != nil {
		c.Logger().Error("token generation error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if _, err := s.db.Exec(`
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		token, userID, time.Now().Add(time.Hour),
	); err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	c.Logger().Infof("Password reset requested for %s token=%s", req.Email, token)
	s.insertNotification(c, userID, "Password reset requested",
		"Recovery token: "+token, "system", "key")

	return c.JSON(http.StatusOK, map[string]string{"message": "if the email exists, a reset will be sent"})
}

// handlePasswordResetConfirm exchanges a recovery token for a fresh
// session, setting the new password in the same call. The token is
// single-use and every existing session for the user is invalidated.
func (s *Server) handlePasswordResetConfirm(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token required"})
	}

	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
	}

	var userID, email string
	err := s.db.QueryRow(`
		SELECT r.user_id, u.email
		FROM password_resets r JOIN users u ON u.id = r.user_id
		WHERE r.token = $1 AND r.expires_at > NOW()`,
		req.Token,
	).Scan(&userID, &email)

	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired recovery token"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.Logger().Error("bcrypt error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if _, err := s.db.Exec(`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		string(hash), userID); err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if _, err := s.db.Exec(`DELETE FROM password_resets WHERE user_id = $1`, userID); err != nil {
		c.Logger().Error("reset cleanup error:", err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		c.Logger().Error("session cleanup error:", err)
	}

	resp, err := s.createSession(userID, email)
	if err != nil {
		c.Logger().Error("session error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	c.Logger().Infof("Password reset completed for %s", email)
	return c.JSON(http.StatusOK, resp)
}

// createSession creates a new session pair for a user
func (s *Server) createSession(userID, email string) (authResponse, error) {
	token, err := randomToken()
	if err != nil {
		return authResponse{}, err
	}
	refreshToken, err := randomToken()
	if err != nil {
		return authResponse{}, err
	}

	// Access tokens live a bit over the client's hourly refresh interval
	expiresAt := time.Now().Add(90 * time.Minute)

	_, err = s.db.Exec(`
		INSERT INTO sessions (user_id, token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)`,
		userID, token, refreshToken, expiresAt,
	)
	if err != nil {
		return authResponse{}, err
	}

	return authResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
		UserID:       userID,
		Email:        email,
	}, nil
}

func randomToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}
