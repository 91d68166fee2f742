package server

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/billfold/billfold/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/labstack/echo/v4"
)

// oidcEnvPrefix names the env vars that register external sign-in
// providers: BILLFOLD_OIDC_GOOGLE="https://accounts.google.com client-id"
// registers a provider called "google".
const oidcEnvPrefix = "BILLFOLD_OIDC_"

type oauthRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
}

// loadOIDCProviders runs discovery for every configured provider. A
// provider whose issuer is unreachable is skipped so the server still
// comes up with password auth.
func (s *Server) loadOIDCProviders() {
	s.oidc = make(map[string]*oidc.IDTokenVerifier)

	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) != 2 || !strings.HasPrefix(kv[0], oidcEnvPrefix) {
			continue
		}

		name := strings.ToLower(strings.TrimPrefix(kv[0], oidcEnvPrefix))
		issuer, clientID, ok := splitIssuerClient(kv[1])
		if !ok {
			logger.Warn("Bad OIDC provider config", logger.F("provider", name))
			continue
		}

		provider, err := oidc.NewProvider(context.Background(), issuer)
		if err != nil {
			logger.Warn("OIDC discovery failed",
				logger.F("provider", name), logger.F("issuer", issuer), logger.F("error", err))
			continue
		}

		s.oidc[name] = provider.Verifier(&oidc.Config{ClientID: clientID})
		logger.Info("OIDC provider registered", logger.F("provider", name), logger.F("issuer", issuer))
	}
}

// splitIssuerClient parses an "issuer-url client-id" pair
func splitIssuerClient(v string) (issuer, clientID string, ok bool) {
	fields := strings.Fields(v)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// handleOAuthLogin exchanges a provider-issued id token for a session.
// The user row is created on first sign-in, keyed by the verified email.
func (s *Server) handleOAuthLogin(c echo.Context) error {
	var req oauthRequest
	if err := c.Bind(&req); err != nil || req.Provider == "" || req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "provider and id_token required"})
	}

	verifier, ok := s.oidc[req.Provider]
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown provider"})
	}

	idToken, err := verifier.Verify(c.Request().Context(), req.IDToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid id token"})
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "id token carries no email"})
	}

	// Provider users have no usable password hash; password login for
	// the same email keeps failing bcrypt against the empty hash.
	var userID string
	err = s.db.QueryRow(`
		INSERT INTO users (email, password_hash, provider)
		VALUES ($1, '', $2)
		ON CONFLICT (email) DO UPDATE SET provider = EXCLUDED.provider, updated_at = NOW()
		RETURNING id`,
		claims.Email, req.Provider,
	).Scan(&userID)

	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if _, err := s.db.Exec(`
		INSERT INTO profiles (user_id, email) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, claims.Email,
	); err != nil {
		c.Logger().Error("profile creation error:", err)
	}

	resp, err := s.createSession(userID, claims.Email)
	if err != nil {
		c.Logger().Error("session error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	c.Logger().Infof("User signed in via %s: %s", req.Provider, claims.Email)
	return c.JSON(http.StatusOK, resp)
}
