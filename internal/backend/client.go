package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/internal/model"
)

// AuthEventType identifies an auth state change pushed to listeners
type AuthEventType string

const (
	AuthSignedIn     AuthEventType = "signed-in"
	AuthSignedOut    AuthEventType = "signed-out"
	AuthTokenRefresh AuthEventType = "token-refreshed"
	AuthUserUpdated  AuthEventType = "user-updated"
)

// AuthEvent is delivered to auth listeners on every session change
type AuthEvent struct {
	Type    AuthEventType
	Session *model.Session
}

// Config holds the persisted client state
type Config struct {
	ServerURL    string    `json:"server_url"`
	APIKey       string    `json:"api_key,omitempty"`
	Token        string    `json:"token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Client is the facade over the backend platform: auth, row storage,
// object storage and realtime subscriptions.
type Client struct {
	config     *Config
	configPath string
	httpClient *http.Client
	// streamClient has no timeout: SSE connections are long-lived
	streamClient *http.Client

	mu            sync.Mutex
	authListeners []chan AuthEvent
}

// NewClient creates a new backend client, loading any persisted session
func NewClient(serverURL, apiKey string) (*Client, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	c := &Client{
		configPath:   filepath.Join(home, ".billfold", "session.json"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		streamClient: &http.Client{},
	}

	c.loadConfig()
	if serverURL != "" {
		c.config.ServerURL = serverURL
	}
	if apiKey != "" {
		c.config.APIKey = apiKey
	}

	return c, nil
}

func (c *Client) loadConfig() {
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		c.config = &Config{ServerURL: "http://localhost:8080"}
		return
	}

	c.config = &Config{}
	json.Unmarshal(data, c.config)
}

func (c *Client) saveConfig() error {
	dir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0600)
}

// ServerURL returns the configured backend endpoint
func (c *Client) ServerURL() string {
	return c.config.ServerURL
}

// IsSignedIn returns true if a session token is held
func (c *Client) IsSignedIn() bool {
	return c.config.Token != ""
}

// UserID returns the signed-in user's id, or "" when signed out
func (c *Client) UserID() string {
	return c.config.UserID
}

// CurrentSession returns the persisted session, or nil when signed out
func (c *Client) CurrentSession() *model.Session {
	if c.config.Token == "" {
		return nil
	}
	return &model.Session{
		Token:        c.config.Token,
		RefreshToken: c.config.RefreshToken,
		UserID:       c.config.UserID,
		Email:        c.config.Email,
		ExpiresAt:    c.config.ExpiresAt,
	}
}

// OnAuthChange registers a listener for auth state changes. The returned
// channel is closed when the client shuts down the listener set.
func (c *Client) OnAuthChange() <-chan AuthEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan AuthEvent, 4)
	c.authListeners = append(c.authListeners, ch)
	return ch
}

func (c *Client) notifyAuth(ev AuthEvent) {
	c.mu.Lock()
	listeners := make([]chan AuthEvent, len(c.authListeners))
	copy(listeners, c.authListeners)
	c.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- ev:
		default:
			// Listener is not draining; drop rather than block
		}
	}
}

// do issues an authenticated request and decodes the JSON response into out
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	url := c.config.ServerURL + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("method", method), logger.F("url", url), logger.F("error", err))
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("Request failed",
			logger.F("method", method),
			logger.F("url", url),
			logger.F("status", resp.StatusCode),
			logger.F("response", string(respBody)))
		return decodeError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type authResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

func (c *Client) applyAuth(result authResult) error {
	c.config.Token = result.Token
	c.config.RefreshToken = result.RefreshToken
	c.config.UserID = result.UserID
	c.config.Email = result.Email
	if t, err := time.Parse(time.RFC3339, result.ExpiresAt); err == nil {
		c.config.ExpiresAt = t
	}
	return c.saveConfig()
}

// SignUp creates a new account and signs in
func (c *Client) SignUp(email, password string) error {
	var result authResult
	err := c.do(http.MethodPost, "/api/v1/register", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return err
	}

	if err := c.applyAuth(result); err != nil {
		return err
	}
	c.notifyAuth(AuthEvent{Type: AuthSignedIn, Session: c.CurrentSession()})
	return nil
}

// SignIn authenticates with email and password
func (c *Client) SignIn(email, password string) error {
	var result authResult
	err := c.do(http.MethodPost, "/api/v1/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return err
	}

	if err := c.applyAuth(result); err != nil {
		return err
	}
	c.notifyAuth(AuthEvent{Type: AuthSignedIn, Session: c.CurrentSession()})
	return nil
}

// SignInWithProvider exchanges a provider-issued OIDC id token for a
// session. The token is obtained out of band; the server verifies it
// against the provider before creating the session.
func (c *Client) SignInWithProvider(provider, idToken string) error {
	var result authResult
	err := c.do(http.MethodPost, "/api/v1/oauth", map[string]string{
		"provider": provider,
		"id_token": idToken,
	}, &result)
	if err != nil {
		return err
	}

	if err := c.applyAuth(result); err != nil {
		return err
	}
	c.notifyAuth(AuthEvent{Type: AuthSignedIn, Session: c.CurrentSession()})
	return nil
}

// SetSession adopts a session pair delivered out of band, such as the
// tokens embedded in a recovery link. The user behind the tokens is
// resolved from the backend; invalid tokens leave the client signed out.
func (c *Client) SetSession(token, refreshToken string) error {
	c.config.Token = token
	c.config.RefreshToken = refreshToken

	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := c.do(http.MethodGet, "/api/v1/me", nil, &me); err != nil {
		c.config.Token = ""
		c.config.RefreshToken = ""
		return fmt.Errorf("session tokens rejected: %w", err)
	}

	c.config.UserID = me.ID
	c.config.Email = me.Email
	c.config.ExpiresAt = time.Time{}
	if err := c.saveConfig(); err != nil {
		return err
	}

	c.notifyAuth(AuthEvent{Type: AuthSignedIn, Session: c.CurrentSession()})
	return nil
}

// ConfirmPasswordReset redeems a recovery token, setting the new
// password and signing in with the returned session in one call
func (c *Client) ConfirmPasswordReset(recoveryToken, newPassword string) error {
	var result authResult
	err := c.do(http.MethodPost, "/api/v1/password-reset/confirm", map[string]string{
		"token":    recoveryToken,
		"password": newPassword,
	}, &result)
	if err != nil {
		return err
	}

	if err := c.applyAuth(result); err != nil {
		return err
	}
	c.notifyAuth(AuthEvent{Type: AuthSignedIn, Session: c.CurrentSession()})
	return nil
}

// RefreshSession exchanges the refresh token for a new access token
func (c *Client) RefreshSession() (*model.Session, error) {
	if c.config.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token held")
	}

	var result authResult
	err := c.do(http.MethodPost, "/api/v1/refresh", map[string]string{
		"refresh_token": c.config.RefreshToken,
	}, &result)
	if err != nil {
		return nil, err
	}

	if err := c.applyAuth(result); err != nil {
		return nil, err
	}
	session := c.CurrentSession()
	c.notifyAuth(AuthEvent{Type: AuthTokenRefresh, Session: session})
	return session, nil
}

// SignOut invalidates the session remotely and clears the persisted state.
// The local state is cleared even when the remote call fails.
func (c *Client) SignOut() error {
	remoteErr := c.do(http.MethodPost, "/api/v1/logout", nil, nil)
	if remoteErr != nil {
		logger.Warn("Remote logout failed, clearing local session anyway", logger.F("error", remoteErr))
	}

	c.config.Token = ""
	c.config.RefreshToken = ""
	c.config.UserID = ""
	c.config.Email = ""
	c.config.ExpiresAt = time.Time{}
	if err := c.saveConfig(); err != nil {
		return err
	}

	c.notifyAuth(AuthEvent{Type: AuthSignedOut})
	return nil
}

// UpdatePassword changes the signed-in user's password
func (c *Client) UpdatePassword(newPassword string) error {
	err := c.do(http.MethodPatch, "/api/v1/user", map[string]string{
		"password": newPassword,
	}, nil)
	if err != nil {
		return err
	}
	c.notifyAuth(AuthEvent{Type: AuthUserUpdated, Session: c.CurrentSession()})
	return nil
}

// SendPasswordReset dispatches a password-reset email
func (c *Client) SendPasswordReset(email string) error {
	return c.do(http.MethodPost, "/api/v1/password-reset", map[string]string{
		"email": email,
	}, nil)
}
