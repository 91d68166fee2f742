package model

import "time"

// User represents an account on the backend
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Provider     string    `json:"provider,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents an active login session
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Profile is the single editable profile row per user
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultProfile returns the profile created for a brand-new user
func DefaultProfile(userID, email string) Profile {
	return Profile{
		UserID:    userID,
		Name:      "",
		Email:     email,
		UpdatedAt: time.Now(),
	}
}
