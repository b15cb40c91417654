package models

import "time"

// RefreshToken is a single-use token exchanged for a fresh token pair.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
