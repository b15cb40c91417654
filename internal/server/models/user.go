// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that owns meals and their albums.
type User struct {
	ID           string
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}
