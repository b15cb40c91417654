package models

import "time"

// Meal is the record an album of pictures is attached to.
type Meal struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}
