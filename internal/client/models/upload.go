// Package models defines client-side data models persisted in the local
// SQLite database.
package models

import "time"

// PendingUpload is a journal row for a picture the user queued but the
// server has not confirmed yet. Rows are removed once the upload completes
// or is canceled, so interrupted sessions can re-offer what is left.
type PendingUpload struct {
	ID        string
	MealID    string
	Path      string
	CreatedAt time.Time
}
