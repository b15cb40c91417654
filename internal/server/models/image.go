package models

import "time"

// Image describes one persisted album picture. The bytes live in object
// storage under StorageKey (original) and ThumbKey (thumbnail); the row
// carries everything the album API reports back to clients.
type Image struct {
	// ID is the remote id clients use to reference the image.
	ID     string
	MealID string

	// Filename is the original upload filename.
	Filename string

	StorageKey string
	ThumbKey   string

	Width  int
	Height int

	// SortIndex is the image's position in the album's visual order.
	SortIndex int

	// IsKey marks the album's single key picture.
	IsKey bool

	// Deleted soft-deletes the row; deleted images drop out of album
	// listings but keep their object-storage keys until garbage collection.
	Deleted bool

	CreatedAt time.Time
}
