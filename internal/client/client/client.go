// Package client talks to the Mealbook server API and owns the local
// SQLite database backing the upload journal.
package client

import (
	"context"

	"github.com/mealbook/mealbook/internal/netx"
)

// Meal is a meal as reported by the server.
type Meal struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AlbumImage is one album picture as reported by the server: the remote id
// plus presigned links and display metadata.
type AlbumImage struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	ThumbImageURL string `json:"thumbImageURL"`
	FullImageURL  string `json:"fullImageURL"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SortIndex     int    `json:"sortIndex"`
	IsKey         bool   `json:"isKey"`
}

// Client is the API surface the CLI and album session work against.
type Client interface {
	Close() error
	Register(ctx context.Context, login string, password []byte) error
	Login(ctx context.Context, login string, password []byte) error
	CreateMeal(ctx context.Context, title string) (*Meal, error)
	ListMeals(ctx context.Context) ([]Meal, error)
	FetchAlbum(ctx context.Context, mealID string) ([]AlbumImage, error)
	Upload(ctx context.Context, mealID, path string, progress netx.ProgressFunc) (*AlbumImage, error)
	SetKeyImage(ctx context.Context, mealID, imageID string) error
	Reorder(ctx context.Context, mealID string, ids []string) error
	SubmitDeletions(ctx context.Context, mealID string, ids []string) error
}
