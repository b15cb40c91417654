package httpapi

import (
	"net/http"

	"github.com/mealbook/mealbook/internal/logging"
	"github.com/mealbook/mealbook/internal/server/services"
)

// RegisterRoutes wires all API endpoints onto mux. Album endpoints sit
// behind bearer-token auth; registration, login, and refresh do not.
func RegisterRoutes(mux *http.ServeMux, users *services.UserService, albums *services.AlbumService, secretKey []byte, log logging.Logger) {
	authHandler := NewAuthHandler(users, log)
	albumHandler := NewAlbumHandler(albums, log)

	mux.HandleFunc("POST /api/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/refresh", authHandler.HandleRefresh)

	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(secretKey, h)
	}

	mux.Handle("POST /api/meals", protected(albumHandler.HandleCreateMeal))
	mux.Handle("GET /api/meals", protected(albumHandler.HandleListMeals))
	mux.Handle("GET /api/meals/{id}/album", protected(albumHandler.HandleGetAlbum))
	mux.Handle("POST /api/meals/{id}/images", protected(albumHandler.HandleUpload))
	mux.Handle("PATCH /api/meals/{id}/key", protected(albumHandler.HandleSetKey))
	mux.Handle("PATCH /api/meals/{id}/order", protected(albumHandler.HandleReorder))
	mux.Handle("POST /api/meals/{id}/deletions", protected(albumHandler.HandleDeletions))
}
