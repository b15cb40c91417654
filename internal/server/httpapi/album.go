package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/logging"
	"github.com/mealbook/mealbook/internal/server/services"
)

// maxUploadBytes caps the multipart form size for picture uploads.
const maxUploadBytes = 20 << 20

// AlbumHandler handles meals and their picture albums.
type AlbumHandler struct {
	albums *services.AlbumService
	log    logging.Logger
}

// NewAlbumHandler creates a new AlbumHandler.
func NewAlbumHandler(albums *services.AlbumService, log logging.Logger) *AlbumHandler {
	return &AlbumHandler{albums: albums, log: log}
}

type mealResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type imageResponse struct {
	ID            string `json:"id"`
	Filename      string `json:"filename,omitempty"`
	ThumbImageURL string `json:"thumbImageURL"`
	FullImageURL  string `json:"fullImageURL"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SortIndex     int    `json:"sortIndex"`
	IsKey         bool   `json:"isKey"`
}

func toImageResponse(ai *services.AlbumImage) imageResponse {
	return imageResponse{
		ID:            ai.ID,
		Filename:      ai.Filename,
		ThumbImageURL: ai.ThumbImageURL,
		FullImageURL:  ai.FullImageURL,
		Width:         ai.Width,
		Height:        ai.Height,
		SortIndex:     ai.SortIndex,
		IsKey:         ai.IsKey,
	}
}

// writeAlbumError maps service errors onto HTTP statuses shared by all
// album endpoints. Foreign meals are reported as 404, same as missing ones,
// so the API does not leak which ids exist.
func (h *AlbumHandler) writeAlbumError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusNotFound, "meal not found")
	case errors.Is(err, common.ErrorNotAnImage):
		writeError(w, http.StatusUnprocessableEntity, "uploaded file is not a supported image")
	default:
		h.log.Error(r.Context(), op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// HandleCreateMeal creates a meal owned by the authenticated user.
// POST /api/meals
func (h *AlbumHandler) HandleCreateMeal(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	meal, err := h.albums.CreateMeal(r.Context(), userID, req.Title)
	if err != nil {
		h.writeAlbumError(w, r, "create meal", err)
		return
	}

	writeJSON(w, http.StatusCreated, mealResponse{ID: meal.ID, Title: meal.Title})
}

// HandleListMeals lists the authenticated user's meals.
// GET /api/meals
func (h *AlbumHandler) HandleListMeals(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	meals, err := h.albums.ListMeals(r.Context(), userID)
	if err != nil {
		h.writeAlbumError(w, r, "list meals", err)
		return
	}

	out := make([]mealResponse, 0, len(meals))
	for _, m := range meals {
		out = append(out, mealResponse{ID: m.ID, Title: m.Title})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetAlbum returns the meal's album in visual order, ready for replay.
// GET /api/meals/{id}/album
func (h *AlbumHandler) HandleGetAlbum(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	mealID := r.PathValue("id")

	album, err := h.albums.GetAlbum(r.Context(), userID, mealID)
	if err != nil {
		h.writeAlbumError(w, r, "get album", err)
		return
	}

	out := make([]imageResponse, 0, len(album))
	for _, ai := range album {
		out = append(out, toImageResponse(ai))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleUpload processes a multipart picture upload.
// POST /api/meals/{id}/images
func (h *AlbumHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	mealID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error(r.Context(), "read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ai, err := h.albums.SaveUpload(r.Context(), userID, mealID, header.Filename, data)
	if err != nil {
		h.writeAlbumError(w, r, "save upload", err)
		return
	}

	writeJSON(w, http.StatusOK, toImageResponse(ai))
}

// HandleSetKey moves the meal's key-image designation.
// PATCH /api/meals/{id}/key
func (h *AlbumHandler) HandleSetKey(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	mealID := r.PathValue("id")

	var req struct {
		ImageID string `json:"imageId"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.albums.SetKeyImage(r.Context(), userID, mealID, req.ImageID); err != nil {
		h.writeAlbumError(w, r, "set key image", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReorder rewrites the album's visual order.
// PATCH /api/meals/{id}/order
func (h *AlbumHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	mealID := r.PathValue("id")

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.albums.Reorder(r.Context(), userID, mealID, req.IDs); err != nil {
		h.writeAlbumError(w, r, "reorder album", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeletions soft-deletes the listed pictures.
// POST /api/meals/{id}/deletions
func (h *AlbumHandler) HandleDeletions(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	mealID := r.PathValue("id")

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.albums.ApplyDeletions(r.Context(), userID, mealID, req.IDs); err != nil {
		h.writeAlbumError(w, r, "apply deletions", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
