package api

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/erazemk/slascicarna/internal/imaging"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/storage"
	"github.com/erazemk/slascicarna/internal/store"
)

// FeedHandler handles the public media feed.
type FeedHandler struct {
	DB       *sql.DB
	Uploader storage.Uploader
}

// List handles GET /api/feed (public).
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListFeedItems(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing feed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list feed")
		return
	}
	if items == nil {
		items = []model.FeedItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/feed (admin): a multipart form with type, title,
// description and either a media file or, for videos, an external URL.
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Limit to 50 MB to leave room for short videos.
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	mediaType := r.FormValue("type")
	title := r.FormValue("title")
	description := r.FormValue("description")

	if title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if mediaType != model.FeedTypeImage && mediaType != model.FeedTypeVideo {
		jsonError(w, http.StatusBadRequest, "type must be 'image' or 'video'")
		return
	}

	var url string
	switch mediaType {
	case model.FeedTypeImage:
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "image file required for image posts")
			return
		}
		defer file.Close()

		result, err := imaging.Process(file)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		url, err = h.Uploader.Upload(r.Context(), bytes.NewReader(result.Data), "feed", imaging.Ext)
		if err != nil {
			slog.Error("uploading feed image", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to upload image")
			return
		}

	case model.FeedTypeVideo:
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			if !strings.HasPrefix(header.Header.Get("Content-Type"), "video/") {
				jsonError(w, http.StatusBadRequest, "file must be a video")
				return
			}
			ext := filepath.Ext(header.Filename)
			if ext == "" {
				ext = ".mp4"
			}
			url, err = h.Uploader.Upload(r.Context(), file, "feed", ext)
			if err != nil {
				slog.Error("uploading feed video", "error", err)
				jsonError(w, http.StatusInternalServerError, "failed to upload video")
				return
			}
		case r.FormValue("url") != "":
			url = r.FormValue("url")
		default:
			jsonError(w, http.StatusBadRequest, "video posts need a file or a url")
			return
		}
	}

	item, err := store.CreateFeedItem(r.Context(), h.DB, mediaType, title, description, url)
	if err != nil {
		slog.Error("creating feed item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create feed item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Delete handles DELETE /api/feed/{id} (admin).
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid feed item id")
		return
	}

	err = store.DeleteFeedItem(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "feed item not found")
		return
	}
	if err != nil {
		slog.Error("deleting feed item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete feed item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "feed item deleted"})
}
