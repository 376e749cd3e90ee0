package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidfriends/client/internal/logging"
	"github.com/vidfriends/client/internal/models"
	"github.com/vidfriends/client/internal/repositories"
)

// DefaultDashboardLimit is how many videos the dashboard lists when the
// handler is not configured otherwise.
const DefaultDashboardLimit = 2

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// VideoHandler serves the dashboard and individual videos. Provider ids never
// leave this handler except folded into the embed URL.
type VideoHandler struct {
	Videos         VideoCatalog
	DashboardLimit int
	EmbedBaseURL   string
}

// Dashboard handles GET /dashboard. A positive ?limit= overrides the default.
func (h VideoHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	limit := h.DashboardLimit
	if limit == 0 {
		limit = DefaultDashboardLimit
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondJSON(ctx, w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = n
	}

	videos, err := h.Videos.Active(ctx, limit)
	if err != nil {
		logger.Error("dashboard listing failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("unable to load videos"))
		return
	}

	out := make([]videoSummaryResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoSummaryResponse{
			ID:           v.ID,
			Title:        v.Title,
			Description:  v.Description,
			ThumbnailURL: v.ThumbnailURL,
		})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// Video handles GET /video/{id}.
func (h VideoHandler) Video(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := chi.URLParam(r, "id")
	if !videoIDPattern.MatchString(id) {
		logger.Warn("malformed video id", "videoId", id)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("Invalid video ID"))
		return
	}

	video, err := h.Videos.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, errorBody("Video not found"))
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("unable to load video"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoDetailResponse{
		videoSummaryResponse: videoSummaryResponse{
			ID:           video.ID,
			Title:        video.Title,
			Description:  video.Description,
			ThumbnailURL: video.ThumbnailURL,
		},
		VideoURL: h.embedURL(video),
	})
}

func (h VideoHandler) embedURL(video models.CatalogVideo) string {
	return strings.TrimRight(h.EmbedBaseURL, "/") + "/" + video.ProviderID
}

type videoSummaryResponse struct {
	ID           string `json:"_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type videoDetailResponse struct {
	videoSummaryResponse
	VideoURL string `json:"video_url"`
}
