package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/majiix/wtingest/ingest"
	"github.com/majiix/wtingest/internal/platform/metrics"
)

// PlaylistName is the playlist file written for every transcoded asset.
const PlaylistName = "v.m3u8"

// Transcoder converts a media stream into a playlist at output.
type Transcoder interface {
	Run(ctx context.Context, input io.Reader, output string) error
}

// Handler serves transcoded media files and exposes the ingest sessions.
type Handler struct {
	root        string
	allowOrigin string
	sessions    SessionDirectory
	transcoder  Transcoder
	log         *slog.Logger
	metrics     *metrics.Metrics
}

// NewHandler returns a Handler serving files under root. allowOrigin, if not
// empty, is sent as Access-Control-Allow-Origin on media responses.
// Metrics may be nil to disable metric recording.
func NewHandler(root, allowOrigin string, sessions SessionDirectory, transcoder Transcoder, log *slog.Logger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		root:        root,
		allowOrigin: allowOrigin,
		sessions:    sessions,
		transcoder:  transcoder,
		log:         log,
		metrics:     m,
	}
}

// ServeMedia handles GET /media/*.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	rel, ok := cleanRelative(chi.URLParam(r, "*"))
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f, err := os.Open(filepath.Join(h.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("open media file failed", slog.String("path", rel), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", ContentType(rel))
	if h.allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", h.allowOrigin)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// ListSessions handles GET /ingest/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.Sessions()
	if h.metrics != nil {
		h.metrics.SetSessionsListed(len(sessions))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		h.log.Debug("write sessions failed", slog.String("error", err.Error()))
	}
}

type transcodeResponse struct {
	AssetID  string `json:"asset_id"`
	Playlist string `json:"playlist"`
}

// Transcode handles POST /ingest/{asset_id}/transcode. The video
// initialization segment and media data buffered for the asset are piped into
// the transcoder; the request returns once the playlist is written.
func (h *Handler) Transcode(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")
	if _, ok := cleanRelative(assetID); !ok || strings.Contains(assetID, "/") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	store, ok := h.sessions.Store(assetID)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	data, ok := store.Get(ingest.DeriveCacheKey(assetID, ingest.MediaTypeVideo, false))
	if !ok || data.Len() == 0 {
		h.log.Info("transcode rejected no video data", slog.String("asset_id", assetID))
		w.WriteHeader(http.StatusConflict)
		return
	}

	var input bytes.Buffer
	if initSeg, ok := store.Get(ingest.DeriveCacheKey(assetID, ingest.MediaTypeVideo, true)); ok {
		initSeg.WriteTo(&input)
	}
	data.WriteTo(&input)

	output := filepath.Join(h.root, assetID, PlaylistName)
	if err := h.transcoder.Run(r.Context(), &input, output); err != nil {
		h.log.Error("transcode failed", slog.String("asset_id", assetID), slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncTranscodes("error")
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.IncTranscodes("ok")
	}

	h.log.Info("transcode completed", slog.String("asset_id", assetID), slog.String("output", output))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transcodeResponse{
		AssetID:  assetID,
		Playlist: "/media/" + assetID + "/" + PlaylistName,
	})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// cleanRelative returns p as a clean slash-separated path that stays below
// the media root.
func cleanRelative(p string) (string, bool) {
	if p == "" || strings.Contains(p, "\\") {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}

	clean := path.Clean("/" + p)[1:]
	if clean == "" || clean == "." {
		return "", false
	}
	return clean, true
}
