package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/orgball2608/gigcache"
	"github.com/orgball2608/gigcache/setlist"
)

// Setlists is the cached concert-data service.
type Setlists interface {
	TourPage(ctx context.Context, page int) (gigcache.Result[setlist.TourPage], error)
	Show(ctx context.Context, id string) (gigcache.Result[setlist.Show], error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Setlists Setlists
	Store    Pinger
	Log      *slog.Logger
}

func (h *Handler) Tour(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: invalid page %q", gigcache.ErrBadRequest, p))
			return
		}
		page = n
	}

	res, err := h.Setlists.TourPage(r.Context(), page)
	if err != nil {
		h.logFailure(r, "tour", err)
		writeError(w, r, err)
		return
	}
	writeResult(w, r, res)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	res, err := h.Setlists.Show(r.Context(), id)
	if err != nil {
		h.logFailure(r, "show", err)
		writeError(w, r, err)
		return
	}
	writeResult(w, r, res)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("store ping failed", "req_id", RequestIDFromCtx(r.Context()), "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, errorBody(http.StatusServiceUnavailable, "store unavailable"))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) logFailure(r *http.Request, op string, err error) {
	h.Log.Warn("request failed",
		"req_id", RequestIDFromCtx(r.Context()),
		"op", op,
		"status", gigcache.StatusCode(err),
		"kind", gigcache.ErrorKind(err),
		"error", err,
	)
}
