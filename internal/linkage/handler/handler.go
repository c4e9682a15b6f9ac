package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"linkage/internal/linkage/models"
	"linkage/pkg/platform/httputil"
	"linkage/pkg/requestcontext"
)

// Service defines the dispatcher the handler drives.
type Service interface {
	ProcessRequest(ctx context.Context, req *models.Request) models.Response
}

// Pinger reports backing store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires linkage endpoints to the dispatcher.
type Handler struct {
	service Service
	logger  *slog.Logger
	pinger  Pinger
}

// New constructs a linkage handler. pinger may be nil when the store has no
// remote dependency; a nil logger discards.
func New(service Service, logger *slog.Logger, pinger Pinger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		service: service,
		logger:  logger,
		pinger:  pinger,
	}
}

// Register mounts the linkage endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/linkage", h.HandleDispatch)
	r.Post("/linkage/records", h.HandleInsert)
	r.Patch("/linkage/records/{key}", h.HandleUpdate)
	r.Delete("/linkage/records/{key}", h.HandleDelete)
	r.Post("/linkage/search", h.HandleSearch)
}

// HandleDispatch handles POST /linkage with a full request envelope.
func (h *Handler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	var req models.Request
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.reject(w, r, err)
		return
	}
	h.dispatch(w, r, &req)
}

// HandleInsert handles POST /linkage/records; the body is the field mapping.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeData(w, r, false)
	if !ok {
		return
	}
	h.dispatch(w, r, models.NewRequest(string(models.ActionInsert)).WithData(data))
}

// HandleUpdate handles PATCH /linkage/records/{key}. An empty body is a no-op
// patch.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeData(w, r, true)
	if !ok {
		return
	}
	h.dispatch(w, r, models.NewRequest(string(models.ActionUpdate)).
		WithKey(chi.URLParam(r, "key")).
		WithData(data))
}

// HandleDelete handles DELETE /linkage/records/{key}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, models.NewRequest(string(models.ActionDelete)).WithKey(chi.URLParam(r, "key")))
}

// HandleSearch handles POST /linkage/search; the body is the field mapping.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeData(w, r, false)
	if !ok {
		return
	}
	h.dispatch(w, r, models.NewRequest(string(models.ActionSearch)).WithData(data))
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, req *models.Request) {
	resp := h.service.ProcessRequest(r.Context(), req)
	httputil.WriteJSON(w, StatusCode(req, resp), resp)
}

// reject routes an undecodable body through the dispatcher as an absent
// request so it is counted and audited like any other invalid request.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, "invalid linkage request body",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	h.dispatch(w, r, nil)
}

func (h *Handler) decodeData(w http.ResponseWriter, r *http.Request, allowEmpty bool) (map[string]*string, bool) {
	var data map[string]*string
	err := httputil.DecodeJSON(w, r, &data)
	if err == nil {
		return data, true
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil, true
	}
	h.reject(w, r, err)
	return nil, false
}
