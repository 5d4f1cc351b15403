package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ttsloader/internal/manager"
	"ttsloader/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	DeviceInfo() types.DeviceResponse
	ResetDevice() types.DeviceResponse
	Engines() []types.EngineInfo
	Engine(id string) (types.EngineInfo, bool)
	ListModels() ([]types.LocalModel, error)
	Status() types.StatusResponse
	Load(ctx context.Context, req types.LoadRequest) (manager.Result, error)
	Unload(key string) error
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	h := &handlers{svc: svc}
	r.Get("/healthz", h.healthz)
	r.Get("/devices", h.devices)
	r.Post("/devices/reset", h.resetDevice)
	r.Get("/engines", h.engines)
	r.Get("/engines/{id}", h.engine)
	r.Get("/models", h.models)
	r.Get("/status", h.status)
	r.Post("/load", h.load)
	r.Post("/unload", h.unload)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decodeJSON enforces a JSON content type and the body size limit.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// healthz godoc
// @Summary  Liveness probe
// @Tags     system
// @Produce  plain
// @Success  200 {string} string "ok"
// @Router   /healthz [get]
func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// devices godoc
// @Summary  Default device request and its resolution
// @Tags     devices
// @Produce  json
// @Success  200 {object} types.DeviceResponse
// @Router   /devices [get]
func (h *handlers) devices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.DeviceInfo())
}

// resetDevice godoc
// @Summary  Drop the cached auto device resolution and re-probe
// @Tags     devices
// @Produce  json
// @Success  200 {object} types.DeviceResponse
// @Router   /devices/reset [post]
func (h *handlers) resetDevice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ResetDevice())
}

// engines godoc
// @Summary  Engine capability table
// @Tags     engines
// @Produce  json
// @Success  200 {object} types.EnginesResponse
// @Router   /engines [get]
func (h *handlers) engines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.EnginesResponse{Engines: h.svc.Engines()})
}

// engine godoc
// @Summary  Capabilities of one engine
// @Tags     engines
// @Produce  json
// @Param    id path string true "engine id"
// @Success  200 {object} types.EngineInfo
// @Failure  404 {object} types.ErrorResponse
// @Router   /engines/{id} [get]
func (h *handlers) engine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, ok := h.svc.Engine(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown engine: "+id)
		return
	}
	writeJSON(w, info)
}

// models godoc
// @Summary  Models discovered in the models directory
// @Tags     models
// @Produce  json
// @Success  200 {object} types.ModelsResponse
// @Failure  500 {object} types.ErrorResponse
// @Router   /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.ListModels()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if models == nil {
		models = []types.LocalModel{}
	}
	writeJSON(w, types.ModelsResponse{Models: models})
}

// status godoc
// @Summary  Cache and loader status
// @Tags     system
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

// load godoc
// @Summary  Load a model through its fallback chain
// @Tags     models
// @Accept   json
// @Produce  json
// @Param    request body types.LoadRequest true "load request"
// @Success  200 {object} types.LoadResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  404 {object} types.ErrorResponse
// @Failure  422 {object} types.ErrorResponse
// @Failure  500 {object} types.ErrorResponse
// @Failure  502 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /load [post]
func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req types.LoadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if loadTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, loadTimeout)
		defer cancelTimeout()
	}
	res, err := h.svc.Load(ctx, req)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		resp := errorResponse(err)
		writeErrorResponse(w, resp)
		logRequestEnd(r, resp.Code, start, err)
		return
	}
	writeJSON(w, types.LoadResponse{
		Key:       res.Key,
		Device:    res.Device,
		Loader:    res.Loader,
		Attempted: res.Attempted,
		Cached:    res.Cached,
	})
	logRequestEnd(r, http.StatusOK, start, nil)
}

// unload godoc
// @Summary  Drop a cached model
// @Tags     models
// @Accept   json
// @Produce  json
// @Param    request body types.UnloadRequest true "cache key"
// @Success  204
// @Failure  404 {object} types.ErrorResponse
// @Router   /unload [post]
func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	var req types.UnloadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Unload(req.Key); err != nil {
		writeErrorResponse(w, errorResponse(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
