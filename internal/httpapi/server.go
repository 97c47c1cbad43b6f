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

	"aigateway/internal/storage"
	"aigateway/pkg/types"
)

// NewMux builds the router for svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc, pongWait: wsPongWait}
	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.Compress(5)).Group(func(r chi.Router) {
			r.Post("/query", h.query)
			r.Get("/sessions/{id}/messages", h.messages)
			r.Delete("/sessions/{id}/messages", h.clear)
			r.Post("/files", h.saveFile)
			r.Get("/status", h.status)
			r.Post("/connection/retry", h.retry)
		})
		r.Get("/chat/ws", h.chatWS)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("degraded"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc      Service
	pongWait time.Duration
}

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// askContext joins the request with the server base context and applies
// the optional request timeout.
func askContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
	if requestTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, requestTimeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

// query godoc
// @Summary      Ask a question
// @Description  Runs the question through the gateway and stores both sides in the session log. Degraded answers are 200 with kind=degraded.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      types.QueryRequest  true  "Question"
// @Success      200      {object}  types.QueryResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Router       /v1/query [post]
func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req types.QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	start := time.Now()
	ctx, cancel := askContext(r)
	defer cancel()
	ex, err := h.svc.Ask(ctx, req.SessionID, req.Text, req.FileContextID)
	if err != nil {
		status := statusFor(err)
		writeJSONError(w, status, err.Error())
		logEnd(r, "query end", status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, ToQueryResponse(ex))
	logEnd(r, "query end", http.StatusOK, start, nil)
}

// messages godoc
// @Summary  Session history
// @Tags     chat
// @Produce  json
// @Param    id   path      string  true  "Session id"
// @Success  200  {object}  types.MessagesResponse
// @Router   /v1/sessions/{id}/messages [get]
func (h *handlers) messages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	msgs, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.MessagesResponse{SessionID: id, Messages: toMessages(msgs)})
}

// clear godoc
// @Summary      Clear session history
// @Description  Deletes the session log and forces the next question to re-resolve the inference endpoint.
// @Tags         chat
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  types.ClearResponse
// @Router       /v1/sessions/{id}/messages [delete]
func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	n, err := h.svc.Clear(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		writeJSONError(w, status, err.Error())
		logEnd(r, "clear end", status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ClearResponse{SessionID: id, Deleted: n})
	logEnd(r, "clear end", http.StatusOK, start, nil)
}

// saveFile godoc
// @Summary  Register extracted file content
// @Tags     files
// @Accept   json
// @Produce  json
// @Param    request  body      types.FileContextRequest  true  "File content"
// @Success  201      {object}  types.FileContextResponse
// @Failure  400      {object}  types.ErrorResponse
// @Router   /v1/files [post]
func (h *handlers) saveFile(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req types.FileContextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		writeJSONError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	if strings.TrimSpace(req.ExtractedText) == "" {
		writeJSONError(w, http.StatusBadRequest, "extracted_text is required")
		return
	}
	fc := storage.FileContext{
		FileName:      req.FileName,
		FileType:      req.FileType,
		ExtractedText: req.ExtractedText,
		Metadata:      req.Metadata,
	}
	if err := h.svc.SaveFileContext(r.Context(), &fc); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, types.FileContextResponse{ID: fc.ID, CreatedAt: fc.CreatedAt})
}

// status godoc
// @Summary  Connection status
// @Tags     status
// @Produce  json
// @Success  200  {object}  types.StatusResponse
// @Router   /v1/status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ToStatus(h.svc.Status()))
}

// retry godoc
// @Summary      Retry connection
// @Description  Drops cached endpoint and model state, re-probes and returns the fresh status.
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /v1/connection/retry [post]
func (h *handlers) retry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
	defer cancel()
	st := h.svc.Reconnect(ctx)
	writeJSON(w, http.StatusOK, ToStatus(st))
	logEnd(r, "connection retry", http.StatusOK, start, nil)
}
