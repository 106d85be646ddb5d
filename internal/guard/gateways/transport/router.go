package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/services/walletguard"
)

// maxBodyBytes bounds request bodies on every POST route.
const maxBodyBytes = 1 << 20

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
)

type evaluateRequest struct {
	URL string `json:"url"`
}

type errorBody struct {
	Error string `json:"error"`
}

type healthBody struct {
	Status     string    `json:"status"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// NewRouter mounts the guard routes on a chi router.
func NewRouter(svc Services, logger log.Logger) http.Handler {
	h := &handlers{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/evaluate", h.evaluateQuery)
		r.Post("/evaluate", h.evaluateBody)
		if svc.Wallet != nil {
			r.Post("/rpc", h.rpc)
		}
	})
	return r
}

type handlers struct {
	svc    Services
	logger log.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	snap := h.svc.Checker.Snapshot()
	writeJSON(w, http.StatusOK, healthBody{
		Status:     "ok",
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt.UTC(),
	})
}

func (h *handlers) evaluateQuery(w http.ResponseWriter, r *http.Request) {
	h.evaluate(w, r.URL.Query().Get("url"))
}

func (h *handlers) evaluateBody(w http.ResponseWriter, r *http.Request) {
	var body evaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	h.evaluate(w, body.URL)
}

func (h *handlers) evaluate(w http.ResponseWriter, raw string) {
	if strings.TrimSpace(raw) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "url is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Checker.Check(raw))
}

// rpc always answers 200 with a JSON-RPC body; failures travel in the error member.
func (h *handlers) rpc(w http.ResponseWriter, r *http.Request) {
	var req walletguard.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, walletguard.ErrorResponse(req, &walletguard.RPCError{Code: codeParseError, Message: "parse error"}))
		return
	}
	if req.Method == "" {
		writeJSON(w, http.StatusOK, walletguard.ErrorResponse(req, &walletguard.RPCError{Code: codeInvalidRequest, Message: "invalid request"}))
		return
	}

	resp, err := h.svc.Wallet.Dispatch(r.Context(), req)
	if err != nil {
		if !errors.Is(err, walletguard.ErrRawSignature) {
			h.logger.Error(map[string]any{
				"method": req.Method,
				"error":  err,
			}, "wallet request failed")
		}
		writeJSON(w, http.StatusOK, walletguard.ErrorResponse(req, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one debug line per request through the log facade.
func requestLogger(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug(map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote":     r.RemoteAddr,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}, "http request")
		})
	}
}
