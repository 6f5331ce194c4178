package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	domain "github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/controller"
)

// readHeaderTimeout bounds slow clients.
const readHeaderTimeout = 5 * time.Second

// Service abstracts the controller operations the page depends on.
type Service interface {
	Submit(ctx context.Context, origin string, action domain.Action) (domain.Snapshot, error)
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// Handler renders the page and applies path actions.
type Handler struct {
	service Service
}

// NewHandler returns the routed page handler. Methods other than GET and
// HEAD are answered with 405. HEAD renders the page without applying the action.
func NewHandler(ctx context.Context, service Service) http.Handler {
	h := &Handler{service: service}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", withLogging(ctx, h.ServePage))

	return mux
}

// NewServer creates the HTTP server of the page.
func NewServer(ctx context.Context, address string, service Service) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           NewHandler(ctx, service),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// ServePage handles GET /{action}. Only GET applies the action.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := strings.TrimPrefix(r.URL.Path, "/")

	var (
		snap domain.Snapshot
		err  error
	)

	if action, ok := domain.ParseAction(name); ok && r.Method == http.MethodGet {
		snap, err = h.service.Submit(ctx, "http:"+r.RemoteAddr, action)
	} else {
		snap, err = h.service.Snapshot(ctx)
	}

	switch {
	case err == nil:
	case errors.Is(err, controller.ErrStopped):
		http.Error(w, "controller stopped", http.StatusServiceUnavailable)

		return
	default:
		logger.ErrorKV(ctx, "Page request failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	var body bytes.Buffer
	if err = Render(&body, snap); err != nil {
		logger.ErrorKV(ctx, "Page rendering failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

// withLogging logs every request with its duration.
func withLogging(ctx context.Context, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next(w, r)

		logger.DebugKV(ctx, "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds())
	}
}
