package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

type HTTPHandler struct {
	Dispatcher *Dispatcher
	Registry   *Registry
	Sessions   *SessionJWT
}

func NewHTTPServer(cfg *Config, dispatcher *Dispatcher, registry *Registry, sessions *SessionJWT) http.Handler {
	httpHandler := HTTPHandler{dispatcher, registry, sessions}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(AccessLog())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.PollRateLimit, time.Minute))
			r.Post("/poll", httpHandler.poll())
			r.Post("/register_client", httpHandler.registerClient())
		})
		r.Get("/state", httpHandler.state())
		r.Post("/register", httpHandler.registerRoom())
		r.Post("/free", httpHandler.free())
		r.Post("/delete", httpHandler.deleteRoom())
	})
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}

func (h HTTPHandler) poll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var correlator SessionCorrelator = cookieSession{w, r, h.Sessions}
		if uuid := r.FormValue("uuid"); uuid != "" {
			correlator = formSession{uuid}
		}
		reply, err := h.Dispatcher.Poll(correlator)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeText(w, reply)
	}
}

func (h HTTPHandler) registerClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := h.Dispatcher.Begin()
		if err := (cookieSession{w, r, h.Sessions}).Bind(id); err != nil {
			writeError(w, r, err)
			return
		}
		writeText(w, id)
	}
}

func (h HTTPHandler) state() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := h.Registry.State(operatorKey(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snapshot)
	}
}

func (h HTTPHandler) registerRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := formCount(r, false)
		if err != nil {
			writeError(w, r, err)
			return
		}
		snapshot, err := h.Registry.Register(operatorKey(r), r.FormValue("url"), count)
		if err != nil {
			writeError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snapshot)
	}
}

func (h HTTPHandler) free() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := formCount(r, true)
		if err != nil {
			writeError(w, r, err)
			return
		}
		snapshot, err := h.Registry.Free(operatorKey(r), r.FormValue("url"), count)
		if err != nil {
			writeError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snapshot)
	}
}

func (h HTTPHandler) deleteRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := h.Registry.Delete(operatorKey(r), r.FormValue("url"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snapshot)
	}
}

// operatorKey reads the "key" query parameter. The management page builds
// "/api/state?" + location.search, so the key may also arrive as "?key".
func operatorKey(r *http.Request) string {
	query := r.URL.Query()
	if key := query.Get("key"); key != "" {
		return key
	}
	return query.Get("?key")
}

// formCount parses the "count" form value. An absent count is zero unless
// required is set.
func formCount(r *http.Request, required bool) (int, error) {
	raw := r.FormValue("count")
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing count: %w", ErrInvalidArgument)
		}
		return 0, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", raw, ErrInvalidArgument)
	}
	return count, nil
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	io.WriteString(w, body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
		LogUnauthorized(r)
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		status = http.StatusBadRequest
	default:
		LogErrorWhileHandling(r, err)
	}
	http.Error(w, http.StatusText(status), status)
}
