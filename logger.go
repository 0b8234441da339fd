package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

func SetLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

type SessionLogger struct {
	zerolog zerolog.Logger
}

func GetSessionLogger(sessionID string) SessionLogger {
	return SessionLogger{log.With().Str("session", sessionID).Logger()}
}

func (l SessionLogger) Started() {
	l.zerolog.Debug().Msg("Session started")
}

func (l SessionLogger) Waiting() {
	l.zerolog.Debug().Msg("No free slot, waiting")
}

func (l SessionLogger) Matched(roomURL string) {
	l.zerolog.Info().Str("room", roomURL).Msg("Slot reserved")
}

func (l SessionLogger) Delivered(roomURL string) {
	l.zerolog.Info().Str("room", roomURL).Msg("Room given to visitor")
}

func (l SessionLogger) Unknown() {
	l.zerolog.Debug().Msg("Session not registered")
}

func (l SessionLogger) Expired(roomURL string) {
	event := l.zerolog.Info()
	if roomURL != "" {
		event = event.Str("room", roomURL)
	}
	event.Msg("Session too old, evicted")
}

func (l SessionLogger) Revoked(roomURL string) {
	l.zerolog.Info().Str("room", roomURL).Msg("Reserved room deleted, waiting again")
}

func LogRoomRegistered(url string, count int) {
	log.Info().Str("room", url).Int("count", count).Msg("Registered")
}

func LogRoomFreed(url string, count int) {
	log.Info().Str("room", url).Int("count", count).Msg("Freed")
}

func LogRoomDeleted(url string) {
	log.Info().Str("room", url).Msg("Deleted")
}

func LogUnauthorized(r *http.Request) {
	log.Warn().Str("ip", r.RemoteAddr).Str("path", r.URL.Path).Msg("Rejected operator key")
}

func LogLoadedState(path string, rooms int) {
	log.Info().Str("path", path).Int("rooms", rooms).Msg("Loaded room state")
}

func LogErrorWritingState(err error) {
	log.Error().Err(err).Msg("Error while writing room state")
}

func LogStartedServer(port string) {
	log.Info().Msgf("Starting server on port %v", port)
}

func LogStoppingServer() {
	log.Info().Msg("Shutting down server")
}

func LogErrorWhileHandling(r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Error while handling request")
}

// AccessLog writes one line per request through the zerolog logger attached
// by hlog.NewHandler.
func AccessLog() func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", r.RemoteAddr).
			Str("request-id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	})
}
