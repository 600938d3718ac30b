package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alexa-chat-bridge/internal/config"
	"alexa-chat-bridge/internal/dialogue"
	"alexa-chat-bridge/internal/types"
)

const (
	// MaxBodyBytes caps an inbound skill request.
	MaxBodyBytes = 1 << 20
	// CorrelationHeader carries the per-request id in and out.
	CorrelationHeader = "X-Correlation-Id"

	probeText   = "Alexa Skill Endpoint is working!"
	serviceName = "alexa-chat"
)

// EventHandler turns one raw skill request into a reply. *dialogue.Controller
// implements it.
type EventHandler interface {
	HandleEvent(ctx context.Context, raw []byte) dialogue.Reply
}

type Server struct {
	router  *chi.Mux
	handler EventHandler
	log     *zap.Logger
	cfg     config.Config
}

func NewServer(cfg config.Config, handler EventHandler, log *zap.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("server: event handler must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		handler: handler,
		log:     log,
		cfg:     cfg,
	}

	r.Use(s.correlate)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Signature", "SignatureCertChainUrl", CorrelationHeader},
		ExposedHeaders: []string{CorrelationHeader},
		MaxAge:         300,
	}))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/alexa-chat/health", s.handleSkillHealth)
	for _, p := range []string{"/alexa-chat", "/alexa-chat/"} {
		s.router.Get(p, s.handleProbe)
		s.router.Post(p, s.handleSkill)
	}
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "healthy"})
}

func (s *Server) handleSkillHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "healthy", Service: serviceName})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, probeText)
}

// handleSkill answers every request that reaches it with HTTP 200 and a
// well-formed envelope; Alexa treats any other status as a skill failure.
func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.requestLogger(r).Warn("failed to read skill request", zap.Error(err))
		writeJSON(w, http.StatusOK, dialogue.FaultReply().Envelope())
		return
	}
	reply := s.handler.HandleEvent(r.Context(), body)
	writeJSON(w, http.StatusOK, reply.Envelope())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

type ctxKey struct{}

// CorrelationID returns the id assigned to the request carried by ctx.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.log.With(zap.String("correlation_id", CorrelationID(r.Context())))
}

func (s *Server) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(CorrelationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.requestLogger(r).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoverer converts a panic anywhere below it into the spoken apology so
// the device still gets a valid envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.requestLogger(r).Error("panic in http handler", zap.Any("panic", rec), zap.Stack("stack"))
				writeJSON(w, http.StatusOK, dialogue.FaultReply().Envelope())
			}
		}()
		next.ServeHTTP(w, r)
	})
}
