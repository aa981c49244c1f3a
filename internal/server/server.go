// Package server exposes intake sessions over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/export"
	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/internal/workflow"
)

// Factory creates the controller for a new session.
type Factory func() *workflow.Controller

// Options configures a Server.
type Options struct {
	CORSAllowedOrigins []string
	// MaxUploadBytes caps audio uploads. Zero means 25 MiB.
	MaxUploadBytes int64
}

// session serializes all operations on one controller.
type session struct {
	mu sync.Mutex
	c  *workflow.Controller
}

// Server routes HTTP requests to per-session controllers.
type Server struct {
	factory   Factory
	opts      Options
	mu        sync.RWMutex
	sessions  map[string]*session
	startedAt time.Time
}

// New creates a Server.
func New(factory Factory, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	return &Server{
		factory:   factory,
		opts:      opts,
		sessions:  make(map[string]*session),
		startedAt: time.Now(),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.getSession))
			r.Delete("/", s.deleteSession)
			r.Post("/audio", s.withSession(s.uploadAudio))
			r.Post("/run", s.withSession(s.run))
			r.Post("/confirm", s.withSession(s.confirm))
			r.Patch("/preferences", s.withSession(s.amend))
			r.Post("/reset", s.withSession(s.reset))
			r.Get("/export.csv", s.withSession(s.exportCSV))
			r.Get("/export.xlsx", s.withSession(s.exportXLSX))
		})
	})

	return r
}

// Len returns the number of live sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, c *workflow.Controller)

// withSession looks up the session and holds its lock for the request.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.RLock()
		sess, ok := s.sessions[id]
		s.mu.RUnlock()
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		h(w, r, sess.c)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.Len(),
		"uptime_s": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	c := s.factory()
	s.mu.Lock()
	s.sessions[c.ID()] = &session{c: c}
	s.mu.Unlock()
	zap.L().Info("server: session created", zap.String("session", c.ID()))
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request, c *workflow.Controller) {
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) uploadAudio(w http.ResponseWriter, r *http.Request, c *workflow.Controller) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, hdr, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("multipart field \"audio\" is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	if err := c.Upload(hdr.Filename, data); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, c *workflow.Controller) {
	var err error
	if r.URL.Query().Get("all") == "true" {
		err = c.Complete(r.Context())
	} else {
		err = c.Run(r.Context())
	}
	if err != nil {
		var se *workflow.StageError
		if errors.As(err, &se) {
			writeJSON(w, http.StatusBadGateway, c.Snapshot())
			return
		}
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) confirm(w http.ResponseWriter, _ *http.Request, c *workflow.Controller) {
	if err := c.Confirm(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) amend(w http.ResponseWriter, r *http.Request, c *workflow.Controller) {
	var a workflow.Amendment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := c.AmendPreferences(a); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) reset(w http.ResponseWriter, _ *http.Request, c *workflow.Controller) {
	c.Reset()
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request, c *workflow.Controller) {
	v := c.Snapshot()
	if v.Results == nil {
		writeError(w, http.StatusConflict, errors.New("no results to export"))
		return
	}
	var tier model.Tier
	if t := r.URL.Query().Get("tier"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || !model.Tier(n).Valid() {
			writeError(w, http.StatusBadRequest, errors.New("tier must be 1, 2 or 3"))
			return
		}
		tier = model.Tier(n)
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(patientName(v), tier)+`"`)
	if err := export.WriteResultCSV(w, v.Results, tier); err != nil {
		zap.L().Error("server: csv export failed", zap.String("session", v.ID), zap.Error(err))
	}
}

func (s *Server) exportXLSX(w http.ResponseWriter, _ *http.Request, c *workflow.Controller) {
	v := c.Snapshot()
	if v.Results == nil {
		writeError(w, http.StatusConflict, errors.New("no results to export"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.WorkbookName(patientName(v))+`"`)
	if err := export.WriteXLSX(w, v.Results); err != nil {
		zap.L().Error("server: xlsx export failed", zap.String("session", v.ID), zap.Error(err))
	}
}

func patientName(v workflow.View) string {
	if v.Preferences == nil {
		return ""
	}
	return v.Preferences.PatientName
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNoAudio),
		errors.Is(err, workflow.ErrUnsupportedAudio):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrWrongStep),
		errors.Is(err, workflow.ErrIncomplete),
		errors.Is(err, workflow.ErrMissingInput),
		errors.Is(err, workflow.ErrFinalStep),
		errors.Is(err, workflow.ErrAlreadyRanked):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			zap.L().Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
