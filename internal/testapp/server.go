package testapp

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ctxKey int

const ctxUserKey ctxKey = iota

// Server serves the project and task resources.
type Server struct {
	store  *Store
	logger zerolog.Logger
}

// NewServer creates a server over store.
func NewServer(store *Store, logger zerolog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Router mounts the API under /api.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects/", s.ListProjects)
		r.Get("/projects/first/", s.FirstProject)
		r.Get("/projects/{pk}/", s.GetProject)
		r.Get("/projects/{pk}/ping/", s.PingProject)

		r.Get("/tasks/", s.ListTasks)
		r.Get("/tasks/{pk}/", s.GetTask)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireUser)

			r.Post("/tasks/", s.CreateTask)
			r.Put("/tasks/{pk}/", s.UpdateTask)
			r.Patch("/tasks/{pk}/", s.PartialUpdateTask)
			r.Delete("/tasks/{pk}/", s.DeleteTask)
		})
	})
	return r
}

// RequireUser rejects requests without a valid "Authorization: Token <t>"
// header.
func (s *Server) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Token ")
		if !ok || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		user, err := s.store.UserByToken(r.Context(), token)
		if errors.Is(err, ErrNotFound) {
			writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey, user)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// ListProjects serves every project without pagination.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// FirstProject is a list action returning a single project.
func (s *Server) FirstProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.FirstProject(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// GetProject serves the detail representation.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// PingProject is a detail action answering 201.
func (s *Server) PingProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetProject(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "pong": true})
}

// ListTasks serves a limit/offset page of tasks, optionally filtered by
// ?project=<id>.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := TaskFilter{Limit: defaultPageSize}
	if raw := query.Get("project"); raw != "" {
		project, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeFieldErrors(w, fieldErrors{"project": {"Select a valid choice."}})
			return
		}
		filter.Project = &project
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = min(limit, maxPageSize)
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	tasks, count, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page{
		Count:    count,
		Next:     pageLink(r, filter.Limit, filter.Offset+filter.Limit, filter.Offset+filter.Limit < count),
		Previous: pageLink(r, filter.Limit, max(filter.Offset-filter.Limit, 0), filter.Offset > 0),
		Results:  tasks,
	})
}

// GetTask serves a single task.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateTask creates a task owned by the authenticated user.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	in, errs, err := s.readTaskInput(r, nil)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	user, _ := r.Context().Value(ctxUserKey).(User)
	task, err := s.store.CreateTask(r.Context(), in, user.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask replaces a task.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	s.updateTask(w, r, false)
}

// PartialUpdateTask updates the submitted fields of a task.
func (s *Server) PartialUpdateTask(w http.ResponseWriter, r *http.Request) {
	s.updateTask(w, r, true)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	current, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	var base *Task
	if partial {
		base = &current
	}
	in, errs, err := s.readTaskInput(r, base)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	task, err := s.store.UpdateTask(r.Context(), id, in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Task  `json:"results"`
}

// pageLink rebuilds the request URL with new limit/offset values. Offset 0
// is dropped from previous links.
func pageLink(r *http.Request, limit, offset int, ok bool) *string {
	if !ok {
		return nil
	}
	query := r.URL.Query()
	query.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	} else {
		query.Del("offset")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	link := (&url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}).String()
	return &link
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pk"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeDetail(w, http.StatusInternalServerError, "Internal server error.")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// NewDemo opens a seeded in-memory database and returns the API router. The
// returned DB must be closed by the caller.
func NewDemo(ctx context.Context, logger zerolog.Logger) (http.Handler, *DB, error) {
	db, err := OpenDemo(ctx)
	if err != nil {
		return nil, nil, err
	}
	return NewServer(NewStore(db), logger).Router(), db, nil
}
