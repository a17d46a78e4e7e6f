/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package server exposes any engine over HTTP using the store's resource
// paths. Mounting the in-memory engine behind it yields a store emulator
// that the REST transport can talk to.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/suparena/docstore/engine"
	"github.com/suparena/docstore/errors"
)

// forwardedHeaders are the request headers relayed into engine requests.
var forwardedHeaders = []string{
	engine.HeaderPartitionKey,
	engine.HeaderIsUpsert,
	engine.HeaderIsQuery,
	engine.HeaderIfMatch,
	engine.HeaderContentType,
}

type server struct {
	engine engine.Engine
	logger *zap.Logger
}

// Option configures the handler.
type Option func(*server)

// WithLogger attaches a logger; every request is logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *server) {
		s.logger = l
	}
}

// New returns an http.Handler serving the store wire contract over e.
func New(e engine.Engine, opts ...Option) http.Handler {
	s := &server{engine: e, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/dbs", func(r chi.Router) {
		r.Get("/", s.proxy)
		r.Post("/", s.proxy)
		r.Route("/{db}", func(r chi.Router) {
			r.Get("/", s.proxy)
			r.Delete("/", s.proxy)
			r.Route("/colls", func(r chi.Router) {
				r.Get("/", s.proxy)
				r.Post("/", s.proxy)
				r.Route("/{coll}", func(r chi.Router) {
					r.Get("/", s.proxy)
					r.Delete("/", s.proxy)
					r.Route("/docs", func(r chi.Router) {
						r.Post("/", s.proxy)
						r.Route("/{id}", func(r chi.Router) {
							r.Get("/", s.proxy)
							r.Put("/", s.proxy)
							r.Patch("/", s.proxy)
							r.Delete("/", s.proxy)
						})
					})
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, http.StatusNotFound, "unknown resource path")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// proxy translates the HTTP request into an engine request and relays the
// engine's answer verbatim.
func (s *server) proxy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	req := &engine.Request{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Body:   body,
	}
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.SetHeader(name, v)
		}
	}

	resp, err := s.engine.Do(r.Context(), req)
	if err != nil {
		s.logger.Error("engine failure", zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "engine failure")
		return
	}

	if etag := resp.Header(engine.HeaderETag); etag != "" {
		w.Header().Set(engine.HeaderETag, etag)
	}
	if len(resp.Body) > 0 {
		w.Header().Set(engine.HeaderContentType, engine.ContentTypeJSON)
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeProblem(w http.ResponseWriter, status int, message string) {
	w.Header().Set(engine.HeaderContentType, engine.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errors.NewProblem(status, message))
}
