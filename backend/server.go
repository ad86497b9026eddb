// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"crypto/tls"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures the puzzle server.
type Options struct {
	Addr     string
	Listener net.Listener
	Cert     *tls.Certificate
	Debug    bool
	Logger   *zap.Logger

	// Storage persists puzzles when set.
	Storage *storage.Storage
	Store   *PuzzleStore

	// Puzzle Options
	Title      string        // page title, defaults to "React App"
	Coins      int           // coins per puzzle, defaults to DefaultCoins
	FakeCoin   int           // fixed fake coin; negative picks one per puzzle
	WeighDelay time.Duration // delay before a weighing result is sent
}

func (o Options) coins() int {
	if o.Coins <= 0 {
		return DefaultCoins
	}
	return o.Coins
}

func (o Options) title() string {
	if o.Title == "" {
		return "React App"
	}
	return o.Title
}

//go:embed static
var staticFiles embed.FS

var indexTemplate = template.Must(template.ParseFS(staticFiles, "static/index.html"))

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	Store      *PuzzleStore
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

// StartServer starts the puzzle server in the background.
func StartServer(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = NewPuzzleStore(opts.Storage, opts.Logger)
	}
	handler := NewServerHandler(opts)

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Cert},
		}
	}

	l := opts.Listener
	if l == nil {
		var err error
		if l, err = net.Listen("tcp", opts.Addr); err != nil {
			return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
		}
	}

	go func() {
		var err error
		if httpServer.TLSConfig != nil {
			opts.Logger.Info("starting HTTPS server", zap.Stringer("addr", l.Addr()))
			err = httpServer.ServeTLS(l, "", "")
		} else {
			opts.Logger.Info("starting HTTP server", zap.Stringer("addr", l.Addr()))
			err = httpServer.Serve(l)
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			opts.Logger.Error("server error", zap.Error(err))
		}
	}()

	return &Server{
		httpServer: httpServer,
		listener:   l,
		Store:      opts.Store,
	}, nil
}

// NewServerHandler creates and configures the HTTP handler for the server.
func NewServerHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = NewPuzzleStore(opts.Storage, opts.Logger)
	}
	hm := NewHubManager()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		indexHandler(opts, w, r)
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(opts, store, hm, w, r)
	})
	r.HandleFunc("/api/puzzles/{puzzleID}", func(w http.ResponseWriter, r *http.Request) {
		puzzleHandler(opts, store, hm, w, r)
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(http.FS(static)))

	var handler http.Handler = r
	handler = securityMiddleware(handler)
	handler = cacheControlMiddleware(handler)
	if opts.Debug {
		handler = loggingMiddleware(opts.Logger, handler)
	}
	return handler
}

type indexData struct {
	Title string
	Cells []int
}

func indexHandler(opts Options, w http.ResponseWriter, r *http.Request) {
	data := indexData{Title: opts.title()}
	for i := 0; i < opts.coins(); i++ {
		data.Cells = append(data.Cells, i)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		opts.Logger.Error("index template", zap.Error(err))
	}
}

// puzzleState is the public view of a puzzle.
type puzzleState struct {
	Puzzle
	Watchers int `json:"watchers"`
}

// puzzleHandler returns the state of a puzzle. The fake coin is only
// revealed once solved, or always in debug mode.
func puzzleHandler(opts Options, store *PuzzleStore, hm *HubManager, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["puzzleID"]
	if !isValidUUID(id) {
		http.Error(w, "Invalid puzzle id", http.StatusBadRequest)
		return
	}
	p, err := store.Get(id)
	if err != nil {
		http.Error(w, "Puzzle not found", http.StatusNotFound)
		return
	}
	state := puzzleState{Puzzle: p.Public(), Watchers: hm.Watchers(id)}
	if opts.Debug {
		state.Fake = p.Fake
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// cacheControlMiddleware disables caching of API responses.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/" {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=300, no-transform")
		}
		next.ServeHTTP(w, r)
	})
}

// securityMiddleware adds HTTP security headers to responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs the method and URL path of every incoming HTTP request.
func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
