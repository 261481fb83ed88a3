package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed help.md
var helpMarkdown []byte

// Options configures the web UI.
type Options struct {
	Collection *ops.Collection
	Sessions   *session.Manager
	Config     *config.Config
	Version    string
	Bind       string
	Port       int
	Logger     *slog.Logger
}

// NewHandlers builds the route handlers from embedded templates.
func NewHandlers(opts Options) (*Handlers, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = opts.Collection.Config()
	}
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	return &Handlers{
		coll:     opts.Collection,
		sessions: opts.Sessions,
		cfg:      opts.Config,
		renderer: NewRenderer(templateSub, opts.Version, opts.Logger),
		help:     renderMarkdown(helpMarkdown),
		log:      opts.Logger,
	}, nil
}

// NewRouter mounts every route on a chi router.
func NewRouter(h *Handlers) (http.Handler, error) {
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(securityHeaders)

	r.Get("/", h.HandleSplash)
	r.Get("/help", h.HandleHelp)
	r.Route("/spinners", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleDetail)
			r.Post("/", h.HandleUpdate)
			r.Post("/delete", h.HandleDelete)
			r.Post("/options", h.HandleAddOption)
			r.Post("/options/{optionID}", h.HandleUpdateOption)
			r.Post("/options/{optionID}/delete", h.HandleDeleteOption)
			r.Post("/spin", h.HandleSpin)
			r.Get("/spin", h.HandleSpinState)
			r.Post("/back", h.HandleBack)
		})
	})
	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticSub))))

	return r, nil
}

// NewServer creates and configures the HTTP server for the Spinit web UI.
func NewServer(opts Options) (*http.Server, error) {
	h, err := NewHandlers(opts)
	if err != nil {
		return nil, err
	}
	router, err := NewRouter(h)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Run starts the HTTP server and shuts down gracefully on SIGINT/SIGTERM.
// onShutdown runs after the server stops accepting requests.
func Run(srv *http.Server, logger *slog.Logger, onShutdown func(context.Context)) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("Spinit UI running", "url", "http://"+srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0:") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(ctx)
		if onShutdown != nil {
			onShutdown(ctx)
		}
		return err
	}
}
