package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"canvas-collab/commands"
	"canvas-collab/core"
	"canvas-collab/handlers/api/canvas"
	"canvas-collab/handlers/auth"
	ws "canvas-collab/handlers/websocket"
	"canvas-collab/hub"
	authMiddleware "canvas-collab/middleware"
	"canvas-collab/registry"
	"canvas-collab/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func setupRouter(proc *commands.Processor, h *hub.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Post("/command", canvas.HandleCommand(proc))
		})
	})

	// Live updates are read-only; no auth on the push channel.
	r.Get("/updates", ws.HandleUpdates(h))

	r.Post("/auth/token", auth.HandleToken)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// canvasBounds reads the grid size from the environment, defaulting to
// the 500x500 grid the reference client uses.
func canvasBounds() core.Bounds {
	bounds := core.DefaultBounds
	if v := os.Getenv("CANVAS_WIDTH"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			bounds.Width = w
		}
	}
	if v := os.Getenv("CANVAS_HEIGHT"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			bounds.Height = h
		}
	}
	return bounds
}

func waitForShutdown(srv *http.Server, h *hub.Hub) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("Server shutdown failed")
	}
	h.Close()
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	store := stores.GetStore()

	reg := registry.New()
	recs, err := store.LoadAll(context.Background())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load canvases from store")
	}
	reg.Restore(recs)

	h := hub.New(hub.DefaultQueueSize)
	proc := commands.NewProcessor(reg, h, store, canvasBounds())

	r := setupRouter(proc, h)

	srv := &http.Server{Addr: *listenAddress, Handler: r}
	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, h)
}
