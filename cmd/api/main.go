package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/M1CTIAN/potato-doc/internal/application"
	appanalysis "github.com/M1CTIAN/potato-doc/internal/application/analysis"
	"github.com/M1CTIAN/potato-doc/internal/application/files"
	"github.com/M1CTIAN/potato-doc/internal/config"
	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
	"github.com/M1CTIAN/potato-doc/internal/infra/classifier"
	"github.com/M1CTIAN/potato-doc/internal/infra/httpserver"
	"github.com/M1CTIAN/potato-doc/internal/infra/storage"
	"github.com/M1CTIAN/potato-doc/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// init preview store: minio kalau dikonfigurasi, kalau tidak in-memory
	var previews domain.PreviewStore
	var storeCheck middleware.HealthChecker
	if cfg.Minio.Endpoint != "" {
		store, err := storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		previews = store
		storeCheck = store
	} else {
		log.Println("minio not configured, using in-memory preview store")
		store := storage.NewMemoryStore()
		previews = store
		storeCheck = store
	}

	// init classifier client
	cls := classifier.New(cfg.Classifier.Endpoint, cfg.ClassifierTimeout())

	// init service
	svc := appanalysis.NewService(cls, previews, application.SystemClock{})

	// init acquirer
	acq := files.NewAcquirer(cfg.Upload.MaxBytes)

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(cfg),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"preview_store": storeCheck,
		"classifier":    middleware.CheckerFunc(cls.Check),
	}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc, acq))

	// sweep session nganggur, preview-nya ikut dilepas
	stopSweep := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := svc.SweepIdle(cfg.SessionTTL()); n > 0 {
					log.Printf("session sweep: removed=%d remaining=%d", n, svc.SessionCount())
				}
			case <-stopSweep:
				return
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")
	close(stopSweep)

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func corsOrigins(cfg *config.Config) []string {
	if len(cfg.CORS.AllowedOrigins) > 0 {
		return cfg.CORS.AllowedOrigins
	}
	return []string{"*"}
}
