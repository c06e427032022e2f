// Command examiner-server runs the grading service as an HTTP server
// with a JSON assessment endpoint and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/gradeband/examiner/infrastructure/llm"
	"github.com/gradeband/examiner/infrastructure/middleware"
	"github.com/gradeband/examiner/internal/application"
	"github.com/gradeband/examiner/internal/report"
	"github.com/gradeband/examiner/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (credentials may also come from EXAMINER_API_KEYS)")
	flag.Parse()

	cfg, err := application.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	metrics := middleware.NewPrometheusMetrics()

	opts := []llm.DispatcherOption{
		llm.WithMiddleware(
			llm.TracingMiddleware("examiner"),
			llm.MetricsMiddleware(metrics),
			llm.TimeoutMiddleware(cfg.RequestTimeout),
			llm.RateLimitMiddleware(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		),
	}
	if len(cfg.ModelPriority) > 0 {
		opts = append(opts, llm.WithModelPriority(cfg.ModelPriority))
	}
	if cfg.FallbackModel != "" {
		opts = append(opts, llm.WithFallbackModel(cfg.FallbackModel))
	}
	dispatcher := llm.NewDispatcher(cfg.Credentials, opts...)

	prompts, err := application.NewPromptBuilder(cfg.PromptTemplate)
	if err != nil {
		log.Fatalf("prompt template: %v", err)
	}

	svc, err := application.NewService(dispatcher, report.Interpreter{}, prompts,
		application.WithMetrics(metrics),
		application.WithMaxConcurrency(cfg.MaxConcurrency),
	)
	if err != nil {
		log.Fatalf("build service: %v", err)
	}

	srv, err := server.New(svc, nil, log.Default())
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
