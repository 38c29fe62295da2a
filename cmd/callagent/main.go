package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/raqmi/callagent/internal/call"
	"github.com/raqmi/callagent/internal/config"
	"github.com/raqmi/callagent/internal/httpapi"
	"github.com/raqmi/callagent/internal/llm"
	"github.com/raqmi/callagent/internal/observability"
	"github.com/raqmi/callagent/internal/session"
	"github.com/raqmi/callagent/internal/stt"
	"github.com/raqmi/callagent/internal/summarylog"
	"github.com/raqmi/callagent/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	for _, key := range []struct{ name, value string }{
		{"DEEPGRAM_API_KEY", cfg.DeepgramAPIKey},
		{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
		{"CARTESIA_API_KEY", cfg.CartesiaAPIKey},
	} {
		if strings.TrimSpace(key.value) == "" {
			log.Fatalf("%s is not set", key.name)
		}
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	summaries, err := summarylog.New(context.Background(), cfg.SummaryLogPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("summary log init failed: %v", err)
	}
	defer summaries.Close()
	if cfg.DatabaseURL != "" {
		log.Printf("summary log backend: postgres")
	} else {
		log.Printf("summary log backend: file (%s)", cfg.SummaryLogPath)
	}

	recognizer := stt.NewClient(stt.Config{
		APIKey:    cfg.DeepgramAPIKey,
		ListenURL: cfg.DeepgramListenURL,
	})
	generator := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	synthesizer := tts.NewClient(cfg.CartesiaAPIKey, cfg.CartesiaBaseURL, cfg.CartesiaVoiceID, cfg.CartesiaModelID)

	sessions := session.NewManager()

	orchestrator := call.New(call.Config{
		DataDir:      cfg.DataDir,
		Greeting:     cfg.Greeting,
		SystemPrompt: cfg.SystemPrompt,
		GoodbyePause: cfg.GoodbyePause,
	}, sessions, call.RecognizerDialerFunc(func(ctx context.Context) (call.Recognizer, error) {
		stream, err := recognizer.Dial(ctx)
		if err != nil {
			return nil, err
		}
		return stream, nil
	}), generator, synthesizer, summaries, metrics)

	api := httpapi.New(cfg, sessions, orchestrator, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
