package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/triptalk/backend/internal/config"
	"github.com/triptalk/backend/internal/handler"
	chathandler "github.com/triptalk/backend/internal/handler/chat"
	healthhandler "github.com/triptalk/backend/internal/handler/health"
	ttshandler "github.com/triptalk/backend/internal/handler/tts"
	"github.com/triptalk/backend/internal/service/ai"
	chatservice "github.com/triptalk/backend/internal/service/chat"
	speechservice "github.com/triptalk/backend/internal/service/speech"
	ttsservice "github.com/triptalk/backend/internal/service/tts"
	"github.com/triptalk/backend/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.L().Info("no .env file, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.L().Fatal("failed to load configuration", zap.Error(err))
	}

	// A missing LLM credential degrades chat to the localized apology and
	// flips the health check; it never aborts startup.
	var aiService *ai.Service
	if cfg.LLM.Enabled() {
		chatModel, err := cfg.LLM.NewChatModel(ctx)
		if err != nil {
			log.L().Warn("failed to initialize chat model", zap.Error(err))
		} else if aiService, err = ai.NewService(ctx, chatModel, cfg.LLM.Timeout); err != nil {
			log.L().Warn("failed to initialize AI service", zap.Error(err))
			aiService = nil
		} else {
			log.L().Info("AI service initialized", zap.String("model", cfg.LLM.Model))
		}
	} else {
		log.L().Warn("LLM credentials not configured, chat will answer with apologies")
	}

	httpClient := &http.Client{Timeout: cfg.Speech.Timeout}
	transcoder := speechservice.NewTranscoder(cfg.Speech)
	whisper := speechservice.NewWhisperClient(cfg.Speech.WhisperURL, httpClient)
	emotions := speechservice.NewEmotionClient(cfg.Speech.EmotionURL, httpClient)

	var generator chatservice.Generator
	if aiService != nil {
		generator = aiService
	}
	orchestrator := chatservice.NewService(generator, transcoder, whisper, emotions, cfg.Speech.TempDir)

	backends := map[string]ttsservice.Synthesizer{
		"edge":  ttsservice.NewEdgeSynthesizer(cfg.TTS),
		"piper": ttsservice.NewPiperSynthesizer(cfg.TTS),
	}

	router := handler.NewRouter(
		chathandler.New(orchestrator),
		ttshandler.New(backends, cfg.TTS.DefaultBackend),
		healthhandler.New(cfg.LLM.Enabled(), cfg.LLM.Model),
	)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.L().Info("server listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		log.L().Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
