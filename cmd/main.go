package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leaf-bot/config"
	"leaf-bot/internal/api/rest"
	"leaf-bot/internal/api/telegram"
	app "leaf-bot/internal/application"
	"leaf-bot/internal/container"
	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
	"leaf-bot/internal/infrastructure/advice"
	"leaf-bot/internal/infrastructure/roboflow"
	"leaf-bot/internal/infrastructure/storage"
	"leaf-bot/internal/infrastructure/vision"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(level)

	task, ok := entity.ParseTaskType(cfg.DefaultTask)
	if !ok {
		log.Fatal().Str("task", cfg.DefaultTask).Msg("invalid ROBOFLOW_TASK")
	}

	// Собираем инфраструктуру
	var annotator port.Annotator = vision.NewGGAnnotator(vision.DefaultPalette)
	if cfg.Renderer == "gocv" {
		if !vision.GoCVEnabled {
			log.Fatal().Msg("RENDERER=gocv requires a build with -tags gocv")
		}
		annotator = vision.NewGoCVAnnotator(vision.DefaultPalette)
	}

	appContainer := container.New(container.Deps{
		Users:     storage.NewMemoryUserRepository(),
		Loader:    vision.NewLoader(storage.NewMemoryImageCache(cfg.ImageCacheSize)),
		Resolver:  roboflow.NewResolver(cfg.DetectURL, cfg.ClassifyURL),
		Client:    roboflow.NewClient(&http.Client{Timeout: cfg.Timeout}),
		Annotator: annotator,
		Advisor:   advice.NewRuleAdvisor(),
	}, app.Defaults{
		APIKey:     cfg.RoboflowAPIKey,
		ModelID:    cfg.DefaultModelID,
		Task:       task,
		Confidence: cfg.Confidence,
		Overlap:    cfg.Overlap,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	running := 0

	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           rest.NewRouter(rest.NewHandler(appContainer.InferenceService)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		running++
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("http server is running")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
				return
			}
			errs <- nil
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Err(err).Msg("http shutdown")
			}
		}()
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create bot")
		}
		running++
		go func() {
			log.Info().Msg("bot is running")
			errs <- bot.Run(ctx)
		}()
	}

	for ; running > 0; running-- {
		if err := <-errs; err != nil {
			log.Error().Err(err).Msg("stopped with error")
			stop()
		}
	}
	log.Info().Msg("shutdown complete")
}
