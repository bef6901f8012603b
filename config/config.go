package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string

	RoboflowAPIKey string
	DefaultModelID string
	DefaultTask    string
	DetectURL      string
	ClassifyURL    string

	Confidence float64
	Overlap    float64
	Timeout    time.Duration

	ImageCacheSize int

	Renderer string
	LogLevel string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		RoboflowAPIKey: os.Getenv("ROBOFLOW_API_KEY"),
		DefaultModelID: os.Getenv("ROBOFLOW_MODEL"),
		DefaultTask:    getEnv("ROBOFLOW_TASK", "auto"),
		DetectURL:      os.Getenv("ROBOFLOW_DETECT_URL"),
		ClassifyURL:    os.Getenv("ROBOFLOW_CLASSIFY_URL"),
		Renderer:       getEnv("RENDERER", "gg"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Confidence, err = cast.ToFloat64E(getEnv("INFERENCE_CONFIDENCE", "0.4")); err != nil {
		return nil, fmt.Errorf("INFERENCE_CONFIDENCE: %w", err)
	}
	if cfg.Overlap, err = cast.ToFloat64E(getEnv("INFERENCE_OVERLAP", "0.45")); err != nil {
		return nil, fmt.Errorf("INFERENCE_OVERLAP: %w", err)
	}
	if cfg.Timeout, err = cast.ToDurationE(getEnv("INFERENCE_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("INFERENCE_TIMEOUT: %w", err)
	}
	if cfg.ImageCacheSize, err = cast.ToIntE(getEnv("IMAGE_CACHE_SIZE", "32")); err != nil {
		return nil, fmt.Errorf("IMAGE_CACHE_SIZE: %w", err)
	}

	return cfg, nil
}

// Validate проверяет, что включён хотя бы один интерфейс пользователя.
func (c *Config) Validate() error {
	if c.TelegramToken == "" && c.HTTPAddr == "" {
		return errors.New("TELEGRAM_TOKEN or HTTP_ADDR is required")
	}
	switch c.Renderer {
	case "gg", "gocv":
	default:
		return fmt.Errorf("unknown RENDERER %q", c.Renderer)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
