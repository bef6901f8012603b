package port

import (
	"context"
	"image"

	"leaf-bot/internal/domain/entity"
)

// EndpointResolver интерфейс построения адреса модели
type EndpointResolver interface {
	// Resolve возвращает URL модели; false, если modelID пуст
	Resolve(modelID string, task entity.TaskType) (string, bool)
}

// InferenceClient интерфейс клиента сервиса инференса
type InferenceClient interface {
	// Infer отправляет изображение и возвращает разобранный JSON ответа
	Infer(ctx context.Context, url, apiKey string, img image.Image, params map[string]any) (any, error)
}
