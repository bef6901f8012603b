package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

// Defaults содержит значения, которые подставляются, если запрос их не задаёт.
type Defaults struct {
	APIKey     string
	ModelID    string
	Task       entity.TaskType
	Confidence float64
	Overlap    float64
}

type InferenceService struct {
	users     *UserService
	loader    port.ImageLoader
	resolver  port.EndpointResolver
	client    port.InferenceClient
	annotator port.Annotator
	advisor   port.TreatmentAdvisor
	defaults  Defaults
}

// NewInferenceService создаёт сервис, который проводит один запуск: загрузка, запрос, разбор, отрисовка.
func NewInferenceService(
	users *UserService,
	loader port.ImageLoader,
	resolver port.EndpointResolver,
	client port.InferenceClient,
	annotator port.Annotator,
	advisor port.TreatmentAdvisor,
	defaults Defaults,
) *InferenceService {
	return &InferenceService{
		users:     users,
		loader:    loader,
		resolver:  resolver,
		client:    client,
		annotator: annotator,
		advisor:   advisor,
		defaults:  defaults,
	}
}

// Params возвращает параметры запроса к сервису; классификационные модели лишние параметры игнорируют.
func (s *InferenceService) Params() map[string]any {
	return map[string]any{
		"format":     "json",
		"confidence": s.defaults.Confidence,
		"overlap":    s.defaults.Overlap,
	}
}

// Run выполняет один запуск. Все ошибки окончательные, повторов нет.
func (s *InferenceService) Run(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceOutput, error) {
	req = s.withDefaults(req)

	switch {
	case req.APIKey == "":
		return nil, &entity.ConfigError{Field: entity.FieldAPIKey}
	case req.ModelID == "":
		return nil, &entity.ConfigError{Field: entity.FieldModelID}
	case len(req.ImageData) == 0:
		return nil, &entity.ConfigError{Field: entity.FieldImage}
	}

	img, err := s.loader.Load(req.ImageData)
	if err != nil {
		return nil, err
	}

	url, ok := s.resolver.Resolve(req.ModelID, req.Task)
	if !ok {
		return nil, &entity.ConfigError{Field: entity.FieldModelID}
	}

	raw, err := s.client.Infer(ctx, url, req.APIKey, img, s.Params())
	if err != nil {
		return nil, err
	}

	result := entity.ParseResponse(raw)
	out := &entity.InferenceOutput{Result: result, Original: img}

	switch result.Mode {
	case entity.ModeDetection:
		out.Annotated, err = s.annotator.Annotate(img, result.Predictions)
		if err != nil {
			return nil, fmt.Errorf("annotate: %w", err)
		}
	case entity.ModeClassification:
		if s.advisor != nil {
			out.Advice, err = s.advisor.Advise(ctx, result.Top)
			if err != nil {
				return nil, fmt.Errorf("advise: %w", err)
			}
		}
	}

	log.Info().
		Str("model", req.ModelID).
		Str("task", string(req.Task)).
		Str("mode", string(result.Mode)).
		Int("predictions", len(result.Predictions)).
		Int("skipped", result.Skipped).
		Msg("inference complete")

	return out, nil
}

// RunForUser выполняет запуск с настройками пользователя и возвращает его в главное меню.
func (s *InferenceService) RunForUser(ctx context.Context, userID, chatID int64, photo []byte) (*entity.InferenceOutput, error) {
	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.users.SetState(ctx, userID, chatID, entity.StateMainMenu); err != nil {
			log.Err(err).Int64("user", userID).Msg("reset user state")
		}
	}()

	return s.Run(ctx, entity.InferenceRequest{
		ModelID:   user.ModelID,
		Task:      user.Task,
		ImageData: photo,
	})
}

func (s *InferenceService) withDefaults(req entity.InferenceRequest) entity.InferenceRequest {
	if req.APIKey == "" {
		req.APIKey = s.defaults.APIKey
	}
	if req.ModelID == "" {
		req.ModelID = s.defaults.ModelID
	}
	if req.Task == "" {
		req.Task = s.defaults.Task
	}
	if req.Task == "" {
		req.Task = entity.TaskAuto
	}
	return req
}
