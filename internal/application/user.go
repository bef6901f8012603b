package app

import (
	"context"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SetState меняет только состояние; остальные настройки пользователя не трогаются.
func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	// Get создаёт пользователя, если его ещё нет
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, userID, chatID)
}

// BeginModelInput переводит пользователя в ожидание идентификатора модели.
func (s *UserService) BeginModelInput(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingModelID)
}

// SetModel запоминает модель и возвращает пользователя в главное меню.
func (s *UserService) SetModel(ctx context.Context, userID, chatID int64, modelID string) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetModel(modelID)
	user.SetState(entity.StateMainMenu)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SetTask запоминает тип задачи; на неизвестный тип возвращает ConfigError.
func (s *UserService) SetTask(ctx context.Context, userID, chatID int64, raw string) (*entity.User, error) {
	task, ok := entity.ParseTaskType(raw)
	if !ok {
		return nil, &entity.ConfigError{Field: entity.FieldTask}
	}

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetTask(task)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
