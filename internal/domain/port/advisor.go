package port

import (
	"context"

	"leaf-bot/internal/domain/entity"
)

// TreatmentAdvisor интерфейс подбора рекомендации по классу болезни
type TreatmentAdvisor interface {
	// Advise возвращает рекомендацию для метки класса
	Advise(ctx context.Context, label string) (*entity.Advice, error)
}
