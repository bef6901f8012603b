package port

import (
	"image"

	"leaf-bot/internal/domain/entity"
)

// Annotator интерфейс отрисовки детекций
type Annotator interface {
	// Annotate рисует рамки на копии изображения; исходное изображение не меняется
	Annotate(img image.Image, predictions []entity.Prediction) (image.Image, error)
}
