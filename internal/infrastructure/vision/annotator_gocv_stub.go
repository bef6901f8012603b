//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

// GoCVEnabled сообщает, собран ли пакет с OpenCV.
const GoCVEnabled = false

type GoCVAnnotator struct {
	palette   Palette
	FontScale float64
	Thickness int
}

// NewGoCVAnnotator создаёт аннотатор-заглушку (без OpenCV).
func NewGoCVAnnotator(palette Palette) *GoCVAnnotator {
	return &GoCVAnnotator{
		palette:   palette,
		FontScale: 0.5,
		Thickness: 1,
	}
}

// Annotate возвращает ошибку, если сборка без тега gocv.
func (a *GoCVAnnotator) Annotate(img image.Image, predictions []entity.Prediction) (image.Image, error) {
	_ = img
	_ = predictions
	return nil, errors.New("gocv build tag is not enabled")
}

var _ port.Annotator = (*GoCVAnnotator)(nil)
