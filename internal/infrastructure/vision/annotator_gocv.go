//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

// GoCVEnabled сообщает, собран ли пакет с OpenCV.
const GoCVEnabled = true

type GoCVAnnotator struct {
	palette   Palette
	FontScale float64
	Thickness int
}

// NewGoCVAnnotator создаёт аннотатор на OpenCV.
func NewGoCVAnnotator(palette Palette) *GoCVAnnotator {
	return &GoCVAnnotator{
		palette:   palette,
		FontScale: 0.5,
		Thickness: 1,
	}
}

// Annotate рисует детекции через OpenCV и возвращает новую картинку.
func (a *GoCVAnnotator) Annotate(img image.Image, predictions []entity.Prediction) (image.Image, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	annotations := Layout(img.Bounds(), predictions, NewColorAssignment(a.palette), a.measure)
	for _, an := range annotations {
		gocv.Rectangle(&mat, toRect(an.Box), an.Color, StrokeWidth)
		// отрицательная толщина означает заливку
		gocv.Rectangle(&mat, toRect(an.LabelBox), an.Color, -1)

		_, th := a.measure(an.Caption)
		origin := image.Pt(int(math.Round(an.TextX)), int(math.Round(an.TextY+th)))
		gocv.PutText(&mat, an.Caption, origin, gocv.FontHersheySimplex, a.FontScale, color.RGBA{A: 255}, a.Thickness)
	}

	return mat.ToImage()
}

func (a *GoCVAnnotator) measure(text string) (float64, float64) {
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, a.FontScale, a.Thickness)
	return float64(size.X), float64(size.Y)
}

// toRect округляет рамку до целых пикселей.
func toRect(b entity.Box) image.Rectangle {
	return image.Rect(
		int(math.Round(b.Left)), int(math.Round(b.Top)),
		int(math.Round(b.Right)), int(math.Round(b.Bottom)),
	)
}

var _ port.Annotator = (*GoCVAnnotator)(nil)
