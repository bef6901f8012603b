package vision

import (
	"image"
	"image/color"

	"leaf-bot/internal/domain/entity"
)

const (
	// StrokeWidth: толщина рамки в пикселях.
	StrokeWidth = 3

	labelPadX = 6 // по горизонтали, суммарно
	labelPadY = 2
)

// Measurer возвращает ширину и высоту текста в пикселях.
type Measurer func(text string) (w, h float64)

// Annotation описывает всё, что нужно нарисовать для одной детекции.
type Annotation struct {
	Box      entity.Box
	Color    color.RGBA
	Caption  string
	LabelBox entity.Box // подложка подписи
	TextX    float64    // левый верхний угол текста
	TextY    float64
}

// Layout раскладывает детекции по изображению с границами bounds. Записи без геометрии
// пропускаются; рамки, схлопнувшиеся после обрезки, не рисуются, но цвет класса получают.
func Layout(bounds image.Rectangle, predictions []entity.Prediction, colors *ColorAssignment, measure Measurer) []Annotation {
	w, h := bounds.Dx(), bounds.Dy()

	out := make([]Annotation, 0, len(predictions))
	for _, p := range predictions {
		d, ok := p.(entity.Detection)
		if !ok {
			continue
		}

		c := colors.Color(d.Class)
		box := d.Box(w, h)
		if box.Empty() {
			continue
		}

		caption := d.Caption()
		tw, th := measure(caption)
		label := placeLabel(box, tw+labelPadX, th+labelPadY, float64(w-1))

		out = append(out, Annotation{
			Box:      box,
			Color:    c,
			Caption:  caption,
			LabelBox: label,
			TextX:    label.Left + labelPadX/2,
			TextY:    label.Top + labelPadY/2,
		})
	}
	return out
}

// placeLabel ставит подложку над верхней гранью рамки. У верхнего края изображения подложка
// сползает внутрь рамки, у правого края сдвигается влево.
func placeLabel(box entity.Box, lw, lh, maxX float64) entity.Box {
	top := max(0, box.Top-lh)
	left := box.Left
	if left+lw > maxX {
		left = max(0, maxX-lw)
	}
	return entity.Box{Left: left, Top: top, Right: left + lw, Bottom: top + lh}
}
