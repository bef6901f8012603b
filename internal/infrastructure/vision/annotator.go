package vision

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

// DefaultFontSize задаёт размер шрифта подписей в пунктах.
const DefaultFontSize = 13

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// GGAnnotator рисует рамки и подписи средствами gg.
type GGAnnotator struct {
	palette  Palette
	fontSize float64
}

// NewGGAnnotator создаёт аннотатор с палитрой; nil означает DefaultPalette.
func NewGGAnnotator(palette Palette) *GGAnnotator {
	return &GGAnnotator{palette: palette, fontSize: DefaultFontSize}
}

// Annotate рисует детекции на копии изображения.
func (a *GGAnnotator) Annotate(img image.Image, predictions []entity.Prediction) (image.Image, error) {
	dc := gg.NewContextForImage(img)
	// truetype.Face кэширует глифы и не потокобезопасен, поэтому на каждый вызов свой.
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: a.fontSize}))

	annotations := Layout(img.Bounds(), predictions, NewColorAssignment(a.palette), dc.MeasureString)
	for _, an := range annotations {
		dc.SetColor(an.Color)
		dc.SetLineWidth(StrokeWidth)
		dc.DrawRectangle(an.Box.Left, an.Box.Top, an.Box.Right-an.Box.Left, an.Box.Bottom-an.Box.Top)
		dc.Stroke()

		dc.DrawRectangle(an.LabelBox.Left, an.LabelBox.Top, an.LabelBox.Right-an.LabelBox.Left, an.LabelBox.Bottom-an.LabelBox.Top)
		dc.Fill()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(an.Caption, an.TextX, an.TextY, 0, 1)
	}

	return dc.Image(), nil
}

var _ port.Annotator = (*GGAnnotator)(nil)
