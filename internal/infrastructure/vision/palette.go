package vision

import "image/color"

// Palette представляет упорядоченный список цветов классов.
type Palette []color.RGBA

// DefaultPalette содержит восемь цветов, назначаемых классам по кругу.
var DefaultPalette = Palette{
	{R: 255, G: 99, B: 132, A: 255},
	{R: 54, G: 162, B: 235, A: 255},
	{R: 255, G: 206, B: 86, A: 255},
	{R: 75, G: 192, B: 192, A: 255},
	{R: 153, G: 102, B: 255, A: 255},
	{R: 255, G: 159, B: 64, A: 255},
	{R: 46, G: 204, B: 113, A: 255},
	{R: 231, G: 76, B: 60, A: 255},
}

// ColorAssignment выдаёт цвет классу при первом появлении, в порядке появления.
// Живёт один запуск.
type ColorAssignment struct {
	palette Palette
	colors  map[string]color.RGBA
}

// NewColorAssignment создаёт назначение для палитры; пустая палитра заменяется DefaultPalette.
func NewColorAssignment(palette Palette) *ColorAssignment {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorAssignment{
		palette: palette,
		colors:  make(map[string]color.RGBA),
	}
}

// Color возвращает цвет класса, выделяя следующий цвет палитры для нового класса.
func (a *ColorAssignment) Color(label string) color.RGBA {
	if c, ok := a.colors[label]; ok {
		return c
	}
	c := a.palette[len(a.colors)%len(a.palette)]
	a.colors[label] = c
	return c
}
