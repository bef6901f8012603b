package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// DefaultLabel используется, когда в записи нет ни class, ни label.
const DefaultLabel = "object"

// detectionKeys перечисляет ключи, по наличию которых запись считается детекцией.
var detectionKeys = [...]string{"x", "y", "width", "height"}

// Prediction представляет одну запись ответа сервиса: Detection или Classification.
type Prediction interface {
	// Label возвращает имя класса записи.
	Label() string
	isPrediction()
}

// Detection описывает рамку объекта; X, Y задают центр в пикселях изображения.
type Detection struct {
	X             float64
	Y             float64
	Width         float64
	Height        float64
	Class         string
	Confidence    float64
	HasConfidence bool
}

func (d Detection) Label() string { return d.Class }
func (Detection) isPrediction()   {}

// Box возвращает рамку в угловых координатах, обрезанную по изображению w×h.
func (d Detection) Box(w, h int) Box {
	return Box{
		Left:   max(0, d.X-d.Width/2),
		Top:    max(0, d.Y-d.Height/2),
		Right:  min(float64(w-1), d.X+d.Width/2),
		Bottom: min(float64(h-1), d.Y+d.Height/2),
	}
}

// Caption возвращает подпись рамки: "класс 0.87" или только класс.
func (d Detection) Caption() string {
	if d.HasConfidence {
		return fmt.Sprintf("%s %.2f", d.Class, d.Confidence)
	}
	return d.Class
}

// Classification описывает оценку класса без геометрии.
type Classification struct {
	Class    string
	Score    float64
	HasScore bool
	Extra    map[string]any // остальные примитивные поля записи
}

func (c Classification) Label() string { return c.Class }
func (Classification) isPrediction()   {}

// Box задаёт прямоугольник в угловых координатах.
type Box struct {
	Left, Top, Right, Bottom float64
}

// Empty сообщает, что после обрезки от рамки ничего не осталось.
func (b Box) Empty() bool {
	return !(b.Left < b.Right && b.Top < b.Bottom)
}

// IsDetection проверяет наличие всех четырёх ключей геометрии. Типы значений не проверяются.
func IsDetection(record map[string]any) bool {
	for _, k := range detectionKeys {
		if _, ok := record[k]; !ok {
			return false
		}
	}
	return true
}

// ResolveLabel выбирает имя класса: class, затем label, затем DefaultLabel.
func ResolveLabel(record map[string]any) string {
	for _, k := range []string{"class", "label"} {
		v, ok := record[k]
		if !ok || v == nil {
			continue
		}
		if s, err := cast.ToStringE(v); err == nil && s != "" {
			return s
		}
	}
	return DefaultLabel
}

// ParseDetection приводит запись к Detection. Нечисловая геометрия считается ошибкой только этой записи.
func ParseDetection(record map[string]any) (Detection, error) {
	var geom [4]float64
	for i, k := range detectionKeys {
		f, err := toFloat(record[k])
		if err != nil {
			return Detection{}, fmt.Errorf("field %q: %w", k, err)
		}
		geom[i] = f
	}

	d := Detection{
		X:      geom[0],
		Y:      geom[1],
		Width:  geom[2],
		Height: geom[3],
		Class:  ResolveLabel(record),
	}
	d.Confidence, d.HasConfidence = numeric(record["confidence"])
	return d, nil
}

// ParseClassification приводит запись к Classification. Оценка берётся из confidence, затем score.
func ParseClassification(record map[string]any) Classification {
	c := Classification{Class: ResolveLabel(record), Extra: make(map[string]any)}
	c.Score, c.HasScore = numeric(record["confidence"])
	if !c.HasScore {
		c.Score, c.HasScore = numeric(record["score"])
	}

	for k, v := range record {
		switch k {
		case "class", "label", "confidence", "score":
			continue
		}
		switch v.(type) {
		case string, bool, float64, json.Number:
			c.Extra[k] = v
		}
	}
	return c
}

// toFloat принимает конечные числа и числовые строки; nil, bool, NaN и Inf отвергаются.
func toFloat(v any) (float64, error) {
	switch v.(type) {
	case nil:
		return 0, errors.New("missing value")
	case bool:
		return 0, errors.New("unexpected bool")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", v)
	}
	return f, nil
}

// numeric возвращает значение, только если оно уже число (строки не считаются).
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
