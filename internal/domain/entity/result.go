package entity

import (
	"image"
	"sort"

	"github.com/samber/lo"
)

// TaskType задаёт подсказку о типе модели, выбранную пользователем.
type TaskType string

const (
	TaskAuto           TaskType = "auto"
	TaskDetection      TaskType = "detection"
	TaskClassification TaskType = "classification"
)

// ParseTaskType возвращает тип задачи по строке; пустая строка означает auto.
func ParseTaskType(s string) (TaskType, bool) {
	switch t := TaskType(s); t {
	case "":
		return TaskAuto, true
	case TaskAuto, TaskDetection, TaskClassification:
		return t, true
	}
	return "", false
}

// ResultMode определяет, как показывать ответ.
type ResultMode string

const (
	ModeDetection      ResultMode = "detection"      // рамки на изображении
	ModeClassification ResultMode = "classification" // таблица оценок
	ModeRaw            ResultMode = "raw"            // JSON как есть
)

// InferenceRequest содержит входные данные одного запуска.
type InferenceRequest struct {
	APIKey    string
	ModelID   string
	Task      TaskType
	ImageData []byte
}

// InferenceResult содержит разобранный ответ сервиса.
type InferenceResult struct {
	Mode        ResultMode
	Predictions []Prediction // в порядке ответа
	Skipped     int          // записи-детекции с нечисловой геометрией
	Top         string       // главный класс для режима классификации
	Raw         any          // исходный JSON
}

// InferenceOutput содержит результат запуска для презентера.
type InferenceOutput struct {
	Result    *InferenceResult
	Original  image.Image
	Annotated image.Image // только для ModeDetection
	Advice    *Advice     // только для ModeClassification
}

// Detections возвращает записи-детекции.
func (r *InferenceResult) Detections() []Detection {
	out := make([]Detection, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		if d, ok := p.(Detection); ok {
			out = append(out, d)
		}
	}
	return out
}

// Classifications возвращает записи-классификации.
func (r *InferenceResult) Classifications() []Classification {
	out := make([]Classification, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		if c, ok := p.(Classification); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParseResponse разбирает ответ сервиса. Режим детекции выбирается, если хотя бы одна
// запись содержит геометрию; иначе вся пачка считается классификацией.
func ParseResponse(raw any) *InferenceResult {
	result := &InferenceResult{Mode: ModeRaw, Raw: raw}

	body, ok := raw.(map[string]any)
	if !ok {
		return result
	}
	items, ok := body["predictions"].([]any)
	if !ok {
		return result
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}

	result.Mode = ModeClassification
	if lo.ContainsBy(records, IsDetection) {
		result.Mode = ModeDetection
	}

	for _, rec := range records {
		if !IsDetection(rec) {
			result.Predictions = append(result.Predictions, ParseClassification(rec))
			continue
		}
		d, err := ParseDetection(rec)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Predictions = append(result.Predictions, d)
	}

	if result.Mode == ModeClassification {
		result.Top = topClass(body, result.Classifications())
	}
	return result
}

// topClass берёт поле top ответа, иначе класс с наибольшей оценкой.
func topClass(body map[string]any, cls []Classification) string {
	if top, ok := body["top"].(string); ok && top != "" {
		return top
	}
	scored := lo.Filter(cls, func(c Classification, _ int) bool { return c.HasScore })
	if len(scored) == 0 {
		if len(cls) > 0 {
			return cls[0].Class
		}
		return ""
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored[0].Class
}
