package roboflow

import (
	"strings"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
)

const (
	DefaultDetectURL   = "https://detect.roboflow.com"
	DefaultClassifyURL = "https://classify.roboflow.com"
)

// Resolver строит адрес hosted API по идентификатору модели.
type Resolver struct {
	DetectURL   string
	ClassifyURL string
}

// NewResolver создаёт резолвер; пустые адреса заменяются адресами Roboflow.
func NewResolver(detectURL, classifyURL string) *Resolver {
	if detectURL == "" {
		detectURL = DefaultDetectURL
	}
	if classifyURL == "" {
		classifyURL = DefaultClassifyURL
	}
	return &Resolver{
		DetectURL:   strings.TrimRight(detectURL, "/"),
		ClassifyURL: strings.TrimRight(classifyURL, "/"),
	}
}

// Resolve возвращает {base}/{modelID}. Формат workspace/project/version не проверяется.
func (r *Resolver) Resolve(modelID string, task entity.TaskType) (string, bool) {
	if modelID == "" {
		return "", false
	}
	base := r.DetectURL
	if task == entity.TaskClassification {
		base = r.ClassifyURL
	}
	return base + "/" + modelID, true
}

var _ port.EndpointResolver = (*Resolver)(nil)
