package entity

import "fmt"

// ConfigError означает, что не хватает входных данных; обнаруживается до сетевого вызова.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	switch e.Field {
	case FieldAPIKey:
		return "missing API key"
	case FieldModelID:
		return "missing model ID"
	case FieldImage:
		return "missing image"
	}
	return fmt.Sprintf("invalid %s", e.Field)
}

const (
	FieldAPIKey  = "api_key"
	FieldModelID = "model_id"
	FieldImage   = "image"
	FieldTask    = "task_type"
)

// HTTPError означает, что сервис инференса ответил не-2xx статусом.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("inference service returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeKind указывает, что именно не удалось декодировать.
type DecodeKind string

const (
	DecodeImage    DecodeKind = "image"
	DecodeResponse DecodeKind = "response"
)

// DecodeError означает, что не удалось декодировать загруженное изображение или тело ответа.
type DecodeError struct {
	Kind DecodeKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
