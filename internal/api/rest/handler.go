package rest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/infrastructure/vision"
)

// maxUploadSize ограничивает размер загружаемого файла.
const maxUploadSize = 10 << 20

const annotatedQuality = 90

// Runner выполняет один запуск инференса.
type Runner interface {
	Run(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceOutput, error)
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

type detectionDTO struct {
	Class      string   `json:"class"`
	Confidence *float64 `json:"confidence,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
}

type classificationDTO struct {
	Class      string         `json:"class"`
	Confidence *float64       `json:"confidence,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

type inferenceResponse struct {
	Mode            entity.ResultMode   `json:"mode"`
	Detections      []detectionDTO      `json:"detections,omitempty"`
	Skipped         int                 `json:"skipped,omitempty"`
	AnnotatedImage  string              `json:"annotated_image,omitempty"` // base64 JPEG
	Classifications []classificationDTO `json:"classifications,omitempty"`
	Top             string              `json:"top,omitempty"`
	Treatment       string              `json:"treatment,omitempty"`
	Raw             any                 `json:"raw,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"` // статус сервиса инференса
	Body   string `json:"body,omitempty"`   // тело ответа сервиса как есть
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Infer принимает multipart-форму: file, model_id, task_type и необязательный api_key.
func (h *Handler) Infer(c *gin.Context) {
	task, ok := entity.ParseTaskType(c.PostForm("task_type"))
	if !ok {
		h.fail(c, &entity.ConfigError{Field: entity.FieldTask})
		return
	}

	// без файла data пуст, и Run сообщит о первом недостающем поле
	data, err := readUpload(c)
	switch {
	case errors.Is(err, errUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	case err != nil:
		log.Err(err).Msg("read upload")
		h.fail(c, &entity.ConfigError{Field: entity.FieldImage})
		return
	}

	apiKey := c.PostForm("api_key")
	if apiKey == "" {
		apiKey = c.GetHeader("X-Api-Key")
	}

	out, err := h.runner.Run(c.Request.Context(), entity.InferenceRequest{
		APIKey:    apiKey,
		ModelID:   c.PostForm("model_id"),
		Task:      task,
		ImageData: data,
	})
	if err != nil {
		log.Err(err).Msg("inference")
		h.fail(c, err)
		return
	}

	resp, err := toResponse(out)
	if err != nil {
		log.Err(err).Msg("encode response")
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var errUploadTooLarge = fmt.Errorf("image exceeds %d bytes", maxUploadSize)

// readUpload возвращает содержимое поля file; отсутствие файла не считается ошибкой.
func readUpload(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > maxUploadSize {
		return nil, errUploadTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadSize {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// fail переводит ошибку запуска в HTTP-ответ.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		cfgErr    *entity.ConfigError
		httpErr   *entity.HTTPError
		decodeErr *entity.DecodeError
	)
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: cfgErr.Error()})
	case errors.As(err, &httpErr):
		c.JSON(http.StatusBadGateway, errorResponse{Error: "HTTP error", Status: httpErr.StatusCode, Body: httpErr.Body})
	case errors.As(err, &decodeErr) && decodeErr.Kind == entity.DecodeImage:
		c.JSON(http.StatusBadRequest, errorResponse{Error: decodeErr.Error()})
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusBadGateway, errorResponse{Error: "Unexpected error: " + decodeErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Unexpected error: " + err.Error()})
	}
}

func toResponse(out *entity.InferenceOutput) (*inferenceResponse, error) {
	result := out.Result
	resp := &inferenceResponse{Mode: result.Mode}

	switch result.Mode {
	case entity.ModeDetection:
		for _, d := range result.Detections() {
			resp.Detections = append(resp.Detections, detectionDTO{
				Class:      d.Class,
				Confidence: optional(d.Confidence, d.HasConfidence),
				X:          d.X,
				Y:          d.Y,
				Width:      d.Width,
				Height:     d.Height,
			})
		}
		resp.Skipped = result.Skipped
		data, err := vision.JPEGBytes(out.Annotated, annotatedQuality)
		if err != nil {
			return nil, err
		}
		resp.AnnotatedImage = base64.StdEncoding.EncodeToString(data)

	case entity.ModeClassification:
		for _, cl := range result.Classifications() {
			dto := classificationDTO{Class: cl.Class, Confidence: optional(cl.Score, cl.HasScore)}
			if len(cl.Extra) > 0 {
				dto.Extra = cl.Extra
			}
			resp.Classifications = append(resp.Classifications, dto)
		}
		resp.Top = result.Top
		if out.Advice != nil {
			resp.Treatment = out.Advice.Treatment
		}

	default:
		resp.Raw = result.Raw
	}
	return resp, nil
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
