package roboflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/domain/port"
	"leaf-bot/internal/infrastructure/vision"
)

// DefaultTimeout ограничивает один запрос к hosted API.
const DefaultTimeout = 60 * time.Second

const (
	formField   = "file"
	formFile    = "image.jpg"
	formType    = "image/jpeg"
	jpegQuality = 90
)

// Client отправляет изображение в hosted API одним multipart-запросом, без повторов.
type Client struct {
	client *http.Client
}

// NewClient создаёт клиента. nil означает http.Client с DefaultTimeout.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{client: client}
}

// Infer кодирует изображение в JPEG, добавляет api_key к параметрам и возвращает JSON ответа.
func (c *Client) Infer(ctx context.Context, rawURL, apiKey string, img image.Image, params map[string]any) (any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	q := u.Query()
	for k, v := range params {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		q.Set(k, s)
	}
	q.Set("api_key", apiKey)
	u.RawQuery = q.Encode()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, formFile))
	header.Set("Content-Type", formType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if err = vision.EncodeJPEG(part, img, jpegQuality); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	log.Debug().
		Str("host", u.Host).
		Str("path", u.Path).
		Int("bytes", body.Len()).
		Msg("sending inference request")

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &entity.HTTPError{StatusCode: response.StatusCode, Body: string(data)}
	}

	var result any
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, &entity.DecodeError{Kind: entity.DecodeResponse, Err: err}
	}

	return result, nil
}

var _ port.InferenceClient = (*Client)(nil)
