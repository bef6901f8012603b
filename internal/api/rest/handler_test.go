package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "leaf-bot/internal/application"
	"leaf-bot/internal/container"
	"leaf-bot/internal/domain/entity"
	"leaf-bot/internal/infrastructure/advice"
	"leaf-bot/internal/infrastructure/roboflow"
	"leaf-bot/internal/infrastructure/storage"
	"leaf-bot/internal/infrastructure/vision"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type runnerFunc func(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceOutput, error)

func (f runnerFunc) Run(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceOutput, error) {
	return f(ctx, req)
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "leaf.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inference", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(t *testing.T, runner Runner, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(NewHandler(runner)).ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := serve(t, nil, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", body["status"])
}

func TestInfer_PassesFormFields(t *testing.T) {
	var got entity.InferenceRequest
	runner := runnerFunc(func(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceOutput, error) {
		got = req
		return &entity.InferenceOutput{Result: &entity.InferenceResult{Mode: entity.ModeRaw, Raw: []any{1.0}}}, nil
	})

	req := uploadRequest(t, []byte("bytes"), map[string]string{"model_id": "acme/corn/2", "task_type": "classification"})
	req.Header.Set("X-Api-Key", "from-header")
	rec, body := serve(t, runner, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "raw", body["mode"])
	require.Equal(t, []any{1.0}, body["raw"])
	require.Equal(t, entity.InferenceRequest{APIKey: "from-header", ModelID: "acme/corn/2", Task: entity.TaskClassification, ImageData: []byte("bytes")}, got)
}

func TestInfer_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&entity.ConfigError{Field: entity.FieldAPIKey}, http.StatusBadRequest},
		{&entity.DecodeError{Kind: entity.DecodeImage, Err: errors.New("unknown format")}, http.StatusBadRequest},
		{&entity.DecodeError{Kind: entity.DecodeResponse, Err: errors.New("bad json")}, http.StatusBadGateway},
		{errors.New("send request: timeout"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		runner := runnerFunc(func(context.Context, entity.InferenceRequest) (*entity.InferenceOutput, error) {
			return nil, tc.err
		})
		rec, body := serve(t, runner, uploadRequest(t, []byte("x"), map[string]string{"model_id": "m/1"}))
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.NotEmpty(t, body["error"])
	}
}

func TestInfer_HTTPError(t *testing.T) {
	runner := runnerFunc(func(context.Context, entity.InferenceRequest) (*entity.InferenceOutput, error) {
		return nil, &entity.HTTPError{StatusCode: 401, Body: "Unauthorized"}
	})

	rec, body := serve(t, runner, uploadRequest(t, []byte("x"), map[string]string{"model_id": "m/1"}))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 401.0, body["status"])
	require.Equal(t, "Unauthorized", body["body"])
	require.NotContains(t, body, "annotated_image")
	require.NotContains(t, body, "classifications")
}

func TestInfer_InvalidTask(t *testing.T) {
	called := false
	runner := runnerFunc(func(context.Context, entity.InferenceRequest) (*entity.InferenceOutput, error) {
		called = true
		return nil, nil
	})

	rec, body := serve(t, runner, uploadRequest(t, []byte("x"), map[string]string{"task_type": "segmentation"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid task_type", body["error"])
	require.False(t, called)
}

func TestInfer_UploadTooLarge(t *testing.T) {
	called := false
	runner := runnerFunc(func(context.Context, entity.InferenceRequest) (*entity.InferenceOutput, error) {
		called = true
		return nil, nil
	})

	big := make([]byte, maxUploadSize+1)
	rec, body := serve(t, runner, uploadRequest(t, big, map[string]string{"model_id": "m/1", "api_key": "k"}))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, body["error"], "exceeds")
	require.False(t, called)
}

// fakeRoboflow отвечает заданным телом и проверяет ключ.
func fakeRoboflow(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, "Unauthorized")
			return
		}
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRunner(srv *httptest.Server) Runner {
	c := container.New(container.Deps{
		Users:     storage.NewMemoryUserRepository(),
		Loader:    vision.NewLoader(storage.NewMemoryImageCache(storage.DefaultImageCacheSize)),
		Resolver:  roboflow.NewResolver(srv.URL+"/detect", srv.URL+"/classify"),
		Client:    roboflow.NewClient(srv.Client()),
		Annotator: vision.NewGGAnnotator(vision.DefaultPalette),
		Advisor:   advice.NewRuleAdvisor(),
	}, app.Defaults{Confidence: 0.4, Overlap: 0.45})
	return c.InferenceService
}

func TestInfer_EndToEndDetection(t *testing.T) {
	srv := fakeRoboflow(t, `{"predictions":[{"x":320,"y":240,"width":100,"height":80,"class":"blight","confidence":0.87}]}`)

	req := uploadRequest(t, pngImage(t, 640, 480), map[string]string{"model_id": "acme/corn/2", "api_key": "secret"})
	rec, body := serve(t, newRunner(srv), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "detection", body["mode"])

	dets := body["detections"].([]any)
	require.Len(t, dets, 1)
	det := dets[0].(map[string]any)
	require.Equal(t, "blight", det["class"])
	require.Equal(t, 0.87, det["confidence"])

	data, err := base64.StdEncoding.DecodeString(body["annotated_image"].(string))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
}

func TestInfer_EndToEndClassification(t *testing.T) {
	srv := fakeRoboflow(t, `{"predictions":[{"class":"healthy","confidence":0.95},{"class":"blighted","confidence":0.05}]}`)

	req := uploadRequest(t, pngImage(t, 32, 32), map[string]string{"model_id": "acme/corn/2", "api_key": "secret", "task_type": "classification"})
	rec, body := serve(t, newRunner(srv), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "classification", body["mode"])
	require.Equal(t, "healthy", body["top"])
	require.Len(t, body["classifications"], 2)
	require.NotContains(t, body, "annotated_image")
	require.NotEmpty(t, body["treatment"])
}

func TestInfer_EndToEndUnauthorized(t *testing.T) {
	srv := fakeRoboflow(t, `{}`)

	req := uploadRequest(t, pngImage(t, 8, 8), map[string]string{"model_id": "acme/corn/2", "api_key": "wrong"})
	rec, body := serve(t, newRunner(srv), req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 401.0, body["status"])
	require.Equal(t, "Unauthorized", body["body"])
}

func TestInfer_MissingInputsReportedInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inference service must not be called")
	}))
	t.Cleanup(srv.Close)
	runner := newRunner(srv)

	cases := []struct {
		fields map[string]string
		file   []byte
		want   string
	}{
		{map[string]string{}, nil, "missing API key"},
		{map[string]string{"api_key": "secret"}, nil, "missing model ID"},
		{map[string]string{"api_key": "secret", "model_id": "acme/corn/2"}, nil, "missing image"},
		{map[string]string{"model_id": "acme/corn/2"}, pngImage(t, 8, 8), "missing API key"},
	}
	for _, tc := range cases {
		rec, body := serve(t, runner, uploadRequest(t, tc.file, tc.fields))
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.want)
		require.Equal(t, tc.want, body["error"])
	}
}

func TestInfer_NonFiniteRecordSkipped(t *testing.T) {
	srv := fakeRoboflow(t, `{"predictions":[
		{"x":320,"y":240,"width":100,"height":80,"class":"blight","confidence":0.87},
		{"x":"NaN","y":240,"width":100,"height":80,"class":"ghost"}
	]}`)

	req := uploadRequest(t, pngImage(t, 640, 480), map[string]string{"model_id": "acme/corn/2", "api_key": "secret"})
	rec, body := serve(t, newRunner(srv), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "detection", body["mode"])
	require.Equal(t, 1.0, body["skipped"])
	require.Len(t, body["detections"], 1)
	require.NotEmpty(t, body["annotated_image"])
}
