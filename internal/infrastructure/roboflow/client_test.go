package roboflow

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaf-bot/internal/domain/entity"
)

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 40, G: 160, B: 60, A: 255})
		}
	}
	return img
}

func defaultParams() map[string]any {
	return map[string]any{"format": "json", "confidence": 0.4, "overlap": 0.45}
}

func TestClient_Infer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acme/corn/2", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "0.4", q.Get("confidence"))
		assert.Equal(t, "0.45", q.Get("overlap"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "image.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		img, err := jpeg.Decode(file)
		if assert.NoError(t, err) {
			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Equal(t, 48, img.Bounds().Dy())
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"predictions":[{"x":320,"y":240,"width":100,"height":80,"class":"blight","confidence":0.87}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	got, err := c.Infer(context.Background(), srv.URL+"/acme/corn/2", "secret", testImage(), defaultParams())
	require.NoError(t, err)

	body, ok := got.(map[string]any)
	require.True(t, ok)
	preds, ok := body["predictions"].([]any)
	require.True(t, ok)
	require.Len(t, preds, 1)
}

func TestClient_InferKeepsCallerParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "own", r.URL.Query().Get("api_key"))
		assert.Equal(t, "7", r.URL.Query().Get("max_detections"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	params := map[string]any{"api_key": "ignored", "max_detections": 7}
	_, err := NewClient(srv.Client()).Infer(context.Background(), srv.URL+"/m/1", "own", testImage(), params)
	require.NoError(t, err)
}

func TestClient_InferHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "Unauthorized")
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client()).Infer(context.Background(), srv.URL+"/m/1", "bad", testImage(), defaultParams())
	require.Error(t, err)

	var httpErr *entity.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	require.Equal(t, "Unauthorized", httpErr.Body)
	require.Contains(t, err.Error(), "401")
	require.Contains(t, err.Error(), "Unauthorized")
}

func TestClient_InferInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client()).Infer(context.Background(), srv.URL+"/m/1", "k", testImage(), nil)

	var decodeErr *entity.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, entity.DecodeResponse, decodeErr.Kind)
}

func TestClient_InferTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	client := srv.Client()
	client.Timeout = 20 * time.Millisecond

	_, err := NewClient(client).Infer(context.Background(), srv.URL+"/m/1", "k", testImage(), nil)
	require.Error(t, err)

	var httpErr *entity.HTTPError
	require.False(t, errors.As(err, &httpErr))
}
