package telegram

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"leaf-bot/internal/domain/entity"
)

func TestDetectionTable(t *testing.T) {
	out := detectionTable([]entity.Detection{
		{X: 320, Y: 240, Width: 100, Height: 80, Class: "blight", Confidence: 0.87, HasConfidence: true},
		{X: 10.5, Y: 20, Width: 4, Height: 4, Class: "spot"},
	})

	require.Contains(t, strings.ToUpper(out), "CONFIDENCE")
	require.Contains(t, out, "blight")
	require.Contains(t, out, "0.87")
	require.Contains(t, out, "10.5")
	require.Contains(t, out, "spot")
}

func TestClassificationTable(t *testing.T) {
	out := classificationTable([]entity.Classification{
		{Class: "healthy", Score: 0.95, HasScore: true, Extra: map[string]any{"class_id": 1.0}},
		{Class: "blighted", Score: 0.05, HasScore: true},
	})

	require.Contains(t, strings.ToUpper(out), "CLASS")
	require.Contains(t, out, "healthy")
	require.Contains(t, out, "0.95")
	require.Contains(t, out, "blighted")
	require.Contains(t, out, "0.05")
}

func TestErrorText(t *testing.T) {
	text := errorText(&entity.HTTPError{StatusCode: 401, Body: "Unauthorized"})
	require.Contains(t, text, "401")
	require.Contains(t, text, "<pre>Unauthorized</pre>")

	text = errorText(&entity.HTTPError{StatusCode: 500, Body: "<b>boom</b>"})
	require.Contains(t, text, "&lt;b&gt;boom&lt;/b&gt;")

	text = errorText(&entity.ConfigError{Field: entity.FieldModelID})
	require.Contains(t, text, "/model")

	text = errorText(&entity.DecodeError{Kind: entity.DecodeResponse, Err: errors.New("invalid character '<'")})
	require.True(t, strings.HasPrefix(text, "⚠️ Unexpected error"))
	require.Contains(t, text, "&#39;&lt;&#39;")
}

func TestRawJSON(t *testing.T) {
	require.Equal(t, "{\n  \"message\": \"ok\"\n}", rawJSON(map[string]any{"message": "ok"}))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("ж", 100)
	cut := truncate(long, 51)
	require.LessOrEqual(t, len(cut), 51)
	require.True(t, utf8.ValidString(cut))
	require.True(t, strings.HasSuffix(cut, "…"))
}
