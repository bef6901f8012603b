package advice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuleAdvisor_Advise(t *testing.T) {
	a := NewRuleAdvisor()
	ctx := context.Background()

	cases := map[string]string{
		"Tomato_Bacterial_spot": "Use copper-based bactericide; remove infected leaves",
		"late blight":           "Apply appropriate fungicide; improve airflow",
		"RUST":                  "Use fungicide; prune and destroy infected leaves",
		"powdery_mildew":        "Use sulfur-based fungicide; avoid overhead watering",
		"healthy":               adviceDefault,
		"":                      adviceUnknown,
	}
	for label, want := range cases {
		got, err := a.Advise(ctx, label)
		require.NoError(t, err)
		require.Equal(t, want, got.Treatment, label)
		require.Equal(t, label, got.Label)
	}
}
