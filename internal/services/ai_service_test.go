package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

func TestParseAnalysis(t *testing.T) {
	text := "```json\n{\"food_items\": [\"гречка\"], \"carbs\": 42.5, \"weight\": 200, \"absorption\": \"Slow\", \"confidence\": \"high\", \"analysis_text\": \"ok\"}\n```"

	result, err := parseAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"гречка"}, result.FoodItems)
	assert.Equal(t, 42.5, result.Carbs)
	assert.Equal(t, 200.0, result.Weight)
	assert.Equal(t, "slow", result.Absorption)
	assert.Equal(t, "high", result.Confidence)
}

func TestParseAnalysis_UnknownAbsorptionIsMedium(t *testing.T) {
	result, err := parseAnalysis(`{"carbs": 10, "absorption": "instant"}`)
	require.NoError(t, err)
	assert.Equal(t, "medium", result.Absorption)
}

func TestParseAnalysis_Rejects(t *testing.T) {
	for _, text := range []string{"no json here", `{"carbs": "many"}`, `{"carbs": -4}`, "} {"} {
		_, err := parseAnalysis(text)
		require.Error(t, err, text)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal), text)
	}
}

func TestParseWeight(t *testing.T) {
	w, err := parseWeight(" 150\n")
	require.NoError(t, err)
	assert.Equal(t, 150.0, w)

	w, err = parseWeight("230g")
	require.NoError(t, err)
	assert.Equal(t, 230.0, w)

	_, err = parseWeight("about a plate")
	assert.Error(t, err)
	_, err = parseWeight("0")
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("{\"carbs\":"), genai.Text(" 12}")}},
	}}}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "{\"carbs\": 12}", text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
	_, err = responseText(nil)
	assert.Error(t, err)
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	data, err := fetchImage(context.Background(), srv.Client(), srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = fetchImage(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	_, err = fetchImage(context.Background(), srv.Client(), "://bad")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFetchImage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := fetchImage(ctx, srv.Client(), srv.URL+"/slow.jpg")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
}
