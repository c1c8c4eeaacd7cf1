package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/logger"
	"google.golang.org/api/option"
)

const (
	geminiModel   = "gemini-1.5-flash"
	maxImageBytes = 10 << 20
)

type AIService struct {
	geminiClient *genai.Client
	httpClient   *http.Client
}

func NewAIService(ctx context.Context, geminiAPIKey string) (*AIService, error) {
	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(geminiAPIKey))
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, "gemini")
	}

	return &AIService{
		geminiClient: geminiClient,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *AIService) Close() error {
	return s.geminiClient.Close()
}

// AnalyzeFoodImage estimates carbs and absorption speed for the photo. A
// non-positive weight is estimated from the photo first.
func (s *AIService) AnalyzeFoodImage(ctx context.Context, imageURL string, weight float64) (*domain.FoodAnalysisResult, error) {
	imageData, err := fetchImage(ctx, s.httpClient, imageURL)
	if err != nil {
		return nil, err
	}

	if weight <= 0 {
		estimated, err := s.estimateWeight(ctx, imageData)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate weight: %w", err)
		}
		weight = estimated
	}

	text, err := s.generate(ctx, imageData, analysisPrompt(weight))
	if err != nil {
		return nil, err
	}
	result, err := parseAnalysis(text)
	if err != nil {
		return nil, err
	}
	if result.Weight <= 0 {
		result.Weight = weight
	}

	logger.Info("Food image analyzed", "carbs", result.Carbs, "weight", result.Weight, "absorption", result.Absorption)
	return result, nil
}

func (s *AIService) estimateWeight(ctx context.Context, imageData []byte) (float64, error) {
	text, err := s.generate(ctx, imageData, weightPrompt)
	if err != nil {
		return 0, err
	}
	return parseWeight(text)
}

func (s *AIService) generate(ctx context.Context, imageData []byte, prompt string) (string, error) {
	model := s.geminiClient.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.ImageData("jpeg", imageData), genai.Text(prompt))
	if errors.Is(err, context.DeadlineExceeded) {
		return "", apperrors.NewTimeoutError("gemini")
	}
	if err != nil {
		return "", apperrors.NewExternalAPIError(err, "gemini")
	}
	return responseText(resp)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.NewExternalAPIError(fmt.Errorf("empty response"), "gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", apperrors.NewExternalAPIError(fmt.Errorf("response has no text"), "gemini")
	}
	return b.String(), nil
}

func fetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid image url: %v", err))
	}
	resp, err := client.Do(req)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, apperrors.NewTimeoutError("download image")
	}
	if err != nil {
		return nil, apperrors.NewTransientError(err, "download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("status %d", resp.StatusCode), "telegram file")
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, apperrors.NewTransientError(err, "read image")
	}
	if len(data) > maxImageBytes {
		return nil, apperrors.NewValidationError("image is larger than 10 MB")
	}
	return data, nil
}

func parseWeight(text string) (float64, error) {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "g"))
	weight, err := strconv.ParseFloat(raw, 64)
	if err != nil || weight <= 0 {
		return 0, apperrors.NewExternalAPIError(fmt.Errorf("unexpected weight %q", text), "gemini")
	}
	return weight, nil
}

func parseAnalysis(text string) (*domain.FoodAnalysisResult, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("no valid JSON found in response"), "gemini")
	}

	var result domain.FoodAnalysisResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("failed to parse response: %w", err), "gemini")
	}
	if result.Carbs < 0 {
		return nil, apperrors.NewExternalAPIError(fmt.Errorf("negative carbs %v", result.Carbs), "gemini")
	}

	switch strings.ToLower(strings.TrimSpace(result.Absorption)) {
	case "fast", "medium", "slow":
		result.Absorption = strings.ToLower(strings.TrimSpace(result.Absorption))
	default:
		result.Absorption = "medium"
	}
	return &result, nil
}

// extractJSON attempts to extract a valid JSON object from the given string.
// It handles cases where the JSON is wrapped in code blocks (```json ... ```) or other text.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

const weightPrompt = `You are a food weight estimation expert. Your task is to estimate the weight of the food in the image in grams.

REQUIREMENTS:
- Estimate the weight as accurately as possible
- Consider standard portion sizes
- Account for the plate/bowl size if visible
- Return ONLY a number representing the weight in grams
- Do not include any text, units, or explanations
- Round to the nearest gram

Example response format:
150`

func analysisPrompt(weight float64) string {
	return fmt.Sprintf(`You are a certified diabetes educator specializing in nutrition analysis.
You will analyze the food in the image to estimate its carbohydrate content and how fast it is absorbed.

TASK:
1. Identify the food items in the image
2. Estimate total carbohydrates (in grams) based on standard nutritional databases
3. Classify the absorption speed of the meal:
   - "fast": glucose tablets, juice, sweets, sports drinks
   - "medium": white bread, pasta, rice, most fruit
   - "slow": legumes, oats, whole grains, meals rich in fat or protein
4. Assess your confidence in this estimation (low, medium, high)

REQUIREMENTS:
- Include both visible ingredients and likely hidden ingredients that contain carbs
- If the image contains nutritional information or packaging, prioritize that data
- IMPORTANT: Provide all text responses in Russian language
- Keep the analysis text concise and focused on how the calculation was made

IMPORTANT WEIGHT INFORMATION:
- The food weighs %.1f grams
- Adjust your carbohydrate calculation based on this exact weight

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object without markdown or extra text
- The JSON must have these exact fields:
  {
    "food_items": ["item1", "item2"],
    "carbs": 123.45,
    "weight": %.1f,
    "absorption": "fast|medium|slow",
    "confidence": "low|medium|high",
    "analysis_text": "Your analysis in Russian"
  }`, weight, weight)
}
