package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"shoplens/config"
	"shoplens/logger"
	"shoplens/middleware"
)

// AssistantRequest is the natural-language question posed to the analytics
// assistant.
type AssistantRequest struct {
	Prompt string `json:"prompt"`
}

// HandleAssistant answers a natural-language question about the shop's
// analytics: it classifies the question's intent, runs the matching analyzer,
// and asks Gemini to narrate the structured result.
func HandleAssistant(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	var req AssistantRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request"})
	}

	if config.AppConfig.GeminiAPIKey == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "AI assistant is not configured"})
	}

	ctx := c.Context()

	// 1. Classify the question's intent
	intent, err := classifyIntent(ctx, req.Prompt)
	if err != nil {
		logger.Error("❌ [ASSISTANT] intent classification failed", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to understand the question"})
	}

	// 2. Run the analyzer that answers it
	data := fetchDataForIntent(ctx, intent, shopID)

	// 3. Narrate the structured result
	analysis, err := generateAnalysis(ctx, req.Prompt, intent, data)
	if err != nil {
		logger.Error("❌ [ASSISTANT] analysis generation failed", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate analysis"})
	}

	return c.JSON(fiber.Map{"success": true, "intent": intent, "analysis": analysis})
}

// classifyIntent asks Gemini which analyzer answers the question.
func classifyIntent(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create AI client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-1.5-pro")
	classificationPrompt := fmt.Sprintf(
		`You are an intent classification system. Classify the user's question into exactly one of the following categories and respond with only the category name: 'forecast', 'inventory', 'pricing', 'customers', 'insights', or 'unknown'. The question is: "%s"`,
		prompt,
	)

	resp, err := model.GenerateContent(ctx, genai.Text(classificationPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to classify intent: %w", err)
	}

	intent := strings.TrimSpace(fmt.Sprint(resp.Candidates[0].Content.Parts[0]))
	switch intent {
	case "forecast", "inventory", "pricing", "customers", "insights":
		return intent, nil
	}
	return "unknown", nil
}

// fetchDataForIntent runs the analyzer matching the intent. Analyzer defaults
// mean this never fails; an unknown intent yields nil.
func fetchDataForIntent(ctx context.Context, intent, shopID string) interface{} {
	switch intent {
	case "forecast":
		return forecaster.Predict(ctx, shopID, 7)
	case "inventory":
		stockouts, err := inventory.StockoutForecasts(ctx, shopID)
		if err != nil {
			return nil
		}
		return stockouts
	case "pricing":
		recommendations, err := pricing.AnalyzeShop(ctx, shopID)
		if err != nil {
			return nil
		}
		return recommendations
	case "customers":
		return segmenter.Segment(ctx, shopID)
	case "insights":
		return aggregator.Generate(ctx, shopID)
	}
	return nil
}

// generateAnalysis asks Gemini to narrate the analyzer output for the shop
// owner.
func generateAnalysis(ctx context.Context, originalPrompt, intent string, data interface{}) (string, error) {
	if intent == "unknown" || data == nil {
		return "Sorry, I can't answer that question yet. Try asking about your sales forecast, inventory, pricing, customers, or insights.", nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create AI client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-1.5-pro")

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize data: %w", err)
	}

	analysisPrompt := fmt.Sprintf(
		`You are a helpful AI assistant for a retail shop owner. The owner asked: "%s". The question was classified as '%s'. Based on the following analytics data, provide a concise and helpful answer in plain language. Do not mention the data format.

		Data: %s`,
		originalPrompt,
		intent,
		string(jsonData),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(analysisPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate analysis: %w", err)
	}

	return fmt.Sprint(resp.Candidates[0].Content.Parts[0]), nil
}
