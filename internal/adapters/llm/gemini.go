package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/calio/food-agent/internal/domain"
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates an LLMClient backed by Gemini on Vertex AI.
func NewGeminiClient(ctx context.Context, projectID, location, modelName string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("GCP project and location must be set")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.LLMClient for the conversational prompts.
func (g *GeminiClient) GenerateReply(
	ctx context.Context,
	instruction string,
	convCtx domain.ConversationContext,
) (string, error) {
	var contents []*genai.Content
	for _, m := range convCtx.History {
		var role genai.Role
		switch m.Role {
		case domain.RoleUser:
			role = genai.RoleUser
		case domain.RoleAssistant:
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}

		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	if len(contents) == 0 {
		// Gemini rejects an empty contents list; the instruction already
		// carries everything the greeting needs.
		contents = append(contents, genai.NewContentFromText("Hi!", genai.RoleUser))
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, replyConfig(instruction))
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}

	return text, nil
}

// replyConfig builds the conversational generation config. An empty
// instruction means no system instruction at all: Vertex rejects
// requests carrying an empty text part, so the field must be omitted,
// not sent blank.
func replyConfig(instruction string) *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(1024)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}
	if instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}
	return cfg
}

// Extract implements domain.LLMClient for the JSON classifier prompts.
// Runs at temperature zero with a tight token cap; the callers only
// need one small object back.
func (g *GeminiClient) Extract(
	ctx context.Context,
	system, assistantTurn, userTurn string,
) (string, error) {
	var contents []*genai.Content
	if assistantTurn != "" {
		contents = append(contents, genai.NewContentFromText(assistantTurn, genai.RoleModel))
	}
	contents = append(contents, genai.NewContentFromText(userTurn, genai.RoleUser))

	temp := float32(0)
	outputTokens := int32(60)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   outputTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex extract: %w", err)
	}

	return res.Text(), nil
}
