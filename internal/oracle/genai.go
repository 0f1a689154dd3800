package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIConfig selects the Gemini backend. An API key uses the Gemini API;
// without one, Vertex AI is used with Project and Location and the
// application default credentials.
type GenAIConfig struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

// Configured reports whether enough is set to reach a backend
func (c GenAIConfig) Configured() bool {
	return c.APIKey != "" || c.Project != ""
}

// GenAIOracle streams completions from Gemini through google.golang.org/genai
type GenAIOracle struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	log    *zap.Logger
}

// NewGenAIOracle creates a Gemini client
func NewGenAIOracle(ctx context.Context, cfg GenAIConfig, log *zap.Logger) (*GenAIOracle, error) {
	clientCfg := &genai.ClientConfig{}
	if cfg.APIKey != "" {
		clientCfg.APIKey = cfg.APIKey
		clientCfg.Backend = genai.BackendGeminiAPI
	} else {
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash-001"
	}

	return &GenAIOracle{
		client: client,
		model:  model,
		config: generationConfig(),
		log:    log.Named("oracle"),
	}, nil
}

// generationConfig mirrors what the activity prompts were tuned with:
// long outputs, full sampling and no safety blocking, since every prompt is
// about toddler play.
func generationConfig() *genai.GenerateContentConfig {
	off := func(category genai.HarmCategory) *genai.SafetySetting {
		return &genai.SafetySetting{Category: category, Threshold: genai.HarmBlockThresholdOff}
	}
	return &genai.GenerateContentConfig{
		MaxOutputTokens: 8192,
		Temperature:     genai.Ptr[float32](1),
		TopP:            genai.Ptr[float32](1),
		SafetySettings: []*genai.SafetySetting{
			off(genai.HarmCategoryHateSpeech),
			off(genai.HarmCategoryDangerousContent),
			off(genai.HarmCategorySexuallyExplicit),
			off(genai.HarmCategoryHarassment),
		},
	}
}

// Complete streams the reply and returns the concatenated chunks. Nothing
// is parsed until the stream has finished. The caller's context bounds the
// call.
func (o *GenAIOracle) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var (
		b      strings.Builder
		chunks int
	)
	for resp, err := range o.client.Models.GenerateContentStream(ctx, o.model, contents, o.config) {
		if err != nil {
			return "", fmt.Errorf("GenAI stream failed: %w", err)
		}
		b.WriteString(resp.Text())
		chunks++
	}

	text := b.String()
	o.log.Debug("completion finished",
		zap.String("model", o.model),
		zap.Int("chunks", chunks),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)),
	)

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
