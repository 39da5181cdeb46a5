package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

const systemPrompt = "You are a professional real estate assistant for XYZ Real Estate. " +
	"Follow these guidelines:\n" +
	"1. Keep responses concise (2-3 lines maximum)\n" +
	"2. For properties, include only:\n" +
	"   - Location and key features\n" +
	"   - Price and payment options\n" +
	"3. For plots, mention only:\n" +
	"   - Plot size and status\n" +
	"   - Price and location\n" +
	"4. For company info:\n" +
	"   - Brief overview\n" +
	"   - Key strengths\n" +
	"5. For services:\n" +
	"   - Main service offerings\n" +
	"   - Key benefits\n" +
	"6. For offers:\n" +
	"   - Current offer details\n" +
	"   - Validity period\n" +
	"7. Always maintain a professional yet friendly tone\n" +
	"8. End with a relevant follow-up question\n" +
	"After your response, on a new line output:\n" +
	"Lead Score: [score]\n" +
	"Qualification: [Hot/Warm/Cold]\n" +
	"Schedule Meeting: [true/false]"

const limitedModeReply = "I'm sorry, but I'm currently operating in limited mode. Please contact support for assistance."

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GroqClient calls Groq's OpenAI-compatible chat completions API.
type GroqClient struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// GroqConfig configures the Groq client. An empty APIKey puts the client in
// limited mode: Generate returns a fixed degraded result without any network
// call.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewGroqClient builds the generation client.
func NewGroqClient(cfg GroqConfig, logger *logging.Logger) *GroqClient {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "llama3-70b-8192"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var client chatClient
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(clientCfg)
	} else {
		logger.Warn("llm: groq API key not configured, generation will run in limited mode")
	}

	return &GroqClient{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Generate produces the reply and qualification fields for one turn. The
// returned Result is always usable; a non-nil error only explains why a
// degraded result was produced.
func (c *GroqClient) Generate(ctx context.Context, req Request) (Result, error) {
	if c.client == nil {
		return Result{
			Text:          limitedModeReply,
			LeadScore:     50,
			Qualification: "Warm Lead",
			Note:          "API key not configured",
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
		Temperature:      0.7,
		MaxTokens:        150,
		TopP:             0.9,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.3,
	})
	if err != nil {
		c.logger.Error("llm: groq completion failed", "error", err)
		return Result{
			Text:          fmt.Sprintf("Error: %v", err),
			LeadScore:     0,
			Qualification: "Unknown",
			Raw:           err.Error(),
			Note:          "transport failure",
		}, fmt.Errorf("llm: groq completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm: groq returned no choices")
		return Result{
			Text:          "Error: empty completion",
			LeadScore:     0,
			Qualification: "Unknown",
			Note:          "empty completion",
		}, fmt.Errorf("llm: groq returned no choices")
	}

	return parseReply(resp.Choices[0].Message.Content), nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Previous Chat History:\n")
	b.WriteString(req.Context)
	b.WriteString("\n\nCurrent Question: ")
	b.WriteString(req.Question)
	b.WriteString("\n\nLead Parameters:\n")
	fmt.Fprintf(&b, "- Interest Level: %d\n", req.Signals.InterestLevel)
	fmt.Fprintf(&b, "- Budget Match: %d\n", req.Signals.BudgetMatch)
	fmt.Fprintf(&b, "- Engagement Time: %d\n", req.Signals.EngagementTime)
	fmt.Fprintf(&b, "- Follow-up Shown: %d\n", req.Signals.FollowUp)
	fmt.Fprintf(&b, "- Offer Response: %d\n", req.Signals.OfferResponse)
	fmt.Fprintf(&b, "- Appointment Scheduled: %d\n", req.Signals.Appointment)
	fmt.Fprintf(&b, "- Past Interactions: %d\n", req.Signals.PastInteractions)
	b.WriteString("\nRemember to:\n")
	b.WriteString("1. Provide comprehensive information\n")
	b.WriteString("2. Include specific details and examples\n")
	b.WriteString("3. Maintain context from previous messages\n")
	b.WriteString("4. Suggest relevant next steps\n")
	return b.String()
}
