// Package anthropic provides a turn generator backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/negomesh/core"
	"github.com/hupe1980/negomesh/generator"
)

// Compile-time check that Generator satisfies the generator contract.
var _ core.TurnGenerator = (*Generator)(nil)

// Options configures the Anthropic generator (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Generator produces role-play turns through the Anthropic Messages API.
type Generator struct {
	client *anthropic.Client
	opts   Options
}

// NewGenerator creates a generator using the official client.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Generator{client: &client, opts: opts}
}

// NewGeneratorFromClient creates a generator from an existing client.
func NewGeneratorFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Generator {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// Generate implements core.TurnGenerator.
func (g *Generator) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerationResult, error) {
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		Messages:    buildMessages(req),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: generator.SystemPrompt(req)},
		},
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	raw := text.String()

	output, _ := generator.ParseTurnOutput(raw)
	return &core.GenerationResult{
		RawOutput:       raw,
		Output:          output,
		PromptVariables: generator.PromptVariables(req),
	}, nil
}

// buildMessages maps the conversation onto the chat format; the generating
// role's past turns become assistant messages. An opening nudge is added
// when the history is empty because the API rejects empty message lists.
func buildMessages(req core.GenerateRequest) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, msg := range req.History {
		block := anthropic.NewTextBlock(msg.Text)
		if msg.Speaker == req.Role {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	if len(messages) == 0 {
		messages = append(messages, anthropic.NewUserMessage(
			anthropic.NewTextBlock("The conversation starts now. Make your opening move."),
		))
	}
	return messages
}
