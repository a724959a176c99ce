// Package openai provides a turn generator backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/negomesh/core"
	"github.com/hupe1980/negomesh/generator"
	"github.com/openai/openai-go"
)

// Compile-time check that Generator satisfies the generator contract.
var _ core.TurnGenerator = (*Generator)(nil)

// Options configures the OpenAI generator. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Generator produces role-play turns through the OpenAI Chat Completions API.
type Generator struct {
	client *openai.Client
	opts   Options
}

// NewGenerator creates a generator using the official client.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewGeneratorFromClient(&client, optFns...)
}

// NewGeneratorFromClient creates a generator from an existing client.
func NewGeneratorFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// Generate implements core.TurnGenerator.
func (g *Generator) Generate(ctx context.Context, req core.GenerateRequest) (*core.GenerationResult, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	raw := resp.Choices[0].Message.Content

	output, _ := generator.ParseTurnOutput(raw)
	return &core.GenerationResult{
		RawOutput:       raw,
		Output:          output,
		PromptVariables: generator.PromptVariables(req),
	}, nil
}

// buildMessages maps the conversation onto the chat format; the generating
// role's past turns become assistant messages.
func buildMessages(req core.GenerateRequest) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(generator.SystemPrompt(req)),
	}
	for _, msg := range req.History {
		if msg.Speaker == req.Role {
			messages = append(messages, openai.AssistantMessage(msg.Text))
		} else {
			messages = append(messages, openai.UserMessage(msg.Text))
		}
	}
	if len(req.History) == 0 {
		messages = append(messages, openai.UserMessage("The conversation starts now. Make your opening move."))
	}
	return messages
}
