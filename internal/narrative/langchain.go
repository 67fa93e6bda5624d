package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names accepted by NewLangChain.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// LangChainOptions configures a LangChain generator.
type LangChainOptions struct {
	Provider    string
	Model       string
	Token       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// LangChain sends the request as a system message and a human message to any
// langchaingo chat model.
type LangChain struct {
	model llms.Model
	opts  []llms.CallOption
}

// NewLangChain builds the provider model named by opts.Provider.
func NewLangChain(opts LangChainOptions) (*LangChain, error) {
	model, err := createModel(opts)
	if err != nil {
		return nil, err
	}
	return NewLangChainWithModel(model, opts), nil
}

// NewLangChainWithModel wraps an existing model.
func NewLangChainWithModel(model llms.Model, opts LangChainOptions) *LangChain {
	var callOpts []llms.CallOption
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	return &LangChain{model: model, opts: callOpts}
}

func createModel(opts LangChainOptions) (llms.Model, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		o := []openai.Option{openai.WithModel(opts.Model)}
		if opts.Token != "" {
			o = append(o, openai.WithToken(opts.Token))
		}
		if opts.BaseURL != "" {
			o = append(o, openai.WithBaseURL(opts.BaseURL))
		}
		m, err := openai.New(o...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai model: %w", err)
		}
		return m, nil
	case ProviderOllama:
		o := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.BaseURL != "" {
			o = append(o, ollama.WithServerURL(opts.BaseURL))
		}
		m, err := ollama.New(o...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported langchain provider: %q", opts.Provider)
	}
}

func (l *LangChain) Generate(ctx context.Context, req Request) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstructions),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserPayload),
	}

	resp, err := l.model.GenerateContent(ctx, messages, l.opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", newError(classify(ctxErr), fmt.Errorf("model call failed: %w", err))
		}
		return "", newError(classify(err), fmt.Errorf("model call failed: %w", err))
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", newError(KindMalformedResponse, fmt.Errorf("model returned no choices"))
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", newError(KindMalformedResponse, fmt.Errorf("model returned empty content"))
	}
	return text, nil
}
