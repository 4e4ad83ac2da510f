package analysis

import (
	"context"
	"fmt"
	"time"

	"Hokage/backend/go/internal/config"
	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/pkg/circuitbreaker"
	"Hokage/backend/go/pkg/logger"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// Perplexity is an Analyzer backed by the Perplexity chat-completions API,
// which is wire-compatible with the OpenAI protocol. All calls run through
// a circuit breaker so that a struggling provider trips fast instead of
// holding every triage request for the full timeout.
type Perplexity struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewPerplexity creates the Perplexity analyzer from configuration.
// breaker may be nil, in which case calls are not circuit-protected.
func NewPerplexity(cfg *config.PerplexityConfig, breaker circuitbreaker.CircuitBreaker, log *logger.Logger) (*Perplexity, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("perplexity api key is not configured")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	return &Perplexity{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		breaker: breaker,
		logger:  log,
	}, nil
}

// Triage implements Analyzer.
func (p *Perplexity) Triage(ctx context.Context, failureSummary string, recentEvents []string) (*TriageVerdict, error) {
	raw, err := p.complete(ctx, jsonOnlySystemPrompt, triagePrompt(failureSummary, recentEvents))
	if err != nil {
		return nil, err
	}
	var verdict TriageVerdict
	if err := extractJSON(raw, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// DeepAnalyze implements Analyzer.
func (p *Perplexity) DeepAnalyze(ctx context.Context, initialEvidence map[string]interface{}, logContents map[string]string) (*Analysis, error) {
	raw, err := p.complete(ctx, defaultSystemPrompt, deepAnalysisPrompt(initialEvidence, logContents))
	if err != nil {
		return nil, err
	}
	var result Analysis
	if err := extractJSON(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// complete issues a single chat completion and returns the raw content of
// the first choice.
func (p *Perplexity) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Lower temperature for deterministic, factual answers.
	temperature := float32(0.3)
	call := func() (interface{}, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: &temperature,
			MaxTokens:   1024,
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return nil, ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}

	var out interface{}
	var err error
	if p.breaker != nil {
		out, err = p.breaker.Execute(call)
	} else {
		out, err = call()
	}
	if err != nil {
		if p.logger != nil {
			p.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "analysis_error"}).Warn("Analysis provider call failed")
		}
		return "", err
	}
	return out.(string), nil
}
