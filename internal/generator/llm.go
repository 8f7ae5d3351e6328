package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nahidhasan98/autocommit/internal/config"
	"github.com/nahidhasan98/autocommit/internal/logger"
)

// ErrInvalidResponse is returned when the model answer is not a commit message
var ErrInvalidResponse = errors.New("generator: model answer is not a conventional commit message")

var (
	headerShape = regexp.MustCompile(`^\w+(\([^()\r\n]+\))?!?: \S`)
	codeFence   = regexp.MustCompile("^```[a-zA-Z]*\\s*\\n?|\\n?```\\s*$")
)

// ChatClient is the part of the OpenAI client the generator needs
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLM asks a chat completion model for the message
type LLM struct {
	client     ChatClient
	model      string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	log        *logger.Logger

	// sleep waits between attempts; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLLM builds an OpenAI compatible client from cfg
func NewLLM(cfg config.LLMConfig, log *logger.Logger) *LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewLLMWithClient(openai.NewClientWithConfig(clientCfg), cfg, log)
}

// NewLLMWithClient uses an existing chat client
func NewLLMWithClient(client ChatClient, cfg config.LLMConfig, log *logger.Logger) *LLM {
	if log == nil {
		log = logger.Nop()
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &LLM{
		client:     client,
		model:      cfg.Model,
		maxRetries: retries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		log:        log.Component("llm"),
		sleep:      sleepContext,
	}
}

// Generate implements Generator
func (l *LLM) Generate(ctx context.Context, req Request) (Result, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: 0.2,
		MaxTokens:   512,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		l.log.Debugf("Requesting commit message from %s (attempt %d/%d)", l.model, attempt, l.maxRetries)

		msg, err := l.complete(ctx, chatReq)
		if err == nil {
			return Result{Message: msg, Source: SourceLLM}, nil
		}
		lastErr = err

		if !retryable(err) || attempt == l.maxRetries {
			break
		}
		wait := l.retryDelay * time.Duration(attempt)
		l.log.Warnf("Model request failed, retrying in %s: %v", wait, err)
		if err := l.sleep(ctx, wait); err != nil {
			return Result{}, err
		}
	}

	return Result{}, fmt.Errorf("generate commit message: %w", lastErr)
}

func (l *LLM) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}
	return CleanMessage(resp.Choices[0].Message.Content)
}

// CleanMessage strips code fences and surrounding blank lines from a model
// answer and checks that its first line is a commit header.
func CleanMessage(raw string) (string, error) {
	msg := strings.TrimSpace(raw)
	msg = strings.TrimSpace(codeFence.ReplaceAllString(msg, ""))
	msg = strings.ReplaceAll(msg, "\r\n", "\n")

	if !headerShape.MatchString(msg) {
		return "", fmt.Errorf("%w: %q", ErrInvalidResponse, firstLine(msg))
	}
	return msg, nil
}

// retryable reports rate limits, server errors and transport failures
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidResponse) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || retryableStatus(reqErr.HTTPStatusCode)
	}
	// anything else failed before a response arrived
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
