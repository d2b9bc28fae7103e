package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/triptalk/backend/pkg/log"
)

// GenerationError signals an LLM provider failure. The orchestrator converts
// it into a localized apology instead of an HTTP error.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Service runs composed prompts through the configured chat model.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	timeout   time.Duration
}

// NewService compiles the generation chain around the provided chat model.
// Every invocation is bounded by timeout; a hung provider cannot stall a
// request past it.
func NewService(ctx context.Context, chatModel model.ChatModel, timeout time.Duration) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chatModel: chatModel, chain: runnable, timeout: timeout}, nil
}

// Generate invokes the model with a system instruction and composed input.
// Failures always surface as *GenerationError.
func (s *Service) Generate(ctx context.Context, systemText, inputText string) (string, error) {
	if s == nil || s.chain == nil {
		return "", &GenerationError{Err: fmt.Errorf("chat model unavailable")}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": systemText,
		"query":  inputText,
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	log.L().Debug("generated response", zap.Int("length", len(response.Content)))
	return response.Content, nil
}
