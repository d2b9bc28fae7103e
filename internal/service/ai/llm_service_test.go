package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	reply       string
	sawDeadline bool
	gotMessages []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	_, f.sawDeadline = ctx.Deadline()
	f.gotMessages = in
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestGenerateBoundsTheProviderCall(t *testing.T) {
	fake := &fakeChatModel{reply: "Polecam Pragę."}
	svc, err := NewService(context.Background(), fake, 5*time.Second)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	got, err := svc.Generate(context.Background(), "system text", "query text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Polecam Pragę." {
		t.Fatalf("reply: %q", got)
	}
	if !fake.sawDeadline {
		t.Fatal("provider call must carry the configured deadline")
	}

	if len(fake.gotMessages) != 2 {
		t.Fatalf("messages: %d", len(fake.gotMessages))
	}
	if fake.gotMessages[0].Role != schema.System || fake.gotMessages[0].Content != "system text" {
		t.Fatalf("system message: %+v", fake.gotMessages[0])
	}
	if fake.gotMessages[1].Role != schema.User || fake.gotMessages[1].Content != "query text" {
		t.Fatalf("user message: %+v", fake.gotMessages[1])
	}
}

func TestGenerateWithoutTimeoutLeavesContextUnbounded(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	svc, err := NewService(context.Background(), fake, 0)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Generate(context.Background(), "s", "q"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fake.sawDeadline {
		t.Fatal("no deadline expected when the timeout is zero")
	}
}

func TestGenerateWithoutCompiledChain(t *testing.T) {
	var svc *Service
	_, err := svc.Generate(context.Background(), "system", "query")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("want *GenerationError, got %T: %v", err, err)
	}

	_, err = (&Service{}).Generate(context.Background(), "system", "query")
	if !errors.As(err, &genErr) {
		t.Fatalf("want *GenerationError, got %T: %v", err, err)
	}
}

func TestGenerationErrorWraps(t *testing.T) {
	cause := errors.New("provider timeout")
	err := &GenerationError{Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("GenerationError must unwrap its cause")
	}
	if err.Error() != "llm generation failed: provider timeout" {
		t.Fatalf("message: %q", err.Error())
	}
}
