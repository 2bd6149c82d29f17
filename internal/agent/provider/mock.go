package provider

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel answers without any network call. Used for local runs and tests.
type MockChatModel struct {
	name string
}

func NewMockChatModel(name string) *MockChatModel {
	return &MockChatModel{name: name}
}

// MockFactory satisfies ModelFactory.
func MockFactory(_ context.Context, modelName string) (einomodel.BaseChatModel, error) {
	return NewMockChatModel(modelName), nil
}

func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	var last string
	turns := 0
	for _, msg := range input {
		if msg != nil && msg.Role == schema.User {
			last = msg.Content
			turns++
		}
	}
	if i := strings.LastIndex(last, "Pergunta do usuário: "); i >= 0 {
		last = last[i+len("Pergunta do usuário: "):]
	}
	reply := fmt.Sprintf("[%s #%d] Anotado: %q. Posso ajudar com mais alguma coisa?", m.name, turns, last)
	return schema.AssistantMessage(reply, nil), nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var _ einomodel.BaseChatModel = (*MockChatModel)(nil)
