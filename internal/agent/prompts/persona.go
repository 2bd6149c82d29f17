package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/pamonha-express/server/internal/agent/model"
)

//go:embed template/persona.txt
var personaTemplate string

// ExitCommand is the literal that ends a cycle from any state.
const ExitCommand = "sair"

// RenderPersona renders the fixed instruction block sent ahead of the first
// generative turn. menu holds one "Name: R$ X,XX" entry per catalog item.
func RenderPersona(ctx context.Context, config model.PromptConfig, menu []string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(personaTemplate),
	)
	vars := map[string]any{
		"BusinessName":  config.BusinessName,
		"BusinessCity":  config.BusinessCity,
		"AssistantName": config.AssistantName,
		"Items":         menu,
		"ExitCommand":   ExitCommand,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("persona prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("persona prompt render: empty result")
	}
	return strings.TrimSpace(msgs[0].Content), nil
}

// WrapFirstTurn prefixes the user's first message with the persona block.
func WrapFirstTurn(persona, text string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\nPergunta do usuário: ")
	b.WriteString(text)
	return b.String()
}
