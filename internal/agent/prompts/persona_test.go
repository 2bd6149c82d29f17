package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pamonha-express/server/internal/agent/model"
)

func TestRenderPersona(t *testing.T) {
	out, err := RenderPersona(context.Background(), model.DefaultPromptConfig(), []string{
		"Pamonha Doce: R$ 10,00",
		"Água Mineral: R$ 3,00",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<instruções>"))
	assert.True(t, strings.HasSuffix(out, "</fim das instruções>"))
	assert.Contains(t, out, "chamada Pamonha Express, em Uberlândia-MG")
	assert.Contains(t, out, "diga que se chama Sara")
	assert.Contains(t, out, "- Pamonha Doce: R$ 10,00\n- Água Mineral: R$ 3,00\n")
	assert.Contains(t, out, `digitar "sair"`)
	assert.NotContains(t, out, "{{")
}

func TestWrapFirstTurn(t *testing.T) {
	got := WrapFirstTurn("<instruções>x</fim das instruções>", "Maria")
	assert.Equal(t, "<instruções>x</fim das instruções>\nPergunta do usuário: Maria", got)
}
