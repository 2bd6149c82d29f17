package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewChainCallbacks aggregates the prompt and model observers of one chat chain.
func NewChainCallbacks(modelName string) einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Prompt(newPromptHandler()).
		ChatModel(newModelHandler(modelName)).
		Handler()
}
