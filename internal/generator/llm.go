package generator

import "context"

// Task names the stage a prompt is generating.
type Task string

const (
	TaskBackground  Task = "background"
	TaskCharacters  Task = "characters"
	TaskMacroChain  Task = "macroChain"
	TaskSceneDetail Task = "sceneDetail"
)

// Prompt is one chat-completion request. Count carries the number of items
// the model was asked for, so mocks can honor it without parsing text.
type Prompt struct {
	Task   Task
	System string
	User   string
	Count  int
}

// LLMClient is the model backend; it returns the raw assistant message.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings configures a concrete client.
type LLMSettings struct {
	Model   string
	APIKey  string
	BaseURL string
}
