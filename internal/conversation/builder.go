package conversation

import (
	"fmt"

	"prismBot/internal/llm"
)

// Builder turns a chain into the role-tagged message list sent to the
// LLM. Prompt strings are injected so persona or locale changes need no
// rebuild.
type Builder struct {
	persona                string
	historyContextTemplate string // one %s slot for the embedded chat log
}

func NewBuilder(persona, historyContextTemplate string) *Builder {
	return &Builder{
		persona:                persona,
		historyContextTemplate: historyContextTemplate,
	}
}

// Build produces the persona system message, at most one system message
// embedding history context, then one user/assistant message per turn in
// chain order. When several turns carry history context the last one
// found wins.
func (b *Builder) Build(chain *Chain) []llm.Message {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: b.persona},
	}

	historyContext := ""
	hasHistoryContext := false
	for _, turn := range chain.Turns {
		if turn.HasHistoryContext {
			hasHistoryContext = true
			historyContext = turn.HistoryContext
		}
	}
	if hasHistoryContext {
		messages = append(messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf(b.historyContextTemplate, historyContext),
		})
	}

	for _, turn := range chain.Turns {
		role := llm.RoleUser
		if turn.IsBot {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}

	return messages
}

// BuildForNewMessage builds the request for a fresh user message. With
// no chain the result is just [system, user]. With a chain the built
// sequence gets a trailing user turn unless a user message with the
// exact same text is already present.
func (b *Builder) BuildForNewMessage(userText string, chain *Chain) []llm.Message {
	if chain == nil {
		return []llm.Message{
			{Role: llm.RoleSystem, Content: b.persona},
			{Role: llm.RoleUser, Content: userText},
		}
	}

	messages := b.Build(chain)
	for _, msg := range messages {
		if msg.Role == llm.RoleUser && msg.Content == userText {
			return messages
		}
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
}
