package llm

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
